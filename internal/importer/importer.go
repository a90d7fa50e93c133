// Package importer parses bulk item uploads (CSV or XLSX) into rows ready
// to be created, collecting per-row problems instead of failing the file.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"github.com/assetdesk/assetdesk/internal/model"
)

// MaxFileSize is the largest accepted upload.
const MaxFileSize = 5 << 20

// AcceptedMIME lists the content types accepted for uploads.
var AcceptedMIME = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

var acceptedExt = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// ErrUnsupported is returned for files that are neither CSV nor XLSX.
var ErrUnsupported = errors.New("unsupported file type: use .csv, .xlsx or .xls")

// Row is one data row of an import file. Line is the spreadsheet row number
// (the header is row 1).
type Row struct {
	Line          int
	Name          string
	Category      string
	SerialNumber1 string
	SerialNumber2 string
	SerialNumber3 string
	Owner         string
	Location      string
}

// CheckUpload validates an upload before it is sent or parsed. An empty
// content type is judged by extension alone.
func CheckUpload(filename, contentType string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("file is %s, the limit is %s", humanize.IBytes(uint64(size)), humanize.IBytes(MaxFileSize))
	}
	if !acceptedExt[strings.ToLower(filepath.Ext(filename))] {
		return ErrUnsupported
	}
	if ct := baseMIME(contentType); ct != "" && ct != "application/octet-stream" && !AcceptedMIME[ct] {
		return fmt.Errorf("unsupported content type %q", ct)
	}
	return nil
}

// ContentType returns the upload content type for a file name.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return "text/csv"
	}
}

// Parse reads an import file. A file-level problem (unreadable file,
// missing required columns) is returned as an error; row-level problems are
// returned as ImportErrors alongside the valid rows.
func Parse(filename string, r io.Reader) ([]Row, []model.ImportError, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, nil, fmt.Errorf("file exceeds %s", humanize.IBytes(MaxFileSize))
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(data)
	case ".csv":
		records, err = readCSV(data)
	case ".xls":
		// Browsers label plain CSV as application/vnd.ms-excel on some
		// platforms; binary BIFF workbooks are not supported.
		if !strings.HasPrefix(http.DetectContentType(data), "text/") {
			return nil, nil, ErrUnsupported
		}
		records, err = readCSV(data)
	default:
		return nil, nil, ErrUnsupported
	}
	if err != nil {
		return nil, nil, err
	}

	return mapRecords(records)
}

func readCSV(data []byte) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// headerAliases maps normalized header names to row fields.
var headerAliases = map[string]string{
	"name":            "name",
	"item":            "name",
	"item_name":       "name",
	"category":        "category",
	"type":            "category",
	"serial_number":   "serial1",
	"serial_number_1": "serial1",
	"serial":          "serial1",
	"serial_1":        "serial1",
	"serial_number_2": "serial2",
	"serial_2":        "serial2",
	"serial_number_3": "serial3",
	"serial_3":        "serial3",
	"owner":           "owner",
	"owner_email":     "owner",
	"owner_id":        "owner",
	"location":        "location",
}

var requiredColumns = []struct{ field, header string }{
	{"name", "name"},
	{"category", "category"},
	{"serial1", "serial_number_1"},
}

func mapRecords(records [][]string) ([]Row, []model.ImportError, error) {
	if len(records) == 0 {
		return nil, nil, errors.New("file is empty")
	}

	cols := make(map[string]int)
	for i, h := range records[0] {
		if field, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c.field]; !ok {
			missing = append(missing, c.header)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(rec []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	var problems []model.ImportError
	for n, rec := range records[1:] {
		line := n + 2
		if blank(rec) {
			continue
		}
		row := Row{
			Line:          line,
			Name:          cell(rec, "name"),
			Category:      cell(rec, "category"),
			SerialNumber1: cell(rec, "serial1"),
			SerialNumber2: cell(rec, "serial2"),
			SerialNumber3: cell(rec, "serial3"),
			Owner:         cell(rec, "owner"),
			Location:      cell(rec, "location"),
		}
		if msg := row.validate(); msg != "" {
			problems = append(problems, model.ImportError{Row: line, Message: msg})
			continue
		}
		rows = append(rows, row)
	}
	return rows, problems, nil
}

func (r Row) validate() string {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Category == "" {
		missing = append(missing, "category")
	}
	if r.SerialNumber1 == "" {
		missing = append(missing, "serial_number_1")
	}
	if len(missing) > 0 {
		return "missing " + strings.Join(missing, ", ")
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func baseMIME(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

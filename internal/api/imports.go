package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/assetdesk/assetdesk/internal/importer"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// multipartOverhead is the slack allowed on top of the file size limit for
// multipart framing and headers.
const multipartOverhead = 64 << 10

// Import handles POST /api/items/import. Each data row is validated and
// created on its own; failed rows are reported with their spreadsheet row
// number and do not stop the rest.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(importer.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	if err := importer.CheckUpload(header.Filename, header.Header.Get("Content-Type"), header.Size); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, problems, err := importer.Parse(header.Filename, file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := model.ImportResult{Created: []model.Item{}, Errors: []model.ImportError{}}
	result.Errors = append(result.Errors, problems...)

	for _, row := range rows {
		item, err := h.importRow(r, row)
		if err != nil {
			result.Errors = append(result.Errors, model.ImportError{Row: row.Line, Message: err.Error()})
			continue
		}
		result.Created = append(result.Created, *item)
	}
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Row < result.Errors[j].Row
	})

	if h.Metrics != nil {
		h.Metrics.ImportRows(len(result.Created), len(result.Errors))
	}
	slog.Info("items imported", "user", userEmail(r), "file", header.Filename,
		"created", len(result.Created), "errors", len(result.Errors))
	jsonResponse(w, http.StatusOK, result)
}

func (h *ItemsHandler) importRow(r *http.Request, row importer.Row) (*model.Item, error) {
	ownerID, err := h.resolveOwner(r.Context(), row.Owner)
	if errors.Is(err, errUnknownOwner) {
		return nil, fmt.Errorf("unknown owner %q", row.Owner)
	}
	if err != nil {
		slog.Error("failed to resolve owner", "row", row.Line, "error", err)
		return nil, errors.New("failed to resolve owner")
	}

	item, err := store.CreateItem(r.Context(), h.DB, store.ItemInput{
		Name:          row.Name,
		Category:      row.Category,
		SerialNumber1: row.SerialNumber1,
		SerialNumber2: optional(row.SerialNumber2),
		SerialNumber3: optional(row.SerialNumber3),
		OwnerID:       ownerID,
		Location:      row.Location,
	})
	if err != nil {
		slog.Error("failed to import row", "row", row.Line, "error", err)
		return nil, errors.New("failed to create item")
	}
	return item, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

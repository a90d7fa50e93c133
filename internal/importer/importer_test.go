package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := "\xef\xbb\xbfName,Category,Serial Number,serial_number_2,Owner,Location\n" +
		"ThinkPad X1,Laptop,SN-1,,jane.doe@example.com,HQ\n" +
		",,,,,\n" +
		"Dell U2720Q,Monitor,,SN-9,,Remote\n" +
		"Pixel 8,Phone,SN-3,SN-4,,\n"

	rows, problems, err := Parse("items.csv", strings.NewReader(data))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "ThinkPad X1", rows[0].Name)
	assert.Equal(t, "SN-1", rows[0].SerialNumber1)
	assert.Equal(t, "jane.doe@example.com", rows[0].Owner)
	assert.Equal(t, "HQ", rows[0].Location)
	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "SN-4", rows[1].SerialNumber2)

	require.Len(t, problems, 1)
	assert.Equal(t, 4, problems[0].Row)
	assert.Contains(t, problems[0].Message, "serial_number_1")
}

func TestParseMissingColumns(t *testing.T) {
	_, _, err := Parse("items.csv", strings.NewReader("name,location\nx,y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
	assert.Contains(t, err.Error(), "serial_number_1")
}

func TestParseEmptyFile(t *testing.T) {
	_, _, err := Parse("items.csv", strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"name", "category", "serial_number_1", "owner"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"MacBook Air", "Laptop", "C02XYZ", "john.smith@example.com"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"", "Monitor", "M-1"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, problems, err := Parse("Items.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MacBook Air", rows[0].Name)
	assert.Equal(t, "john.smith@example.com", rows[0].Owner)
	require.Len(t, problems, 1)
	assert.Equal(t, 3, problems[0].Row)
}

func TestParseXLSAsText(t *testing.T) {
	rows, _, err := Parse("legacy.xls", strings.NewReader("name,category,serial_number_1\nHub,Dock,D-1\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dock", rows[0].Category)
}

func TestParseUnsupported(t *testing.T) {
	_, _, err := Parse("items.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, _, err = Parse("binary.xls", bytes.NewReader([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1, 0x00}))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"csv", "a.csv", "text/csv", 10, false},
		{"csv with charset", "a.csv", "text/csv; charset=utf-8", 10, false},
		{"xlsx", "a.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", 10, false},
		{"xls", "a.xls", "application/vnd.ms-excel", 10, false},
		{"no content type", "a.csv", "", 10, false},
		{"octet stream", "a.xlsx", "application/octet-stream", 10, false},
		{"at limit", "a.csv", "text/csv", MaxFileSize, false},
		{"too large", "a.csv", "text/csv", MaxFileSize + 1, true},
		{"bad extension", "a.pdf", "text/csv", 10, true},
		{"bad mime", "a.csv", "application/pdf", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUpload(tt.filename, tt.contentType, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckUploadSizeMessage(t *testing.T) {
	err := CheckUpload("a.csv", "text/csv", 6<<20)
	require.Error(t, err)
	assert.Equal(t, "file is 6.0 MiB, the limit is 5.0 MiB", err.Error())
}

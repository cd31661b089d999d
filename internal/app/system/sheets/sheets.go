// Package sheets turns an uploaded spreadsheet (.xlsx or .csv) into rows
// keyed by the header cell text. The first non-empty row is the header.
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Upload limits.
const (
	MaxUploadSize = 10 << 20 // 10 MB
	MaxRows       = 20000
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format (use .xlsx or .csv)")

// ErrTooManyRows is returned when a sheet exceeds MaxRows data rows.
var ErrTooManyRows = fmt.Errorf("spreadsheet has more than %d rows", MaxRows)

// Row is one data row: header text → cell text. Empty cells are omitted.
type Row = map[string]string

// Read parses r according to the extension of filename.
func Read(r io.Reader, filename string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	}
	return nil, ErrUnsupportedFormat
}

// ReadXLSX reads the first worksheet. Cells are read raw, so dates stay as
// serial numbers for the ingestion normalizer.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return []Row{}, nil
	}
	records, err := f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", names[0], err)
	}
	return toRows(records)
}

// ReadCSV reads comma-separated text. A UTF-8 BOM is ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	return toRows(records)
}

func toRows(records [][]string) ([]Row, error) {
	rows := []Row{}
	var header []string
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		if header == nil {
			header = make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}
		if len(rows) == MaxRows {
			return nil, ErrTooManyRows
		}
		row := make(Row, len(rec))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Package statement turns bank and Easypay export files into the header-keyed
// rows the transaction importer consumes. Cell values are returned verbatim as
// strings; normalization happens in the importer.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("statement: unsupported file type (expected .csv or .xlsx)")
	ErrNoHeader          = errors.New("statement: file has no header row")
)

// Parse picks the parser from the file name's extension.
func Parse(fileName string, r io.Reader) ([]map[string]any, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseCSV reads a comma separated export. Ragged rows are allowed: missing
// trailing cells are simply absent from the row map.
func ParseCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("statement: read csv: %w", err)
	}
	return toRows(records)
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("statement: open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("statement: read sheet %q: %w", sheet, err)
	}
	return toRows(records)
}

// toRows keys every record by the header row. Blank lines are dropped so the
// importer's row numbers match the data lines of the file.
func toRows(records [][]string) ([]map[string]any, error) {
	start := -1
	for i, rec := range records {
		if !isBlank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[start]))
	for i, h := range records[start] {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]any, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if isBlank(rec) {
			continue
		}
		row := make(map[string]any, len(header))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

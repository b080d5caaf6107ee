package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when a file's extension maps to neither a
// workbook nor a delimited-text reader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoDataRows is returned when a file is empty, without even a header row.
var ErrNoDataRows = errors.New("file has no rows")

// ReadOptions controls how source files are decoded.
type ReadOptions struct {
	// Sheet is the workbook sheet to read; empty means the first sheet.
	Sheet string
	// Delimiter is the field separator for delimited text; zero means comma.
	Delimiter rune
}

// ReadRows decodes the named file into raw rows keyed by header. Workbook
// formats (.xlsx, .xlsm) go through excelize with raw cell values so date
// serials survive as numbers; .csv, .tsv and .txt go through encoding/csv.
func ReadRows(filename string, r io.Reader, opts ReadOptions) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(r, opts.Sheet)
	case ".tsv":
		return ReadDelimited(r, '\t')
	case ".csv", ".txt":
		delim := opts.Delimiter
		if delim == 0 {
			delim = ','
		}
		return ReadDelimited(r, delim)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadWorkbook reads one sheet of an XLSX workbook into raw rows. The first
// row is the header; later rows map header name to raw cell text, so numeric
// cells (including date serials) arrive as numeric strings.
func ReadWorkbook(r io.Reader, sheet string) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rowsFromTable(rows)
}

// ReadDelimited reads delimited text (CSV and friends) into raw rows. A UTF-8
// BOM on the first header cell is stripped.
func ReadDelimited(r io.Reader, delimiter rune) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited text: %w", err)
	}
	return rowsFromTable(table)
}

// rowsFromTable converts a header-plus-data string table into raw rows.
// Cells beyond a short row are simply absent; fully empty rows are dropped.
func rowsFromTable(table [][]string) ([]RawRow, error) {
	if len(table) == 0 {
		return nil, ErrNoDataRows
	}

	header := make([]string, len(table[0]))
	copy(header, table[0])
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]RawRow, 0, len(table)-1)
	for _, cells := range table[1:] {
		row := make(RawRow, len(header))
		empty := true
		for i, cell := range cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if strings.TrimSpace(cell) == "" {
				continue
			}
			row[header[i]] = cell
			empty = false
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	// Zero data rows is a valid (empty) dataset, not an error.
	return rows, nil
}

// Package sheet reads and writes the spreadsheets handled by the cleanser.
//
// Two formats are accepted: .xlsx through excelize and legacy .xls, whose
// cell records are scanned directly with shared strings resolved by
// extrame/xls. Only the first worksheet is read, and its first row is the
// header. Output is always .xlsx.
package sheet

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thauanfonseca/HDA/internal/core"
)

// Sheet name used for exported workbooks.
const ExportSheet = "Higienizado"

// ExportPrefix is prepended to the input name for downloads.
const ExportPrefix = "higienizado_"

// Format identifies a supported spreadsheet format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatXLS
)

// DetectFormat picks the format from the file extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	default:
		return FormatUnknown
	}
}

// Codec implements core.TableCodec.
type Codec struct{}

var _ core.TableCodec = Codec{}

// Decode reads the first worksheet of an .xlsx or .xls file.
func (Codec) Decode(filename string, data []byte) (core.Table, error) {
	return Decode(filename, data)
}

// Headers reads only the header row.
func (Codec) Headers(filename string, data []byte) ([]string, error) {
	return Headers(filename, data)
}

// Encode writes a classified table as .xlsx.
func (Codec) Encode(t core.ClassifiedTable) ([]byte, error) {
	return Encode(t)
}

// ExportName returns the download name for a classified upload.
func (Codec) ExportName(filename string) string {
	return ExportName(filename)
}

// Decode reads the first worksheet of an .xlsx or .xls file into a table.
func Decode(filename string, data []byte) (core.Table, error) {
	if len(data) == 0 {
		return core.Table{}, core.ErrEmptyFile
	}

	var (
		grid [][]any
		err  error
	)
	switch DetectFormat(filename) {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	default:
		return core.Table{}, &core.UnsupportedFormatError{Filename: filename}
	}
	if err != nil {
		return core.Table{}, &core.FileReadError{Filename: filename, Cause: err}
	}
	return buildTable(grid), nil
}

// Headers returns the normalized header row of an .xlsx or .xls file.
func Headers(filename string, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, core.ErrEmptyFile
	}

	var (
		header []any
		err    error
	)
	switch DetectFormat(filename) {
	case FormatXLSX:
		header, err = readXLSXHeader(data)
	case FormatXLS:
		var grid [][]any
		grid, err = readXLS(data)
		if len(grid) > 0 {
			header = grid[0]
		}
	default:
		return nil, &core.UnsupportedFormatError{Filename: filename}
	}
	if err != nil {
		return nil, &core.FileReadError{Filename: filename, Cause: err}
	}
	return normalizeHeaders(header, len(header)), nil
}

// ExportName turns "divida.xls" into "higienizado_divida.xlsx".
func ExportName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "planilha"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "planilha"
	}
	return ExportPrefix + stem + ".xlsx"
}

// buildTable turns a raw grid into a table. Fully empty data rows are
// dropped and rows wider than the header get generated column names.
func buildTable(grid [][]any) core.Table {
	if len(grid) == 0 {
		return core.Table{}
	}

	width := len(grid[0])
	for _, rec := range grid[1:] {
		if len(rec) > width {
			width = len(rec)
		}
	}
	columns := normalizeHeaders(grid[0], width)

	rows := make([]core.Row, 0, len(grid)-1)
	for _, rec := range grid[1:] {
		if emptyRecord(rec) {
			continue
		}
		r := make(core.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				r[col] = rec[i]
			} else {
				r[col] = nil
			}
		}
		rows = append(rows, r)
	}
	return core.Table{Columns: columns, Rows: rows}
}

// normalizeHeaders renders header cells as names. Blank names become
// Coluna_N (1-based) and repeats get a _2, _3... suffix.
func normalizeHeaders(header []any, width int) []string {
	out := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		var name string
		if i < len(header) {
			name = strings.TrimSpace(core.CellText(header[i]))
		}
		if name == "" {
			name = "Coluna_" + strconv.Itoa(i+1)
		}
		if n := seen[name]; n > 0 {
			candidate := fmt.Sprintf("%s_%d", name, n+1)
			for seen[candidate] > 0 {
				n++
				candidate = fmt.Sprintf("%s_%d", name, n+1)
			}
			seen[name] = n + 1
			name = candidate
		}
		seen[name]++
		out[i] = name
	}
	return out
}

func emptyRecord(rec []any) bool {
	for _, v := range rec {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}

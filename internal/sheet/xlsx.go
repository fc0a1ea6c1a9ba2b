package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/thauanfonseca/HDA/internal/core"
)

var errNoSheet = errors.New("workbook has no worksheets")

// xlsxReader types raw cell values using cell types and number formats.
type xlsxReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func openXLSX(data []byte) (*xlsxReader, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errNoSheet
	}
	r := &xlsxReader{
		f:          f,
		sheet:      sheets[0],
		dateStyles: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r, nil
}

func (r *xlsxReader) Close() error {
	return r.f.Close()
}

func readXLSX(data []byte) ([][]any, error) {
	r, err := openXLSX(data)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := r.f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	grid := make([][]any, len(raw))
	for i, rec := range raw {
		out := make([]any, len(rec))
		for j, v := range rec {
			out[j] = r.value(j+1, i+1, v)
		}
		grid[i] = out
	}
	return grid, nil
}

func readXLSXHeader(data []byte) ([]any, error) {
	r, err := openXLSX(data)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows, err := r.f.Rows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Error()
	}
	rec, err := rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	out := make([]any, len(rec))
	for j, v := range rec {
		out[j] = r.value(j+1, 1, v)
	}
	return out, nil
}

// value converts the raw text of cell (col, row) to nil, bool, float64,
// time.Time or string.
func (r *xlsxReader) value(col, row int, raw string) any {
	if raw == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := r.f.GetCellType(r.sheet, cell)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return t
		}
		return raw
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		if r.isDateCell(cell) {
			if t, err := excelize.ExcelDateToTime(f, r.date1904); err == nil {
				return t
			}
		}
		return f
	default:
		return raw
	}
}

func (r *xlsxReader) isDateCell(cell string) bool {
	idx, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := r.dateStyles[idx]; ok {
		return v
	}
	st, err := r.f.GetStyle(idx)
	is := err == nil && st != nil && (builtinDateFormat(st.NumFmt) ||
		(st.CustomNumFmt != nil && customDateFormat(*st.CustomNumFmt)))
	r.dateStyles[idx] = is
	return is
}

// builtinDateFormat reports whether a built-in number format id shows a
// date or time.
func builtinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// customDateFormat reports whether a format code shows a date. Quoted
// literals, escapes and bracketed sections are ignored; a day or year
// token marks a date.
func customDateFormat(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, c := range code {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(c)
		}
	}
	s := strings.ToLower(b.String())
	return strings.ContainsAny(s, "dy")
}

// Encode writes a classified table to a single-sheet workbook. Dates are
// written as DD/MM/YYYY text.
func Encode(t core.ClassifiedTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(ExportSheet)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := range t.Rows {
		rec := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			rec[j] = exportValue(t.Value(i, col))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, rec); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func exportValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return core.CellText(t)
	case string, bool, float64, int64, int:
		return t
	default:
		return core.CellText(v)
	}
}

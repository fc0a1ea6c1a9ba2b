package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"
)

// readXLS reads the first worksheet of a legacy workbook. Numbers, dates and
// booleans come from the BIFF cell records with their XF number formats;
// shared strings are resolved by extrame/xls.
func readXLS(data []byte) (grid [][]any, err error) {
	// The decoders panic on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			grid, err = nil, fmt.Errorf("malformed xls: %v", p)
		}
	}()

	stream, err := workbookStream(data)
	if err != nil {
		return nil, err
	}
	book, err := scanBIFF(stream)
	if err != nil {
		return nil, err
	}

	var ws *xls.WorkSheet
	if book.hasShared() {
		if ws, err = sharedStringSheet(data); err != nil {
			return nil, err
		}
	}

	for _, c := range book.cells {
		var v any
		switch c.kind {
		case cellNumber:
			v = book.number(c)
		case cellBool:
			v = c.boolean
		case cellText:
			v = c.text
		case cellShared:
			// Every LABELSST cell also creates its row in extrame/xls.
			v = ws.Row(c.row).Col(c.col)
		}
		if s, ok := v.(string); ok && s == "" {
			v = nil
		}
		grid = place(grid, c.row, c.col, v)
	}

	for len(grid) > 0 && emptyRecord(grid[len(grid)-1]) {
		grid = grid[:len(grid)-1]
	}
	return grid, nil
}

// sharedStringSheet opens the first worksheet with extrame/xls, which owns
// the shared string table.
func sharedStringSheet(data []byte) (*xls.WorkSheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errNoSheet
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.New("first worksheet could not be read")
	}
	return ws, nil
}

// number converts a numeric cell, turning date-formatted serials into
// time.Time the same way the xlsx reader does.
func (b *biffBook) number(c biffCell) any {
	if b.isDate(c.xf) {
		if t, err := excelize.ExcelDateToTime(c.num, b.date1904); err == nil {
			return t
		}
	}
	return c.num
}

// place stores v at grid[row][col], growing the grid as needed.
func place(grid [][]any, row, col int, v any) [][]any {
	for len(grid) <= row {
		grid = append(grid, nil)
	}
	rec := grid[row]
	for len(rec) <= col {
		rec = append(rec, nil)
	}
	rec[col] = v
	grid[row] = rec
	return grid
}

// workbookStream extracts the BIFF stream from the compound file.
func workbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return nil, fmt.Errorf("read workbook stream: %w", err)
		}
		return buf, nil
	}
	return nil, errors.New("no workbook stream in file")
}

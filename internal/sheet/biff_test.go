package sheet

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// record encodes one BIFF record.
func record(id uint16, body ...[]byte) []byte {
	var data []byte
	for _, b := range body {
		data = append(data, b...)
	}
	out := binary.LittleEndian.AppendUint16(nil, id)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	return append(out, data...)
}

func u16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func f64(v float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}

// cellHead is the row, column and XF prefix shared by cell records.
func cellHead(row, col, xf uint16) []byte {
	return append(append(u16(row), u16(col)...), u16(xf)...)
}

// xlString encodes an 8-bit BIFF8 string with a 16-bit length.
func xlString(s string) []byte {
	return append(append(u16(uint16(len(s))), 0), s...)
}

func biffBOF(dt uint16) []byte {
	return record(recBOF, u16(biff8Version), u16(dt), make([]byte, 12))
}

func xfRecord(format uint16) []byte {
	return record(recXF, u16(0), u16(format), make([]byte, 16))
}

// testStream builds a workbook stream: globals with three XFs (general,
// built-in date, custom "dd/mm/yyyy"), then one sheet holding cells.
func testStream(date1904 bool, cells ...[]byte) []byte {
	mode := uint16(0)
	if date1904 {
		mode = 1
	}
	globals := func(sheetPos uint32) []byte {
		var g []byte
		g = append(g, biffBOF(0x0005)...)
		g = append(g, record(recDateMode, u16(mode))...)
		g = append(g, record(recFormat, u16(170), xlString("dd/mm/yyyy"))...)
		g = append(g, xfRecord(0)...)
		g = append(g, xfRecord(14)...)
		g = append(g, xfRecord(170)...)
		g = append(g, record(recBoundSheet, u32(sheetPos), []byte{0, 0, 1, 0, 'A'})...)
		return append(g, record(recEOF)...)
	}
	stream := globals(uint32(len(globals(0))))
	stream = append(stream, biffBOF(0x0010)...)
	for _, c := range cells {
		stream = append(stream, c...)
	}
	return append(stream, record(recEOF)...)
}

func TestDecodeRK(t *testing.T) {
	tests := []struct {
		rk   uint32
		want float64
	}{
		{1<<2 | 0x02, 1},
		{12345<<2 | 0x03, 123.45},
		{0xFFFFFFEC | 0x02, -5},
		{uint32(math.Float64bits(1.5) >> 32), 1.5},
		{uint32(math.Float64bits(43466) >> 32), 43466},
	}
	for _, tt := range tests {
		if got := decodeRK(tt.rk); got != tt.want {
			t.Errorf("decodeRK(%#x) = %v, want %v", tt.rk, got, tt.want)
		}
	}
}

func TestScanBIFF(t *testing.T) {
	mulrk := append(append(u16(1), u16(2)...),
		append(append(u16(1), u32(43466<<2|0x02)...), append(u16(0), u32(7<<2|0x02)...)...)...)
	mulrk = append(mulrk, u16(3)...)

	stream := testStream(false,
		record(recNumber, cellHead(0, 0, 0), f64(1234.56)),
		record(recRK, cellHead(0, 1, 2), u32(41640<<2|0x02)),
		record(recMulRK, mulrk),
		record(recLabel, cellHead(2, 0, 0), xlString("Maria")),
		record(recLabelSST, cellHead(2, 1, 0), u32(4)),
		record(recBoolErr, cellHead(2, 2, 0), []byte{1, 0}),
		// Error values are skipped.
		record(recBoolErr, cellHead(2, 3, 0), []byte{0x07, 1}),
		record(recFormula, cellHead(3, 0, 0), f64(49.9), make([]byte, 6)),
		record(recFormula, cellHead(3, 1, 0), []byte{0, 0, 0, 0, 0, 0, 0xFF, 0xFF}, make([]byte, 6)),
		record(recString, xlString("calculado")),
		// Cells of an embedded chart belong to the chart, not the sheet.
		biffBOF(0x0020),
		record(recNumber, cellHead(9, 9, 0), f64(99)),
		record(recEOF),
		record(recNumber, cellHead(4, 0, 0), f64(5)),
	)

	book, err := scanBIFF(stream)
	if err != nil {
		t.Fatalf("scanBIFF() error = %v", err)
	}

	type key struct{ row, col int }
	got := make(map[key]any)
	for _, c := range book.cells {
		switch c.kind {
		case cellNumber:
			got[key{c.row, c.col}] = book.number(c)
		case cellText:
			got[key{c.row, c.col}] = c.text
		case cellBool:
			got[key{c.row, c.col}] = c.boolean
		case cellShared:
			got[key{c.row, c.col}] = "shared"
		}
	}

	want := map[key]any{
		{0, 0}: 1234.56,
		{0, 1}: time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC),
		{1, 2}: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		{1, 3}: 7.0,
		{2, 0}: "Maria",
		{2, 1}: "shared",
		{2, 2}: true,
		{3, 0}: 49.9,
		{3, 1}: "calculado",
		{4, 0}: 5.0,
	}
	if len(got) != len(want) {
		t.Errorf("scanned %d cells, want %d: %v", len(got), len(want), got)
	}
	for k, w := range want {
		g, ok := got[k]
		if !ok {
			t.Errorf("cell %v missing", k)
			continue
		}
		if wt, isTime := w.(time.Time); isTime {
			if gt, ok := g.(time.Time); !ok || !gt.Equal(wt) {
				t.Errorf("cell %v = %T(%v), want %v", k, g, g, wt)
			}
			continue
		}
		if g != w {
			t.Errorf("cell %v = %T(%v), want %T(%v)", k, g, g, w, w)
		}
	}
}

func TestScanBIFF_Date1904(t *testing.T) {
	book, err := scanBIFF(testStream(true, record(recRK, cellHead(0, 0, 1), u32(100<<2|0x02))))
	if err != nil {
		t.Fatalf("scanBIFF() error = %v", err)
	}
	if len(book.cells) != 1 {
		t.Fatalf("len(cells) = %d, want 1", len(book.cells))
	}
	got, ok := book.number(book.cells[0]).(time.Time)
	want := time.Date(1904, time.April, 10, 0, 0, 0, 0, time.UTC)
	if !ok || !got.Equal(want) {
		t.Errorf("number() = %v, want %v", got, want)
	}
}

func TestScanBIFF_Errors(t *testing.T) {
	full := testStream(false, record(recNumber, cellHead(0, 0, 0), f64(1)))

	tests := []struct {
		name   string
		stream []byte
	}{
		{"empty", nil},
		{"not a BOF", record(recEOF)},
		{"truncated globals", full[:30]},
		{"truncated sheet", full[:len(full)-4]},
		{"no sheet", append(biffBOF(0x0005), record(recEOF)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := scanBIFF(tt.stream); err == nil {
				t.Error("scanBIFF() error = nil, want error")
			}
		})
	}
}

func TestBiffBook_IsDate(t *testing.T) {
	b := &biffBook{
		xfFormat: []uint16{0, 14, 22, 164, 165, 4},
		formats: map[uint16]string{
			164: `"R$"\ #,##0.00`,
			165: "dd/mm/yyyy",
		},
	}
	tests := []struct {
		xf   uint16
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{4, true},
		{5, false},
		{99, false},
	}
	for _, tt := range tests {
		if got := b.isDate(tt.xf); got != tt.want {
			t.Errorf("isDate(%d) = %v, want %v", tt.xf, got, tt.want)
		}
	}
}

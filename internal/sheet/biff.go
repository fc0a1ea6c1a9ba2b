package sheet

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// BIFF record ids read by the scanner.
const (
	recBOF        = 0x0809
	recEOF        = 0x000A
	recDateMode   = 0x0022
	recXF         = 0x00E0
	recFormat     = 0x041E
	recBoundSheet = 0x0085
	recNumber     = 0x0203
	recRK         = 0x027E
	recMulRK      = 0x00BD
	recFormula    = 0x0006
	recString     = 0x0207
	recLabel      = 0x0204
	recRString    = 0x00D6
	recLabelSST   = 0x00FD
	recBoolErr    = 0x0205
)

const biff8Version = 0x0600

var errNotBIFF = errors.New("workbook stream does not start with a BOF record")

type cellKind uint8

const (
	cellNumber cellKind = iota
	cellText
	cellBool
	// cellShared is a shared-string cell; its text is resolved elsewhere.
	cellShared
)

type biffCell struct {
	row, col int
	kind     cellKind
	xf       uint16
	num      float64
	text     string
	boolean  bool
}

// biffBook is what the scanner keeps from a workbook stream: number formats
// per XF, custom format codes, the date epoch and the cells of the first
// worksheet.
type biffBook struct {
	biff8    bool
	date1904 bool
	xfFormat []uint16
	formats  map[uint16]string
	cells    []biffCell
}

// scanBIFF walks the globals substream and the substream of the first
// worksheet.
func scanBIFF(stream []byte) (*biffBook, error) {
	id, body, next, ok := nextRecord(stream, 0)
	if !ok || id != recBOF || len(body) < 2 {
		return nil, errNotBIFF
	}
	b := &biffBook{
		biff8:   binary.LittleEndian.Uint16(body) == biff8Version,
		formats: make(map[uint16]string),
	}

	sheetPos := -1
	for off := next; ; off = next {
		id, body, next, ok = nextRecord(stream, off)
		if !ok {
			return nil, errors.New("workbook globals are truncated")
		}
		if id == recEOF {
			break
		}
		switch id {
		case recDateMode:
			b.date1904 = len(body) >= 2 && binary.LittleEndian.Uint16(body) == 1
		case recXF:
			if len(body) >= 4 {
				b.xfFormat = append(b.xfFormat, binary.LittleEndian.Uint16(body[2:]))
			}
		case recFormat:
			if len(body) >= 2 {
				b.formats[binary.LittleEndian.Uint16(body)] = b.formatCode(body[2:])
			}
		case recBoundSheet:
			if sheetPos < 0 && len(body) >= 4 {
				sheetPos = int(binary.LittleEndian.Uint32(body))
			}
		}
	}
	if sheetPos < 0 {
		return nil, errNoSheet
	}

	if err := b.scanSheet(stream, sheetPos); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *biffBook) scanSheet(stream []byte, pos int) error {
	depth := 0
	// A FORMULA with a text result is followed by a STRING record.
	pending := -1
	for off := pos; ; {
		id, body, next, ok := nextRecord(stream, off)
		if !ok {
			return errors.New("worksheet is truncated")
		}
		off = next

		switch id {
		case recBOF:
			depth++
			continue
		case recEOF:
			depth--
			if depth <= 0 {
				return nil
			}
			continue
		}
		// Embedded chart substreams.
		if depth != 1 {
			continue
		}

		switch id {
		case recNumber:
			if len(body) >= 14 {
				b.add(body, cellNumber, math.Float64frombits(binary.LittleEndian.Uint64(body[6:])))
			}
		case recRK:
			if len(body) >= 10 {
				b.add(body, cellNumber, decodeRK(binary.LittleEndian.Uint32(body[6:])))
			}
		case recMulRK:
			if len(body) < 6 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(body))
			first := int(binary.LittleEndian.Uint16(body[2:]))
			for i, p := 0, 4; p+6 <= len(body)-2; i, p = i+1, p+6 {
				b.cells = append(b.cells, biffCell{
					row:  row,
					col:  first + i,
					kind: cellNumber,
					xf:   binary.LittleEndian.Uint16(body[p:]),
					num:  decodeRK(binary.LittleEndian.Uint32(body[p+2:])),
				})
			}
		case recFormula:
			if len(body) < 14 {
				continue
			}
			pending = -1
			res := body[6:14]
			if res[6] != 0xFF || res[7] != 0xFF {
				b.add(body, cellNumber, math.Float64frombits(binary.LittleEndian.Uint64(res)))
				continue
			}
			switch res[0] {
			case 0:
				b.add(body, cellText, 0)
				pending = len(b.cells) - 1
			case 1:
				b.add(body, cellBool, 0)
				b.cells[len(b.cells)-1].boolean = res[2] != 0
			}
		case recString:
			if pending >= 0 {
				b.cells[pending].text = b.unicodeString(body, 2)
				pending = -1
			}
		case recLabel, recRString:
			if len(body) >= 8 {
				b.add(body, cellText, 0)
				b.cells[len(b.cells)-1].text = b.unicodeString(body[6:], 2)
			}
		case recLabelSST:
			if len(body) >= 10 {
				b.add(body, cellShared, 0)
			}
		case recBoolErr:
			if len(body) >= 8 && body[7] == 0 {
				b.add(body, cellBool, 0)
				b.cells[len(b.cells)-1].boolean = body[6] != 0
			}
		}
	}
}

// add appends a cell whose record starts with row, column and XF index.
func (b *biffBook) add(body []byte, kind cellKind, num float64) {
	b.cells = append(b.cells, biffCell{
		row:  int(binary.LittleEndian.Uint16(body)),
		col:  int(binary.LittleEndian.Uint16(body[2:])),
		kind: kind,
		xf:   binary.LittleEndian.Uint16(body[4:]),
		num:  num,
	})
}

func (b *biffBook) hasShared() bool {
	for _, c := range b.cells {
		if c.kind == cellShared {
			return true
		}
	}
	return false
}

// isDate reports whether the XF at index xf applies a date format.
func (b *biffBook) isDate(xf uint16) bool {
	if int(xf) >= len(b.xfFormat) {
		return false
	}
	id := b.xfFormat[xf]
	if builtinDateFormat(int(id)) {
		return true
	}
	code, ok := b.formats[id]
	return ok && customDateFormat(code)
}

func (b *biffBook) formatCode(body []byte) string {
	if b.biff8 {
		return b.unicodeString(body, 2)
	}
	return b.unicodeString(body, 1)
}

// unicodeString decodes a string whose character count takes lenSize
// bytes. BIFF8 strings carry an option byte selecting 8 or 16 bit
// characters; older streams store code page bytes.
func (b *biffBook) unicodeString(body []byte, lenSize int) string {
	if len(body) < lenSize {
		return ""
	}
	var n int
	if lenSize == 1 {
		n = int(body[0])
	} else {
		n = int(binary.LittleEndian.Uint16(body))
	}
	p := lenSize

	if !b.biff8 {
		end := min(p+n, len(body))
		s, _ := charmap.Windows1252.NewDecoder().Bytes(body[p:end])
		return string(s)
	}

	if p >= len(body) {
		return ""
	}
	flags := body[p]
	p++
	if flags&0x08 != 0 {
		p += 2
	}
	if flags&0x04 != 0 {
		p += 4
	}
	if p > len(body) {
		return ""
	}

	if flags&0x01 == 0 {
		end := min(p+n, len(body))
		s, _ := charmap.ISO8859_1.NewDecoder().Bytes(body[p:end])
		return string(s)
	}
	units := make([]uint16, 0, n)
	for i := 0; i < n && p+1 < len(body); i, p = i+1, p+2 {
		units = append(units, binary.LittleEndian.Uint16(body[p:]))
	}
	return string(utf16.Decode(units))
}

// nextRecord returns the record at off and the offset of the one after it.
func nextRecord(stream []byte, off int) (id uint16, body []byte, next int, ok bool) {
	if off < 0 || off+4 > len(stream) {
		return 0, nil, off, false
	}
	id = binary.LittleEndian.Uint16(stream[off:])
	n := int(binary.LittleEndian.Uint16(stream[off+2:]))
	start := off + 4
	if start+n > len(stream) {
		return 0, nil, off, false
	}
	return id, stream[start : start+n], start + n, true
}

// decodeRK expands the compressed RK number encoding.
func decodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

package core

// convert.go turns raw spreadsheet cells into the typed values the rules need.
//
// Municipal debt spreadsheets are typed by hand and mix locales:
//   - Brazilian amounts ("R$ 1.234,56") next to plain ones ("1234.56")
//   - day-first dates in several separators, or native date cells
//   - names and CPF/CNPJ numbers with arbitrary punctuation
//
// None of these functions fail. A malformed cell degrades to a null date,
// a zero amount or an empty string, and the incompleteness rule picks it up
// from there when it matters.

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"2-1-2006",
}

// DateFormat is the display format for dates in reasons and exports.
const DateFormat = "02/01/2006"

// ParseDate converts a cell to a calendar date.
// Returns an invalid pgtype.Date for nil, empty or unparseable input.
func ParseDate(v any) pgtype.Date {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return pgtype.Date{Valid: false}
		}
		return pgtype.Date{Time: dateOnly(t), Valid: true}
	case *time.Time:
		if t == nil {
			return pgtype.Date{Valid: false}
		}
		return ParseDate(*t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return pgtype.Date{Valid: false}
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return pgtype.Date{Time: parsed, Valid: true}
			}
		}
	}
	return pgtype.Date{Valid: false}
}

// ParseAmount converts a cell to a float.
// Text may carry "R$", whitespace and Brazilian separators. Returns 0 for
// nil or anything that does not parse to a finite number.
func ParseAmount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		return parseAmountText(n)
	}
	return 0
}

func parseAmountText(s string) float64 {
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	hasComma := strings.Contains(s, ",")
	switch {
	case hasComma && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

// NormalizeName upper-cases the cell's text form. Nil or empty gives "".
func NormalizeName(v any) string {
	s := CellText(v)
	if s == "" {
		return ""
	}
	return upper(s)
}

// NormalizeDocument keeps only the decimal digits of the cell's text form.
func NormalizeDocument(v any) string {
	s := CellText(v)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CellText renders a cell as text. Nil gives "". Integral floats render
// without a fractional part so numeric document cells keep their digits.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case time.Time:
		if t.IsZero() {
			return ""
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(DateFormat)
		}
		return t.Format(DateFormat + " 15:04:05")
	case pgtype.Date:
		if !t.Valid {
			return ""
		}
		return t.Time.Format(DateFormat)
	case interface{ String() string }:
		return t.String()
	}
	return ""
}

// upper applies Portuguese upper-casing. A Caser is stateful, so a fresh
// one is built per call.
func upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(s)
}

// dateOnly drops the time of day, keeping the calendar date of t in its
// own location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

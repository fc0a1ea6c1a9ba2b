package core

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		wantYear  int
		wantMonth time.Month
		wantDay   int
	}{
		// Valid: day-first with slashes
		{
			name:      "DD/MM/YYYY",
			input:     "15/01/2019",
			wantValid: true,
			wantYear:  2019,
			wantMonth: time.January,
			wantDay:   15,
		},
		{
			name:      "D/M/YYYY without padding",
			input:     "5/3/2020",
			wantValid: true,
			wantYear:  2020,
			wantMonth: time.March,
			wantDay:   5,
		},
		{
			name:      "surrounding whitespace",
			input:     "  31/12/2023 ",
			wantValid: true,
			wantYear:  2023,
			wantMonth: time.December,
			wantDay:   31,
		},

		// Valid: ISO
		{
			name:      "YYYY-MM-DD",
			input:     "2024-02-29",
			wantValid: true,
			wantYear:  2024,
			wantMonth: time.February,
			wantDay:   29,
		},

		// Valid: day-first with dashes
		{
			name:      "DD-MM-YYYY",
			input:     "01-06-2018",
			wantValid: true,
			wantYear:  2018,
			wantMonth: time.June,
			wantDay:   1,
		},

		// Valid: native dates
		{
			name:      "native date keeps calendar day",
			input:     time.Date(2021, time.July, 4, 18, 30, 0, 0, time.UTC),
			wantValid: true,
			wantYear:  2021,
			wantMonth: time.July,
			wantDay:   4,
		},

		// Invalid
		{name: "nil", input: nil},
		{name: "empty string", input: ""},
		{name: "whitespace", input: "   "},
		{name: "garbage", input: "not a date"},
		{name: "impossible day", input: "31/02/2020"},
		{name: "month-first ambiguity rejected", input: "12/31/2020"},
		{name: "zero time", input: time.Time{}},
		{name: "number", input: 43831.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseDate(tt.input)

			if result.Valid != tt.wantValid {
				t.Errorf("ParseDate(%v).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
				return
			}

			if tt.wantValid {
				if result.Time.Year() != tt.wantYear {
					t.Errorf("ParseDate(%v).Year = %d, want %d", tt.input, result.Time.Year(), tt.wantYear)
				}
				if result.Time.Month() != tt.wantMonth {
					t.Errorf("ParseDate(%v).Month = %v, want %v", tt.input, result.Time.Month(), tt.wantMonth)
				}
				if result.Time.Day() != tt.wantDay {
					t.Errorf("ParseDate(%v).Day = %d, want %d", tt.input, result.Time.Day(), tt.wantDay)
				}
				if h := result.Time.Hour(); h != 0 {
					t.Errorf("ParseDate(%v).Hour = %d, want 0", tt.input, h)
				}
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseAmount Tests
// ----------------------------------------------------------------------------

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"brazilian with symbol", "R$ 1.234,56", 1234.56},
		{"brazilian without symbol", "1.234,56", 1234.56},
		{"comma decimal only", "1234,5", 1234.5},
		{"dot decimal", "1234.56", 1234.56},
		{"plain integer", "30", 30},
		{"symbol no space", "R$50,00", 50},
		{"non-breaking space", "R$\u00a01.000,00", 1000},
		{"negative", "-10,5", -10.5},
		{"float passthrough", 42.5, 42.5},
		{"int", 7, 7},
		{"int64", int64(1500), 1500},
		{"nil", nil, 0},
		{"empty string", "", 0},
		{"garbage", "abc", 0},
		{"NaN float", math.NaN(), 0},
		{"Inf text", "Inf", 0},
		{"bool true", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.input)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseAmount(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Normalization Tests
// ----------------------------------------------------------------------------

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{"Prefeitura Municipal", "PREFEITURA MUNICIPAL"},
		{"união federal", "UNIÃO FEDERAL"},
		{"fundação são josé", "FUNDAÇÃO SÃO JOSÉ"},
		{nil, ""},
		{"", ""},
		{12.0, "12"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeDocument(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{"123.456.789-00", "12345678900"},
		{"12.345.678/0001-90", "12345678000190"},
		{"---", ""},
		{nil, ""},
		{12345678900.0, "12345678900"},
		{int64(987), "987"},
	}

	for _, tt := range tests {
		if got := NormalizeDocument(tt.input); got != tt.want {
			t.Errorf("NormalizeDocument(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"integral float", 100.0, "100"},
		{"fractional float", 10.25, "10.25"},
		{"bool", false, "False"},
		{"midnight date", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), "01/03/2020"},
		{"date with time", time.Date(2020, 3, 1, 9, 5, 7, 0, time.UTC), "01/03/2020 09:05:07"},
		{"pgtype date", pgtype.Date{Time: time.Date(2019, 12, 25, 0, 0, 0, 0, time.UTC), Valid: true}, "25/12/2019"},
		{"null pgtype date", pgtype.Date{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellText(tt.input); got != tt.want {
				t.Errorf("CellText(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

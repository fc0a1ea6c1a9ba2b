package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "missing columns",
			err:      &MissingColumnsError{Missing: []string{"Valor"}},
			wantCode: "COL001",
		},
		{
			name:     "wrapped missing columns",
			err:      fmt.Errorf("classify: %w", &MissingColumnsError{Missing: []string{"Valor"}}),
			wantCode: "COL001",
		},
		{
			name:     "invalid config",
			err:      &InvalidConfigError{Problems: []string{"prescription.years (-1) must be >= 0"}},
			wantCode: "CFG001",
		},
		{
			name:     "unsupported format",
			err:      &UnsupportedFormatError{Filename: "data.csv"},
			wantCode: "FILE002",
		},
		{
			name:     "unreadable file",
			err:      &FileReadError{Filename: "a.xlsx", Cause: errors.New("zip: not a valid zip file")},
			wantCode: "FILE003",
		},
		{
			name:     "empty file",
			err:      ErrEmptyFile,
			wantCode: "FILE005",
		},
		{
			name:     "busy",
			err:      ErrTooManyJobs,
			wantCode: "JOB001",
		},
		{
			name:     "file too large by pattern",
			err:      errors.New("http: request body too large: file too large"),
			wantCode: "FILE001",
		},
		{
			name:     "no file by pattern",
			err:      errors.New("no file provided"),
			wantCode: "FILE004",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "REQ001",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("decode: %w", context.DeadlineExceeded),
			wantCode: "REQ002",
		},
		{
			name:     "rate limit",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("MISSING COLUMNS somewhere"),
			wantCode: "COL001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_NamesMissingColumns(t *testing.T) {
	got := MapError(&MissingColumnsError{Missing: []string{"Nome", "Valor"}})
	if !strings.HasSuffix(got.Message, ": Nome, Valor") {
		t.Errorf("MapError() message = %q, want it to list the columns", got.Message)
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyJobs)

	expected := "O sistema está processando outros arquivos (Code: JOB001). Aguarde alguns instantes e tente novamente"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrEmptyFile, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid config", &InvalidConfigError{}, http.StatusBadRequest},
		{"unsupported format", &UnsupportedFormatError{Filename: "x.csv"}, http.StatusBadRequest},
		{"empty file", ErrEmptyFile, http.StatusBadRequest},
		{"missing columns", &MissingColumnsError{Missing: []string{"a"}}, http.StatusUnprocessableEntity},
		{"unreadable", &FileReadError{Cause: errors.New("bad")}, http.StatusUnprocessableEntity},
		{"busy", fmt.Errorf("acquire: %w", ErrTooManyJobs), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrTooManyJobs is returned when every processing slot is busy and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyJobs = errors.New("too many concurrent jobs, please try again later")

// ErrEmptyFile is returned when an upload carries no bytes.
var ErrEmptyFile = errors.New("empty file")

// MissingColumnsError lists every required column absent from the table.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing columns in file: " + strings.Join(e.Missing, ", ")
}

// UnsupportedFormatError is returned for file extensions the spreadsheet
// codec cannot read.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: use .xlsx or .xls", e.Filename)
}

// InvalidConfigError is returned when the cleansing configuration does not
// decode or does not validate.
type InvalidConfigError struct {
	Problems []string
	Cause    error
}

func (e *InvalidConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if len(e.Problems) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Problems, "; "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Cause
}

// FileReadError wraps a failure to decode spreadsheet bytes.
type FileReadError struct {
	Filename string
	Cause    error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("error reading file %q: %v", e.Filename, e.Cause)
}

func (e *FileReadError) Unwrap() error {
	return e.Cause
}

// StatusCode maps an error to the HTTP status the shell should answer with.
func StatusCode(err error) int {
	var (
		missing     *MissingColumnsError
		unsupported *UnsupportedFormatError
		invalid     *InvalidConfigError
		unreadable  *FileReadError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &invalid), errors.As(err, &unsupported), errors.Is(err, ErrEmptyFile):
		return http.StatusBadRequest
	case errors.As(err, &missing), errors.As(err, &unreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTooManyJobs):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

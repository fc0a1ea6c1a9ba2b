package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/thauanfonseca/HDA/internal/logging"
)

const (
	formFile   = "file"
	formConfig = "config"

	// multipartMemory is how much of a form is kept in memory; the rest
	// spills to temporary files.
	multipartMemory = 32 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// upload is a spreadsheet posted as multipart/form-data.
type upload struct {
	filename string
	data     []byte
	config   []byte
}

// readUpload parses the multipart form and reads the file field. The
// config field is read as-is; decoding it is the service's job.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	// Limit request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errFileSize, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile(formFile)
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &upload{
		filename: header.Filename,
		data:     data,
		config:   []byte(r.FormValue(formConfig)),
	}, nil
}

// handleIndex reports that the API is up.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "HDA API is running"})
}

// handleHealth returns liveness plus the job limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.service.Limiter().Status(),
	})
}

// handleDefaults returns the rule defaults a request config is overlaid on,
// so the UI can prefill its form.
func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.DefaultRules())
}

// handleAnalyzeHeaders returns the header row of an uploaded spreadsheet.
func (s *Server) handleAnalyzeHeaders(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	cols, err := s.service.AnalyzeHeaders(ctx, up.filename, up.data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"columns": cols})
}

// handleProcess classifies the upload and returns the summary and a
// preview of the first rows.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Process(ctx, up.filename, up.data, up.config)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("X-Run-ID", result.RunID)
	writeJSON(w, http.StatusOK, result)
}

// handleExport classifies the upload and streams back the full workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Export(ctx, up.filename, up.data, up.config)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	h := w.Header()
	h.Set("Content-Type", xlsxContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(result.Data)))
	h.Set("X-Run-ID", result.RunID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}

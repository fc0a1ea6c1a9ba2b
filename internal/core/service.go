package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/thauanfonseca/HDA/internal/logging"
)

// DefaultPreviewRows is how many classified rows Process returns.
const DefaultPreviewRows = 100

// DefaultJobTimeout bounds one decode, classify and encode cycle.
const DefaultJobTimeout = 5 * time.Minute

// TableCodec reads and writes spreadsheets.
type TableCodec interface {
	Decode(filename string, data []byte) (Table, error)
	Headers(filename string, data []byte) ([]string, error)
	Encode(t ClassifiedTable) ([]byte, error)
	ExportName(filename string) string
}

// Recorder receives job metrics.
type Recorder interface {
	ObserveJob(op, outcome string, elapsed time.Duration)
	AddRows(s Summary)
}

type nopRecorder struct{}

func (nopRecorder) ObserveJob(string, string, time.Duration) {}
func (nopRecorder) AddRows(Summary)                          {}

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	Engine      *Engine
	Limiter     *JobLimiter
	Recorder    Recorder
	PreviewRows int
	JobTimeout  time.Duration
}

// Service runs classification jobs for the HTTP and CLI shells.
type Service struct {
	codec       TableCodec
	decoder     *ConfigDecoder
	engine      *Engine
	limiter     *JobLimiter
	recorder    Recorder
	previewRows int
	jobTimeout  time.Duration
}

// NewService creates a Service.
func NewService(codec TableCodec, decoder *ConfigDecoder, opts ServiceOptions) *Service {
	s := &Service{
		codec:       codec,
		decoder:     decoder,
		engine:      opts.Engine,
		limiter:     opts.Limiter,
		recorder:    opts.Recorder,
		previewRows: opts.PreviewRows,
		jobTimeout:  opts.JobTimeout,
	}
	if s.engine == nil {
		s.engine = NewEngine()
	}
	if s.limiter == nil {
		s.limiter = NewJobLimiter(DefaultMaxConcurrentJobs, DefaultMaxWaitTime)
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.previewRows <= 0 {
		s.previewRows = DefaultPreviewRows
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = DefaultJobTimeout
	}
	return s
}

// Limiter exposes the job limiter for shutdown draining and health output.
func (s *Service) Limiter() *JobLimiter {
	return s.limiter
}

// DefaultRules returns the rules a request config is overlaid on.
func (s *Service) DefaultRules() RuleConfig {
	return s.decoder.Defaults()
}

// AnalyzeHeaders returns the header row of an uploaded spreadsheet.
func (s *Service) AnalyzeHeaders(ctx context.Context, filename string, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	start := time.Now()
	cols, err := s.codec.Headers(filename, data)
	if err != nil {
		s.recorder.ObserveJob("headers", "error", time.Since(start))
		return nil, err
	}
	s.recorder.ObserveJob("headers", "ok", time.Since(start))
	logging.FromContext(ctx).Debug("headers.ok", "file", filename, "columns", len(cols))
	return cols, nil
}

// ProcessResult is the response of Process.
type ProcessResult struct {
	RunID   string           `json:"run_id"`
	Summary Summary          `json:"summary"`
	Columns []string         `json:"columns"`
	Preview []map[string]any `json:"preview"`
}

// Process classifies an uploaded spreadsheet and returns the summary plus
// a preview of the first rows.
func (s *Service) Process(ctx context.Context, filename string, data []byte, configJSON []byte) (*ProcessResult, error) {
	runID, res, err := s.run(ctx, "process", filename, data, configJSON)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{
		RunID:   runID,
		Summary: res.Summary,
		Columns: res.Table.Columns,
		Preview: Preview(res.Table, s.previewRows),
	}, nil
}

// ExportResult is a classified workbook ready for download.
type ExportResult struct {
	RunID    string
	Filename string
	Data     []byte
	Summary  Summary
}

// Export classifies an uploaded spreadsheet and encodes the full result.
// Nothing is kept between Process and Export; the file is classified again.
func (s *Service) Export(ctx context.Context, filename string, data []byte, configJSON []byte) (*ExportResult, error) {
	runID, res, err := s.run(ctx, "export", filename, data, configJSON)
	if err != nil {
		return nil, err
	}
	out, err := s.codec.Encode(res.Table)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &ExportResult{
		RunID:    runID,
		Filename: s.codec.ExportName(filename),
		Data:     out,
		Summary:  res.Summary,
	}, nil
}

// run decodes config and file, then classifies under a job slot.
func (s *Service) run(ctx context.Context, op, filename string, data, configJSON []byte) (string, *Result, error) {
	runID := uuid.New().String()
	ctx = ContextWithRunID(ctx, runID)
	log := logging.WithFields(ctx, "run_id", runID, "op", op, "file", filename)

	start := time.Now()
	res, err := s.classify(ctx, filename, data, configJSON)
	elapsed := time.Since(start)
	if err != nil {
		s.recorder.ObserveJob(op, outcome(err), elapsed)
		log.Warn("classify.failed", "error", err, "ms", elapsed.Milliseconds())
		return "", nil, err
	}

	s.recorder.ObserveJob(op, "ok", elapsed)
	s.recorder.AddRows(res.Summary)
	log.Info("classify.ok",
		"client_ip", ClientIPFromContext(ctx),
		"rows", res.Summary.TotalRecords,
		"valid", res.Summary.ValidCount,
		"prescribed", res.Summary.PrescribedCount,
		"immune", res.Summary.ImmuneCount,
		"exempt", res.Summary.ExemptCount,
		"incomplete", res.Summary.IncompleteCount,
		"ms", elapsed.Milliseconds(),
	)
	return runID, res, nil
}

func (s *Service) classify(ctx context.Context, filename string, data, configJSON []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	cfg, err := s.decoder.Decode(configJSON)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	table, err := s.codec.Decode(filename, data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.engine.Classify(table, cfg)
}

// outcome labels a failed job for metrics.
func outcome(err error) string {
	switch StatusCode(err) {
	case 400, 422:
		return "rejected"
	case 503:
		return "busy"
	default:
		return "error"
	}
}

// Preview renders the first n classified rows as JSON-friendly maps. Empty
// cells become "" and dates are shown as DD/MM/YYYY.
func Preview(t ClassifiedTable, n int) []map[string]any {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		m := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			m[col] = previewValue(t.Value(i, col))
		}
		out[i] = m
	}
	return out
}

func previewValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool, int64:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return t
	default:
		return CellText(v)
	}
}

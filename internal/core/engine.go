package core

import (
	"log/slog"
	"time"
)

// Engine classifies whole tables. It holds no per-call state, so one Engine
// serves concurrent callers.
type Engine struct {
	now    func() time.Time
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the source of "today" for prescription cutoffs.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used for per-run debug output.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine using the wall clock and the default logger.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify validates cfg, resolves the mapping against table and classifies
// every row. Either every row gets a terminal status or an error is returned
// before any row is looked at. table is never modified.
func (e *Engine) Classify(table Table, cfg CleansingConfig) (*Result, error) {
	rules, err := Compile(cfg.RuleConfig, e.now())
	if err != nil {
		return nil, err
	}
	cols, err := ResolveColumns(table.Columns, cfg.Mapping)
	if err != nil {
		return nil, err
	}

	out := ClassifiedTable{
		Columns: outputColumns(table.Columns),
		Rows:    make([]ClassifiedRow, len(table.Rows)),
	}
	for i, r := range table.Rows {
		out.Rows[i] = rules.Classify(r, cols)
	}

	summary := Summarize(out, cols.Amount)

	e.logger.Debug("classify.done",
		"rows", summary.TotalRecords,
		"valid", summary.ValidCount,
		"prescribed", summary.PrescribedCount,
		"immune", summary.ImmuneCount,
		"exempt", summary.ExemptCount,
		"incomplete", summary.IncompleteCount,
	)

	return &Result{Table: out, Summary: summary}, nil
}

// outputColumns appends the status and reason columns unless the input
// already has them, in which case they keep their position.
func outputColumns(columns []string) []string {
	out := make([]string, 0, len(columns)+2)
	hasStatus, hasReason := false, false
	for _, c := range columns {
		switch c {
		case StatusColumn:
			hasStatus = true
		case ReasonColumn:
			hasReason = true
		}
		out = append(out, c)
	}
	if !hasStatus {
		out = append(out, StatusColumn)
	}
	if !hasReason {
		out = append(out, ReasonColumn)
	}
	return out
}

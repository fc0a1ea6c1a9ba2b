package core

import (
	"encoding/json"
	"fmt"
)

// Output column names appended to every classified table.
const (
	StatusColumn = "Status_Higienizacao"
	ReasonColumn = "Motivo_Higienizacao"
)

// Status is the disposition of a single row.
type Status int

const (
	StatusValid Status = iota
	StatusPrescribed
	StatusImmune
	StatusExempt
	StatusIncomplete
)

// Statuses lists every status in rule order, Valid first.
var Statuses = []Status{StatusValid, StatusPrescribed, StatusImmune, StatusExempt, StatusIncomplete}

// String returns the label written to the status column.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "Válido"
	case StatusPrescribed:
		return "Prescrito"
	case StatusImmune:
		return "Imune"
	case StatusExempt:
		return "Isento"
	case StatusIncomplete:
		return "Dados Incompletos"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Key returns a stable ASCII identifier, used for metric labels.
func (s Status) Key() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusPrescribed:
		return "prescribed"
	case StatusImmune:
		return "immune"
	case StatusExempt:
		return "exempt"
	case StatusIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its label.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Row is one record of the input table. Values are nil, string, float64,
// int64, bool or time.Time.
type Row map[string]any

// Table is a loaded spreadsheet: ordered column names plus rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// ClassifiedRow is an input row together with its derived status and reason.
// Row is shared with the input table and must not be modified.
type ClassifiedRow struct {
	Row    Row
	Status Status
	Reason string
}

// ClassifiedTable is the engine output. Columns holds the original columns
// followed by StatusColumn and ReasonColumn.
type ClassifiedTable struct {
	Columns []string
	Rows    []ClassifiedRow
}

// Value returns the cell at row i for column col, including the two derived
// columns.
func (t ClassifiedTable) Value(i int, col string) any {
	r := t.Rows[i]
	switch col {
	case StatusColumn:
		return r.Status.String()
	case ReasonColumn:
		return r.Reason
	default:
		return r.Row[col]
	}
}

// Summary is the aggregate over a classified table.
type Summary struct {
	TotalRecords       int     `json:"total_records"`
	ProcessedRecords   int     `json:"processed_records"`
	PrescribedCount    int     `json:"prescribed_count"`
	ImmuneCount        int     `json:"immune_count"`
	ExemptCount        int     `json:"exempt_count"`
	IncompleteCount    int     `json:"incomplete_count"`
	ValidCount         int     `json:"valid_count"`
	TotalAmountRemoved float64 `json:"total_amount_removed"`
	TotalAmountValid   float64 `json:"total_amount_valid"`
}

// Count returns the number of rows with the given status.
func (s Summary) Count(st Status) int {
	switch st {
	case StatusValid:
		return s.ValidCount
	case StatusPrescribed:
		return s.PrescribedCount
	case StatusImmune:
		return s.ImmuneCount
	case StatusExempt:
		return s.ExemptCount
	case StatusIncomplete:
		return s.IncompleteCount
	default:
		return 0
	}
}

// Result bundles the two engine outputs.
type Result struct {
	Table   ClassifiedTable
	Summary Summary
}

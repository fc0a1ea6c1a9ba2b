package core

// validation.go resolves the declared column mapping against a table header.
//
// Required fields (debt id, taxpayer name, due date, amount) must resolve to
// a column or the whole call fails with a MissingColumnsError naming every
// unresolved field. Optional fields (CPF/CNPJ, tribute type) that do not
// resolve are treated as not provided.

import (
	"strings"
)

// HeaderIndex maps trimmed, lower-cased column names to the original name.
// Names that collide after folding map to "" and never match loosely.
type HeaderIndex map[string]string

// MakeHeaderIndex builds a HeaderIndex for case-insensitive lookups.
func MakeHeaderIndex(columns []string) HeaderIndex {
	idx := make(HeaderIndex, len(columns))
	for _, c := range columns {
		key := foldHeader(c)
		if _, dup := idx[key]; dup {
			idx[key] = ""
			continue
		}
		idx[key] = c
	}
	return idx
}

// Lookup returns the original column name for name. An exact match wins;
// otherwise a unique case-insensitive match is accepted.
func (h HeaderIndex) Lookup(columns []string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, c := range columns {
		if c == name {
			return c, true
		}
	}
	if c := h[foldHeader(name)]; c != "" {
		return c, true
	}
	return "", false
}

// ResolvedColumns holds the table column for each logical field. Optional
// fields are empty when not provided.
type ResolvedColumns struct {
	DebtID       string
	TaxpayerName string
	DueDate      string
	Amount       string
	CPFCNPJ      string
	TributeType  string
}

// ResolveColumns checks mapping against the table columns.
func ResolveColumns(columns []string, mapping ColumnMapping) (ResolvedColumns, error) {
	idx := MakeHeaderIndex(columns)
	var (
		out     ResolvedColumns
		missing []string
	)

	required := []struct {
		field  string
		name   string
		target *string
	}{
		{"debt_id", mapping.DebtID, &out.DebtID},
		{"taxpayer_name", mapping.TaxpayerName, &out.TaxpayerName},
		{"due_date", mapping.DueDate, &out.DueDate},
		{"amount", mapping.Amount, &out.Amount},
	}
	for _, r := range required {
		col, ok := idx.Lookup(columns, r.name)
		if !ok {
			if r.name == "" {
				missing = append(missing, r.field+" (not mapped)")
			} else {
				missing = append(missing, r.name)
			}
			continue
		}
		*r.target = col
	}
	if len(missing) > 0 {
		return ResolvedColumns{}, &MissingColumnsError{Missing: missing}
	}

	out.CPFCNPJ, _ = idx.Lookup(columns, mapping.CPFCNPJ)
	out.TributeType, _ = idx.Lookup(columns, mapping.TributeType)
	return out, nil
}

func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

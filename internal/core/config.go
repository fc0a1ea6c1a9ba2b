package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ReferenceDateLayout is the accepted layout for PrescriptionRules.ReferenceDate.
const ReferenceDateLayout = "2006-01-02"

// MinNameLength is the shortest taxpayer name that is not considered generic.
const MinNameLength = 3

// ColumnMapping declares which table columns hold each logical field.
// DebtID, TaxpayerName, DueDate and Amount are required; CPFCNPJ and
// TributeType are optional.
type ColumnMapping struct {
	DebtID       string `json:"debt_id" yaml:"debt_id"`
	TaxpayerName string `json:"taxpayer_name" yaml:"taxpayer_name"`
	CPFCNPJ      string `json:"cpf_cnpj,omitempty" yaml:"cpf_cnpj,omitempty"`
	DueDate      string `json:"due_date" yaml:"due_date"`
	Amount       string `json:"amount" yaml:"amount"`
	TributeType  string `json:"tribute_type,omitempty" yaml:"tribute_type,omitempty"`
}

// PrescriptionRules flags debts whose due date is older than Years.
type PrescriptionRules struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Years   int  `json:"years" yaml:"years"`
	// ReferenceDate is YYYY-MM-DD; empty means today.
	ReferenceDate string `json:"reference_date,omitempty" yaml:"reference_date,omitempty"`
}

// ImmunityRules flags taxpayers whose name contains one of Keywords.
type ImmunityRules struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// ExemptionRules flags small debts and exempted tribute types.
type ExemptionRules struct {
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	AmountThreshold float64  `json:"amount_threshold" yaml:"amount_threshold"`
	Tributes        []string `json:"tributes" yaml:"tributes"`
}

// IncompleteRules flags generic names and, optionally, missing documents.
type IncompleteRules struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	CheckCPFCNPJ bool     `json:"check_cpf_cnpj" yaml:"check_cpf_cnpj"`
}

// RuleConfig holds the four rule families in evaluation order.
type RuleConfig struct {
	Prescription PrescriptionRules `json:"prescription" yaml:"prescription"`
	Immunity     ImmunityRules     `json:"immunity" yaml:"immunity"`
	Exemption    ExemptionRules    `json:"exemption" yaml:"exemption"`
	Incomplete   IncompleteRules   `json:"incomplete" yaml:"incomplete"`
}

// CleansingConfig is the full request configuration: a mapping plus rules.
type CleansingConfig struct {
	Mapping    ColumnMapping `json:"mapping" yaml:"mapping"`
	RuleConfig `yaml:",inline"`
}

// Validate checks the rule parameters. All problems are reported at once.
func (c RuleConfig) Validate() error {
	var errs []string

	if c.Prescription.Years < 0 {
		errs = append(errs, fmt.Sprintf("prescription.years (%d) must be >= 0", c.Prescription.Years))
	}
	if c.Prescription.ReferenceDate != "" {
		if _, err := time.Parse(ReferenceDateLayout, c.Prescription.ReferenceDate); err != nil {
			errs = append(errs, fmt.Sprintf("prescription.reference_date (%q) must be YYYY-MM-DD", c.Prescription.ReferenceDate))
		}
	}
	if math.IsNaN(c.Exemption.AmountThreshold) || math.IsInf(c.Exemption.AmountThreshold, 0) {
		errs = append(errs, "exemption.amount_threshold must be a finite number")
	}

	if len(errs) > 0 {
		return &InvalidConfigError{Problems: errs}
	}
	return nil
}

// Validate checks the rules; the mapping is checked against a table by
// ResolveColumns.
func (c CleansingConfig) Validate() error {
	return c.RuleConfig.Validate()
}

// referenceDate returns the configured reference date, or today's date
// from now when none is set. Validate must have accepted the config.
func (p PrescriptionRules) referenceDate(now time.Time) time.Time {
	if p.ReferenceDate != "" {
		if t, err := time.Parse(ReferenceDateLayout, p.ReferenceDate); err == nil {
			return t
		}
	}
	return dateOnly(now)
}

// Cutoff returns the reference date moved back by Years. 29 February
// falls back to 28 February in non-leap target years.
func (p PrescriptionRules) Cutoff(now time.Time) time.Time {
	ref := p.referenceDate(now)
	year := ref.Year() - p.Years
	day := ref.Day()
	if ref.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, ref.Month(), day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// upperAll upper-cases every non-empty entry.
func upperAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, upper(v))
	}
	return out
}

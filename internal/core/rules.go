package core

// rules.go implements the four rule families.
//
// A row starts Valid and leaves it at most once. Families run in a fixed
// order (prescription, immunity, exemption, incompleteness) and the first
// one that matches decides both status and reason. Disabled families are
// not compiled at all.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// Fixed reason strings.
const (
	ReasonImmune         = "Entidade Imune identificada por palavra-chave"
	ReasonTributeExempt  = "Tributo Isento"
	ReasonIncomplete     = "Nome ou CPF/CNPJ inválido/genérico"
	reasonPrescribedFmt  = "Vencimento anterior a "
	reasonBelowThreshold = "Valor abaixo de R$ "
)

// fields are the normalized working values of one row. They live only for
// the duration of a classification and are never written back to the row.
type fields struct {
	dueDate  pgtype.Date
	amount   float64
	name     string
	document string
	tribute  string
}

func deriveFields(r Row, cols ResolvedColumns) fields {
	f := fields{
		dueDate: ParseDate(r[cols.DueDate]),
		amount:  ParseAmount(r[cols.Amount]),
		name:    NormalizeName(r[cols.TaxpayerName]),
	}
	if cols.CPFCNPJ != "" {
		f.document = NormalizeDocument(r[cols.CPFCNPJ])
	}
	if cols.TributeType != "" {
		f.tribute = NormalizeName(r[cols.TributeType])
	}
	return f
}

// rule is one compiled rule family.
type rule interface {
	evaluate(f *fields) (Status, string, bool)
}

type prescriptionRule struct {
	cutoff time.Time
	reason string
}

func newPrescriptionRule(p PrescriptionRules, now time.Time) prescriptionRule {
	cutoff := p.Cutoff(now)
	return prescriptionRule{
		cutoff: cutoff,
		reason: reasonPrescribedFmt + cutoff.Format(DateFormat),
	}
}

func (r prescriptionRule) evaluate(f *fields) (Status, string, bool) {
	if f.dueDate.Valid && f.dueDate.Time.Before(r.cutoff) {
		return StatusPrescribed, r.reason, true
	}
	return StatusValid, "", false
}

type immunityRule struct {
	keywords keywordMatcher
}

func (r immunityRule) evaluate(f *fields) (Status, string, bool) {
	if r.keywords.match(f.name) {
		return StatusImmune, ReasonImmune, true
	}
	return StatusValid, "", false
}

type exemptionRule struct {
	threshold    float64
	amountReason string
	tributes     map[string]struct{}
}

func newExemptionRule(e ExemptionRules) exemptionRule {
	r := exemptionRule{
		threshold:    e.AmountThreshold,
		amountReason: reasonBelowThreshold + formatThreshold(e.AmountThreshold),
	}
	if up := upperAll(e.Tributes); len(up) > 0 {
		r.tributes = make(map[string]struct{}, len(up))
		for _, t := range up {
			r.tributes[t] = struct{}{}
		}
	}
	return r
}

func (r exemptionRule) evaluate(f *fields) (Status, string, bool) {
	if r.threshold > 0 && f.amount < r.threshold {
		return StatusExempt, r.amountReason, true
	}
	if r.tributes != nil {
		if _, ok := r.tributes[f.tribute]; ok {
			return StatusExempt, ReasonTributeExempt, true
		}
	}
	return StatusValid, "", false
}

type incompleteRule struct {
	keywords      keywordMatcher
	checkDocument bool
}

func (r incompleteRule) evaluate(f *fields) (Status, string, bool) {
	badName := r.keywords.match(f.name) || utf8.RuneCountInString(f.name) < MinNameLength
	badDoc := r.checkDocument && f.document == ""
	if badName || badDoc {
		return StatusIncomplete, ReasonIncomplete, true
	}
	return StatusValid, "", false
}

// keywordMatcher matches upper-cased text against an alternation of
// upper-cased keywords. The zero value matches nothing.
type keywordMatcher struct {
	re *regexp.Regexp
}

func newKeywordMatcher(keywords []string) keywordMatcher {
	up := upperAll(keywords)
	if len(up) == 0 {
		return keywordMatcher{}
	}
	quoted := make([]string, len(up))
	for i, k := range up {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return keywordMatcher{re: regexp.MustCompile(strings.Join(quoted, "|"))}
}

func (m keywordMatcher) match(s string) bool {
	return m.re != nil && m.re.MatchString(s)
}

// formatThreshold renders a threshold the way the reason text has always
// shown it: integral values keep one decimal ("50.0").
func formatThreshold(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Ruleset is a compiled RuleConfig, safe for concurrent use.
type Ruleset struct {
	rules  []rule
	cutoff time.Time
}

// Compile validates cfg and compiles the enabled families in evaluation
// order. now supplies "today" when no reference date is configured.
func Compile(cfg RuleConfig, now time.Time) (*Ruleset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rs := &Ruleset{}
	if cfg.Prescription.Enabled {
		pr := newPrescriptionRule(cfg.Prescription, now)
		rs.cutoff = pr.cutoff
		rs.rules = append(rs.rules, pr)
	}
	if cfg.Immunity.Enabled {
		rs.rules = append(rs.rules, immunityRule{keywords: newKeywordMatcher(cfg.Immunity.Keywords)})
	}
	if cfg.Exemption.Enabled {
		rs.rules = append(rs.rules, newExemptionRule(cfg.Exemption))
	}
	if cfg.Incomplete.Enabled {
		rs.rules = append(rs.rules, incompleteRule{
			keywords:      newKeywordMatcher(cfg.Incomplete.Keywords),
			checkDocument: cfg.Incomplete.CheckCPFCNPJ,
		})
	}
	return rs, nil
}

// Cutoff returns the prescription cutoff, or the zero time when the
// prescription family is disabled.
func (rs *Ruleset) Cutoff() time.Time {
	return rs.cutoff
}

// Classify assigns a status and reason to one row. The row is not modified.
func (rs *Ruleset) Classify(r Row, cols ResolvedColumns) ClassifiedRow {
	f := deriveFields(r, cols)
	for _, ru := range rs.rules {
		if st, reason, ok := ru.evaluate(&f); ok {
			return ClassifiedRow{Row: r, Status: st, Reason: reason}
		}
	}
	return ClassifiedRow{Row: r, Status: StatusValid}
}

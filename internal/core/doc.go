// Package core provides the classification engine for debt spreadsheets.
//
// This package is the heart of the cleanser, containing all domain logic
// independent of any transport or spreadsheet format. It is used by the
// HTTP server, the CLI, and tests without modification.
//
// # Classification
//
// A [Table] is classified against a [CleansingConfig]: a [ColumnMapping]
// naming the columns that hold each logical field, plus a [RuleConfig]
// with four rule families. Every row starts as Valid and the families are
// tried in a fixed order:
//
//  1. Prescription: due date strictly before today minus N years
//  2. Immunity: taxpayer name contains an immunity keyword
//  3. Exemption: amount below a threshold, or an exempted tribute type
//  4. Incompleteness: generic or short name, or missing CPF/CNPJ
//
// The first family that matches sets the status and reason; later
// families are not consulted. A row that nothing matches stays Valid with
// an empty reason.
//
//	cfg, err := decoder.Decode(payload)
//	res, err := core.NewEngine().Classify(table, cfg)
//	fmt.Println(res.Summary.PrescribedCount)
//
// # Field Normalization
//
// Cells are read tolerantly. Dates accept DD/MM/YYYY, YYYY-MM-DD and
// DD-MM-YYYY text as well as native dates; amounts accept Brazilian
// ("R$ 1.234,56") and plain ("1234.56") notation; names are upper-cased
// with Portuguese casing rules; documents keep only their digits. Anything
// unreadable becomes a null date or a zero amount rather than an error.
//
// # Configuration
//
// Defaults are embedded as YAML and request payloads overlay them after
// passing an embedded JSON Schema. See [ConfigDecoder].
//
// # Jobs
//
// [Service] wraps the engine for the shells: it decodes files through a
// [TableCodec], bounds concurrency with a [JobLimiter], records metrics
// through a [Recorder], and maps failures with [MapError] and [StatusCode].
package core

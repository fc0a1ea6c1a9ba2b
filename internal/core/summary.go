package core

// Summarize tallies a classified table. Amounts are parsed again from the
// original amount column rather than taken from any working state.
func Summarize(t ClassifiedTable, amountColumn string) Summary {
	s := Summary{
		TotalRecords:     len(t.Rows),
		ProcessedRecords: len(t.Rows),
	}

	for _, r := range t.Rows {
		amount := ParseAmount(r.Row[amountColumn])

		switch r.Status {
		case StatusPrescribed:
			s.PrescribedCount++
		case StatusImmune:
			s.ImmuneCount++
		case StatusExempt:
			s.ExemptCount++
		case StatusIncomplete:
			s.IncompleteCount++
		default:
			s.ValidCount++
		}

		if r.Status == StatusValid {
			s.TotalAmountValid += amount
		} else {
			s.TotalAmountRemoved += amount
		}
	}

	return s
}

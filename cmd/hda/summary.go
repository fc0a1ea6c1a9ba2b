package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/thauanfonseca/HDA/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle = lipgloss.NewStyle().Width(20)
	countStyle = lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	statusColors = map[core.Status]lipgloss.Color{
		core.StatusValid:      lipgloss.Color("42"),
		core.StatusPrescribed: lipgloss.Color("214"),
		core.StatusImmune:     lipgloss.Color("39"),
		core.StatusExempt:     lipgloss.Color("141"),
		core.StatusIncomplete: lipgloss.Color("196"),
	}

	brl = message.NewPrinter(language.BrazilianPortuguese)
)

// renderSummary prints one boxed summary per classified file.
func renderSummary(w io.Writer, r fileResult) {
	s := r.Summary

	lines := []string{
		titleStyle.Render(r.File),
		mutedStyle.Render("→ " + r.Output),
		"",
	}
	for _, st := range core.Statuses {
		label := lipgloss.NewStyle().Foreground(statusColors[st]).Inherit(labelStyle).Render(st.String())
		lines = append(lines, label+countStyle.Render(brl.Sprintf("%d", s.Count(st))))
	}
	lines = append(lines,
		"",
		labelStyle.Render("Total")+countStyle.Render(brl.Sprintf("%d", s.TotalRecords)),
		labelStyle.Render("Valor válido")+" "+formatBRL(s.TotalAmountValid),
		labelStyle.Render("Valor removido")+" "+formatBRL(s.TotalAmountRemoved),
	)

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// formatBRL formats an amount the way Brazilian users read it: R$ 1.234,56.
func formatBRL(v float64) string {
	return "R$ " + brl.Sprintf("%.2f", v)
}

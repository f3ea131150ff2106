// Package clistyle holds the terminal styles bdp's CLI renders output
// with, grounded on cmd/bd-examples/main.go's adaptive lipgloss palette
// (light/dark aware pass/warn/fail/muted/accent styles) plus fatih/color
// for the one-line red error summaries spec.md §7 calls for.
package clistyle

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	Pass = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"})
	Warn = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"})
	Fail = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"})
	Muted = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
	Accent = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
	Bold  = lipgloss.NewStyle().Bold(true)
)

// PrintError writes the one-line red error summary spec.md §7 requires for
// every CLI-surfaced failure: "Error: <kind>: <message>".
func PrintError(kind, message string) {
	fmt.Println(color.RedString("Error: %s: %s", kind, message))
}

// StatusLine renders "<symbol> <label>" in the style matching ok/warn/fail,
// for `bdp status`/`bdp pull` per-entry progress lines.
func StatusLine(ok bool, warnOnly bool, label string) string {
	switch {
	case ok:
		return Pass.Render("✓ " + label)
	case warnOnly:
		return Warn.Render("! " + label)
	default:
		return Fail.Render("✗ " + label)
	}
}

// Table renders a simple bold-headed table with one column per header,
// columns separated by two spaces, the way `bdp source list`/`bdp config
// list`/`bdp audit list` report their rows.
func Table(headers []string, rows [][]string) string {
	var b lipgloss.Style = Bold
	out := b.Render(headerLine(headers)) + "\n"
	for _, row := range rows {
		out += rowLine(row) + "\n"
	}
	return out
}

func headerLine(cols []string) string {
	line := ""
	for i, c := range cols {
		if i > 0 {
			line += "  "
		}
		line += c
	}
	return line
}

func rowLine(cols []string) string {
	line := ""
	for i, c := range cols {
		if i > 0 {
			line += "  "
		}
		line += c
	}
	return line
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles for headings and table headers. lipgloss drops the color codes
// when stdout is not a terminal.
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// barWidth is the width of the longest bar in hour charts.
const barWidth = 30

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Flags.Quiet, format, args...)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

// printHeading writes a styled section title.
func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, headingStyle.Render(title))
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	fmt.Fprintln(w, headerStyle.Render(padRow(headers, widths)))

	for _, row := range rows {
		fmt.Fprintln(w, padRow(row, widths))
	}
}

// padRow pads every cell but the last to its column width.
func padRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			parts[i] = cell
			continue
		}

		parts[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
	}

	return strings.Join(parts, "  ")
}

// bar renders value as a run of block characters scaled against peak.
func bar(value, peak float64) string {
	if peak <= 0 || value <= 0 {
		return ""
	}

	n := int(value / peak * barWidth)

	return strings.Repeat("█", max(n, 1))
}

// orNone shows a placeholder for empty values.
func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return mutedStyle.Render("-")
	}

	return s
}

// joinNonEmpty joins the non-blank parts with spaces.
func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, " ")
}

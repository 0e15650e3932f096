package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChangeRow is one file in the before/after table.
type ChangeRow struct {
	File   string
	Before string
	After  string
}

// RenderChanges draws the before/after table printed after a batch.
func RenderChanges(rows []ChangeRow) string {
	header := ChangeRow{File: "File", Before: "Before", After: "After"}
	widths := [3]int{}
	for _, row := range append([]ChangeRow{header}, rows...) {
		widths[0] = max(widths[0], lipgloss.Width(row.File))
		widths[1] = max(widths[1], lipgloss.Width(row.Before))
		widths[2] = max(widths[2], lipgloss.Width(row.After))
	}

	hline := strings.Repeat("-", widths[0]+widths[1]+widths[2]+6)
	lines := []string{
		hline,
		fmt.Sprintf("%s | %s | %s",
			headerStyle.Render(padRight(header.File, widths[0])),
			headerStyle.Render(padRight(header.Before, widths[1])),
			headerStyle.Render(padRight(header.After, widths[2]))),
		hline,
	}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s | %s | %s",
			labelStyle.Render(padRight(row.File, widths[0])),
			dimStyle.Render(padRight(row.Before, widths[1])),
			valueStyle.Render(padRight(row.After, widths[2]))))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// Dimensions formats width and size the way the tables show them.
func Dimensions(width, sizeKB int) string {
	return fmt.Sprintf("%dpx %dKB", width, sizeKB)
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
)

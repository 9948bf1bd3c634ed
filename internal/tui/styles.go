package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	primary   = lipgloss.Color("#d5bdaf")
	surface   = lipgloss.Color("#edede9")
	muted     = lipgloss.Color("#6c757d")
	danger    = lipgloss.Color("#e63946")
	highlight = lipgloss.Color("#1d3557")

	navItemStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(highlight).
			Background(surface)

	navActiveStyle = navItemStyle.
			Background(primary).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1)

	subtleStyle = lipgloss.NewStyle().Foreground(muted)

	errorStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)

	statusStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)

	paginationStyle = lipgloss.NewStyle().Foreground(highlight).MarginTop(1)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primary).
		BorderBottom(true).
		Bold(true).
		Foreground(highlight)
	s.Selected = s.Selected.
		Foreground(highlight).
		Background(primary).
		Bold(true)
	return s
}

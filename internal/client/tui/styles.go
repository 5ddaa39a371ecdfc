package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#1d6fa5")
	accent  = lipgloss.Color("#f4a259")
	muted   = lipgloss.Color("#7a7a7a")
	danger  = lipgloss.Color("#c0392b")
)

// Styles holds the lipgloss styles of the terminal client.
type Styles struct {
	Header   lipgloss.Style
	Welcome  lipgloss.Style
	Label    lipgloss.Style
	Region   lipgloss.Style
	Footer   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Title    lipgloss.Style
	Pager    lipgloss.Style
	Disabled lipgloss.Style
}

// DefaultStyles returns the default theme.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Welcome: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(muted),
		Region: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 2),
		Muted: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(danger).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1),
		Pager: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		Disabled: lipgloss.NewStyle().
			Foreground(muted).
			Faint(true),
	}
}

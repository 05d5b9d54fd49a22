package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#8A94A6")
	danger = lipgloss.Color("#E53935")
	info   = lipgloss.Color("#2196F3")
)

// Styles groups the lipgloss styles used by the view.
type Styles struct {
	Title       lipgloss.Style
	Label       lipgloss.Style
	Tag         lipgloss.Style
	TagSelected lipgloss.Style
	TagCursor   lipgloss.Style
	GrantName   lipgloss.Style
	GrantBody   lipgloss.Style
	GrantTag    lipgloss.Style
	Status      lipgloss.Style
	Empty       lipgloss.Style
	Hint        lipgloss.Style
	Error       lipgloss.Style
	Help        lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Label:       lipgloss.NewStyle().Foreground(muted),
		Tag:         lipgloss.NewStyle().Padding(0, 1),
		TagSelected: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#101F38")).Background(accent),
		TagCursor:   lipgloss.NewStyle().Underline(true),
		GrantName:   lipgloss.NewStyle().Bold(true),
		GrantBody:   lipgloss.NewStyle().Foreground(muted).PaddingLeft(2),
		GrantTag:    lipgloss.NewStyle().Foreground(info),
		Status:      lipgloss.NewStyle().Italic(true).Foreground(info),
		Empty:       lipgloss.NewStyle().Bold(true),
		Hint:        lipgloss.NewStyle().Foreground(muted),
		Error:       lipgloss.NewStyle().Foreground(danger),
		Help:        lipgloss.NewStyle().Foreground(muted).MarginTop(1),
	}
}

// Package tui renders the grant discovery view in the terminal. The model
// owns no discovery logic: keystrokes go to the controller and every StateMsg
// re-reads its snapshot.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/discovery"
)

const maxDescription = 160

// Controller is the part of the discovery controller the view drives.
type Controller interface {
	State() discovery.State
	SetText(s string)
	ToggleTag(tag string)
	SetMode(m mode.Mode) error
	ClearFilters()
	Refresh()
}

// Model is the bubbletea model for the discovery view.
type Model struct {
	ctl    Controller
	keys   KeyMap
	styles Styles
	input  textinput.Model

	state  discovery.State
	cursor int
	err    string

	width    int
	height   int
	quitting bool
}

// New creates a discovery view bound to ctl.
func New(ctl Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "Search grants..."
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Width = 60
	ti.Focus()

	return Model{
		ctl:    ctl,
		keys:   DefaultKeyMap(),
		styles: DefaultStyles(),
		input:  ti,
		state:  ctl.State(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return StateMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case StateMsg:
		m.state = m.ctl.State()
		m.clampCursor()
		return m, nil

	case ErrMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextTag):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevTag):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.ToggleTag):
		if tags := m.state.AvailableTags; m.cursor < len(tags) {
			m.ctl.ToggleTag(tags[m.cursor])
			m.state = m.ctl.State()
		}
		return m, nil

	case key.Matches(msg, m.keys.Mode):
		if err := m.ctl.SetMode(m.state.Mode.Toggle()); err != nil {
			m.err = err.Error()
		}
		m.state = m.ctl.State()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.ctl.ClearFilters()
		m.input.SetValue("")
		m.err = ""
		m.state = m.ctl.State()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.err = ""
		m.ctl.Refresh()
		m.state = m.ctl.State()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.ctl.SetText(after)
		m.state = m.ctl.State()
	}
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	n := len(m.state.AvailableTags)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = ((m.cursor+delta)%n + n) % n
}

func (m *Model) clampCursor() {
	if n := len(m.state.AvailableTags); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Grant discovery"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	b.WriteString(m.styles.Label.Render(fmt.Sprintf("Mode: %s", m.state.Mode)))
	b.WriteString("\n")
	b.WriteString(m.renderTags())
	b.WriteString("\n")

	if m.state.IsSearch() && len(m.state.ResolvedTags) > 0 {
		b.WriteString(m.styles.Label.Render("Matched tags: " + strings.Join(m.state.ResolvedTags, ", ")))
		b.WriteString("\n")
	}
	if status := m.status(); status != "" {
		b.WriteString(m.styles.Status.Render(status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderGrants())

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Error: " + m.err))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.state.Searching:
		return "Searching..."
	case m.state.GrantsLoading && !m.state.IsSearch():
		return "Loading grants..."
	case m.state.TagsLoading:
		return "Loading tags..."
	}
	return ""
}

func (m Model) renderTags() string {
	if len(m.state.AvailableTags) == 0 {
		return m.styles.Label.Render("No tags")
	}
	selected := make(map[string]struct{}, len(m.state.SelectedTags))
	for _, t := range m.state.SelectedTags {
		selected[t] = struct{}{}
	}

	parts := make([]string, len(m.state.AvailableTags))
	for i, t := range m.state.AvailableTags {
		style := m.styles.Tag
		if _, ok := selected[t]; ok {
			style = m.styles.TagSelected
		}
		if i == m.cursor {
			style = style.Inherit(m.styles.TagCursor)
		}
		parts[i] = style.Render(t)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if m.width > 0 {
		row = lipgloss.NewStyle().Width(m.width).Render(row)
	}
	return row
}

func (m Model) renderGrants() string {
	grants := m.state.DisplayGrants
	if len(grants) == 0 {
		if m.state.EmptyMessage == "" {
			return ""
		}
		return m.styles.Empty.Render(m.state.EmptyMessage) + "\n" + m.styles.Hint.Render(m.state.EmptyHint) + "\n"
	}

	// Three lines per grant; keep the header and help visible on small terminals.
	limit := len(grants)
	if m.height > 0 {
		if fit := (m.height - 12) / 3; fit < limit {
			limit = max(fit, 1)
		}
	}

	var b strings.Builder
	for _, g := range grants[:limit] {
		b.WriteString(m.renderGrant(g))
	}
	if limit < len(grants) {
		b.WriteString(m.styles.Label.Render(fmt.Sprintf("... and %d more", len(grants)-limit)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderGrant(g grant.Grant) string {
	desc := g.Description
	if r := []rune(desc); len(r) > maxDescription {
		desc = string(r[:maxDescription]) + "..."
	}
	tags := make([]string, len(g.Tags))
	for i, t := range g.Tags {
		tags[i] = "#" + t
	}
	return m.styles.GrantName.Render(g.Name) + "\n" +
		m.styles.GrantBody.Render(desc) + "\n" +
		m.styles.GrantBody.Inherit(m.styles.GrantTag).Render(strings.Join(tags, " ")) + "\n"
}

func (m Model) renderHelp() string {
	items := make([]string, 0, len(m.keys.help()))
	for _, b := range m.keys.help() {
		h := b.Help()
		items = append(items, h.Key+" "+h.Desc)
	}
	return m.styles.Help.Render(strings.Join(items, " | "))
}

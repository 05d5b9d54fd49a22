package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the bindings of the discovery view. Printable keys go to the
// search box, so every action sits on a control or navigation key.
type KeyMap struct {
	NextTag   key.Binding
	PrevTag   key.Binding
	ToggleTag key.Binding
	Mode      key.Binding
	Clear     key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTag:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tag")),
		PrevTag:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tag")),
		ToggleTag: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle tag")),
		Mode:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "all/any")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear")),
		Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.NextTag, k.ToggleTag, k.Mode, k.Clear, k.Refresh, k.Quit}
}

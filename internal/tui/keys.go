package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings the search screen reacts to.
type keyMap struct {
	Submit   key.Binding
	Cancel   key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	NextTab  key.Binding
	Filter   key.Binding
	Team     key.Binding
	Retry    key.Binding
	Remove   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "messages/files")),
		Filter:   key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "file type")),
		Team:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "team")),
		Retry:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry")),
		Remove:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "forget")),
	}
}

// help returns the bindings worth advertising in the given screen.
func (k keyMap) help(results, failed bool) []key.Binding {
	switch {
	case results:
		return []key.Binding{k.NextTab, k.Filter, k.Team, k.Cancel}
	case failed:
		return []key.Binding{k.Retry, k.Cancel}
	default:
		return []key.Binding{k.Submit, k.Remove, k.Quit}
	}
}

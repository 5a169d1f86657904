package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	choose   key.Binding
	submit   key.Binding
	back     key.Binding
	focus    key.Binding
	nextPage key.Binding
	prevPage key.Binding
	pageSize key.Binding
	reload   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		choose:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add song")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop it")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		nextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		prevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		pageSize: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "page size")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// bindings returns the help line for the focused widget.
func (k keyMap) bindings(focus Focus) []key.Binding {
	switch focus {
	case FocusNickname:
		return []key.Binding{k.submit, k.back, k.quit}
	case FocusPlaylist:
		return []key.Binding{k.prevPage, k.nextPage, k.pageSize, k.reload, k.focus, k.quit}
	default:
		return []key.Binding{k.up, k.down, k.choose, k.back, k.focus, k.quit}
	}
}

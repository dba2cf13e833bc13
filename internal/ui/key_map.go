package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	toggle   key.Binding
	all      key.Binding
	filter   key.Binding
	upload   key.Binding
	delete   key.Binding
	refresh  key.Binding
	category key.Binding
	enter    key.Binding
	back     key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
		all:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		category: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "category")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle, k.all},
		{k.filter, k.upload, k.delete, k.refresh},
		{k.yes, k.no, k.quit},
	}
}

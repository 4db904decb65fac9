package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left, Right, Up, Down key.Binding

	MoveLeft, MoveRight, MoveUp, MoveDown key.Binding

	Pin, Done, Archive, Delete key.Binding
	NextBoard, PrevBoard       key.Binding
	Reload, Quit               key.Binding
}

var keys = keyMap{
	Left:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/l", "column")),
	Right: key.NewBinding(key.WithKeys("l", "right")),
	Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "task")),
	Down:  key.NewBinding(key.WithKeys("j", "down")),

	MoveLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H/L", "move")),
	MoveRight: key.NewBinding(key.WithKeys("L", "shift+right")),
	MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("J/K", "reorder")),
	MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down")),

	Pin:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
	Done:    key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "done")),
	Archive: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
	Delete:  key.NewBinding(key.WithKeys("d", "D"), key.WithHelp("d", "delete")),

	NextBoard: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "board")),
	PrevBoard: key.NewBinding(key.WithKeys("shift+tab")),
	Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:      key.NewBinding(key.WithKeys("q", keyEsc), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.MoveLeft, k.MoveUp, k.Pin, k.Done, k.Archive, k.Delete, k.NextBoard, k.Reload, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev    key.Binding
	Next    key.Binding
	Up      key.Binding
	Down    key.Binding
	Play    key.Binding
	Player  key.Binding
	Toggle  key.Binding
	Back    key.Binding
	Forward key.Binding
	Hide    key.Binding
	TOC     key.Binding
	Restart key.Binding
	Close   key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev sentence")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next sentence")),
		Play:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play sentence")),
		Player:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "player")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "-5%")),
		Forward: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "+5%")),
		Hide:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hide player")),
		TOC:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "contents")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:    key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Play, k.Player, k.Toggle, k.TOC, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Up, k.Down, k.Play},
		{k.Player, k.Toggle, k.Back, k.Forward, k.Hide},
		{k.TOC, k.Restart, k.Quit},
	}
}

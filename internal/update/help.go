package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/daylog/internal/views"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Prev    key.Binding
	Next    key.Binding
	Today   key.Binding
	Sync    key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space/x", "toggle done")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		Prev:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous day")),
		Next:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next day")),
		Today:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "jump to today")),
		Sync:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync now")),
		Palette: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) helpKeys() helpKeyMap {
	k := m.keys
	return helpKeyMap{
		short: []key.Binding{k.Toggle, k.Prev, k.Next, k.Palette, k.Help, k.Quit},
		full: [][]key.Binding{
			{k.Up, k.Down, k.Toggle, k.Delete},
			{k.Prev, k.Next, k.Today},
			{k.Sync, k.Palette, k.Help, k.Quit},
		},
	}
}

var paletteCommands = []string{
	"add <text> [~Nm]",
	"done <n>",
	"edit <n> <text>",
	"del <n>",
	"date today|+n|-n|YYYY-MM-DD",
	"summary <markdown>",
	"rate <0-5 in .5 steps>",
	"rule daily|workday|weekly mon,fri|monthly D|yearly M-D|every N days <text>",
	"rule list | rule del <n>",
	"theme light|dark",
	"sync",
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, c := range paletteCommands {
		plain = append(plain, fmt.Sprintf("- /%s", c))
	}
	hm := m.helpModel
	hm.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: hm.View(m.helpKeys()),
	})
}

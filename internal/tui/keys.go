package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tapgrid/internal/model"
)

const (
	gridCols = 3
	gridRows = model.GridSize / gridCols
)

// cellKeys holds the key for each cell, row by row.
var cellKeys = [model.GridSize]string{
	"1", "2", "3",
	"q", "w", "e",
	"a", "s", "d",
	"z", "x", "c",
}

// CellLabel returns the key that hits c.
func CellLabel(c model.Cell) string {
	if !c.Valid() {
		return "?"
	}
	return cellKeys[c]
}

type keyMap struct {
	Cells [model.GridSize]key.Binding
	Grid  key.Binding
	Tabs  key.Binding
	Reset key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func newKeyMap() keyMap {
	km := keyMap{
		Grid:  key.NewBinding(key.WithKeys(cellKeys[:]...), key.WithHelp("123 qwe asd zxc", "hit cell")),
		Tabs:  key.NewBinding(key.WithKeys("left", "right", "tab"), key.WithHelp("←/→", "switch view")),
		Reset: key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter", "play again")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
	for i, k := range cellKeys {
		km.Cells[i] = key.NewBinding(key.WithKeys(k))
	}
	km.setEnded(false)
	return km
}

// setEnded switches between the board bindings and the results bindings.
func (k *keyMap) setEnded(ended bool) {
	k.Grid.SetEnabled(!ended)
	for i := range k.Cells {
		k.Cells[i].SetEnabled(!ended)
	}
	k.Tabs.SetEnabled(ended)
	k.Reset.SetEnabled(ended)
}

func (k keyMap) cellFor(msg tea.KeyMsg) (model.Cell, bool) {
	for i, b := range k.Cells {
		if key.Matches(msg, b) {
			return model.Cell(i), true
		}
	}
	return 0, false
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grid, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Grid, k.Tabs},
		{k.Reset, k.Quit},
		{k.Help},
	}
}

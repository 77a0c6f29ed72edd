package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tapgrid/internal/model"
)

const (
	cellWidth   = 7
	cellHeight  = 3
	cellGapX    = 1
	cellGapY    = 1
	headerLines = 4
)

type cellKind int

const (
	cellIdle cellKind = iota
	cellTarget
	cellDistractor
)

var (
	cellBase   = lipgloss.NewStyle().Width(cellWidth).Height(cellHeight).Align(lipgloss.Center, lipgloss.Center)
	cellStyles = map[cellKind]lipgloss.Style{
		cellIdle:       cellBase.Foreground(lipgloss.Color("#6E6E6E")).Background(lipgloss.Color("#262626")),
		cellTarget:     cellBase.Foreground(lipgloss.Color("#0D1117")).Background(lipgloss.Color("#3FB950")).Bold(true),
		cellDistractor: cellBase.Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#FF4D4F")),
	}
)

func boardWidth() int {
	return gridCols*cellWidth + (gridCols-1)*cellGapX
}

func boardHeight() int {
	return gridRows*cellHeight + (gridRows-1)*cellGapY
}

// layout is where the board sits on screen.
type layout struct {
	left int
	top  int
}

func layoutFor(width int) layout {
	left := (width - boardWidth()) / 2
	if left < 0 {
		left = 0
	}
	return layout{left: left, top: headerLines}
}

// cellAt maps a terminal position to the cell under it. Gaps between cells
// hit nothing.
func (l layout) cellAt(x, y int) (model.Cell, bool) {
	rx, ry := x-l.left, y-l.top
	if rx < 0 || ry < 0 {
		return 0, false
	}
	col, colOff := rx/(cellWidth+cellGapX), rx%(cellWidth+cellGapX)
	row, rowOff := ry/(cellHeight+cellGapY), ry%(cellHeight+cellGapY)
	if col >= gridCols || row >= gridRows || colOff >= cellWidth || rowOff >= cellHeight {
		return 0, false
	}
	return model.Cell(row*gridCols + col), true
}

// cellOrigin returns the top-left position of c.
func (l layout) cellOrigin(c model.Cell) (x, y int) {
	row, col := int(c)/gridCols, int(c)%gridCols
	return l.left + col*(cellWidth+cellGapX), l.top + row*(cellHeight+cellGapY)
}

func classify(snap model.Snapshot) [model.GridSize]cellKind {
	var kinds [model.GridSize]cellKind
	round := model.Round{Targets: snap.Targets, Distractors: snap.Distractors}
	for c := model.Cell(0); c < model.GridSize; c++ {
		switch {
		case round.IsTarget(c):
			kinds[c] = cellTarget
		case round.IsDistractor(c):
			kinds[c] = cellDistractor
		}
	}
	return kinds
}

func renderBoard(kinds [model.GridSize]cellKind, left int) string {
	gapX := strings.Repeat(" ", cellGapX)
	rows := make([]string, 0, gridRows*2)
	for r := 0; r < gridRows; r++ {
		cells := make([]string, 0, gridCols*2)
		for c := 0; c < gridCols; c++ {
			if c > 0 {
				cells = append(cells, gapX)
			}
			idx := model.Cell(r*gridCols + c)
			cells = append(cells, renderCell(idx, kinds[idx]))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		if r < gridRows-1 {
			for g := 0; g < cellGapY; g++ {
				rows = append(rows, "")
			}
		}
	}
	board := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if left <= 0 {
		return board
	}
	return lipgloss.NewStyle().PaddingLeft(left).Render(board)
}

func renderCell(c model.Cell, kind cellKind) string {
	label := runewidth.Truncate(CellLabel(c), cellWidth, "")
	return cellStyles[kind].Render(label)
}

// Package statsui renders the end-of-session results with Bubble Tea
// components.
package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tapgrid/internal/model"
	"github.com/verte-zerg/tapgrid/internal/stats"
)

const (
	tabOverview = iota
	tabCells
)

const (
	plotHeight  = 6
	trendWindow = 3
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model shows one session's report in two tabs: an overview and a per-cell
// table. It is embedded by the game UI rather than run on its own.
type Model struct {
	report stats.Report
	label  func(model.Cell) string

	tabs      []string
	activeTab int
	overview  string
	viewport  viewport.Model
	cellTable table.Model

	width  int
	height int
}

// New builds the results view. label names a cell the way the player hits it.
func New(report stats.Report, label func(model.Cell) string) *Model {
	if label == nil {
		label = func(c model.Cell) string { return fmt.Sprintf("%d", c) }
	}
	m := &Model{
		report:   report,
		label:    label,
		tabs:     []string{"Overview", "Cells"},
		viewport: viewport.New(0, 0),
	}
	m.cellTable = buildCellTable(report.Cells, label, 0, 1)
	m.refreshOverview()
	return m
}

// SetSize fits the view into width x height.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := m.bodyHeight()
	m.viewport.Width = width
	m.viewport.Height = bodyHeight
	m.cellTable.SetWidth(width)
	m.cellTable.SetHeight(maxInt(1, bodyHeight-1))
	m.refreshOverview()
}

// Update handles tab switching and scrolling.
func (m *Model) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return nil
	case "right", "l", "tab":
		m.moveTab(1)
		return nil
	}
	var cmd tea.Cmd
	if m.activeTab == tabCells {
		m.cellTable, cmd = m.cellTable.Update(msg)
		return cmd
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// View renders the tabs and the active body.
func (m *Model) View() string {
	var body string
	switch {
	case m.activeTab == tabCells:
		body = m.cellTable.View()
	case m.height <= 0:
		body = m.overview
	default:
		body = m.viewport.View()
	}
	if m.width > 0 && m.height > 0 {
		body = fitLines(body, m.width, m.bodyHeight())
	}
	return m.renderTabs() + "\n" + body
}

func (m *Model) bodyHeight() int {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	return maxInt(1, m.height-tabsHeight)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabCells {
		m.cellTable.Focus()
	} else {
		m.cellTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) refreshOverview() {
	m.overview = renderOverview(m.report, m.label, m.width)
	m.viewport.SetContent(m.overview)
}

func renderOverview(report stats.Report, label func(model.Cell) string, width int) string {
	s := report.Summary
	if s.Rounds == 0 {
		return "No rounds played."
	}
	parts := []string{renderSummaryCards(s, width)}

	if len(report.Latencies) > 0 {
		var buf bytes.Buffer
		if err := stats.RenderLatencyPlot(&buf, report.Latencies, width, plotHeight); err != nil {
			parts = append(parts, fmt.Sprintf("Failed to render latencies: %v", err))
		} else {
			parts = append(parts, strings.TrimRight(buf.String(), "\n"))
		}
		trend := stats.Sparkline(stats.MovingAverage(report.Latencies, trendWindow))
		parts = append(parts, headerStyle.Render("Trend ")+trend)
	}

	if len(report.Weakest) > 0 {
		names := make([]string, len(report.Weakest))
		for i, c := range report.Weakest {
			names[i] = label(c)
		}
		parts = append(parts, "Missed most: "+strings.Join(names, " "))
	}
	return strings.Join(parts, "\n\n")
}

func renderSummaryCards(s model.SessionSummary, width int) string {
	cards := []string{
		metricCard("Rounds", fmt.Sprintf("%d", s.Rounds)),
		metricCard("Accuracy", fmt.Sprintf("%.1f%%", stats.RoundMetrics(s.Correct, s.Incorrect)*100)),
		metricCard("Best", stats.FormatLatency(float64(s.BestLatency), s.Measured)),
		metricCard("Avg", stats.FormatLatency(s.AvgLatency, s.Measured)),
		metricCard("Peak targets", fmt.Sprintf("%d", s.PeakTargets)),
	}
	if width > 0 && width < 60 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildCellTable(cells []stats.CellAggregate, label func(model.Cell) string, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Key", Width: 4},
		{Title: "Asked", Width: 6},
		{Title: "Hit", Width: 5},
		{Title: "Missed", Width: 7},
		{Title: "Hit rate", Width: 9},
	}
	rows := make([]table.Row, 0, len(cells))
	for _, agg := range cells {
		rate := 0.0
		if agg.Asked > 0 {
			rate = float64(agg.Hit) / float64(agg.Asked) * 100
		}
		rows = append(rows, table.Row{
			label(agg.Cell),
			fmt.Sprintf("%d", agg.Asked),
			fmt.Sprintf("%d", agg.Hit),
			fmt.Sprintf("%d", agg.Asked-agg.Hit),
			fmt.Sprintf("%.1f%%", rate),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(cellTableStyles())
	return t
}

func cellTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

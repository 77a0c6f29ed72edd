// Package tui provides the Bubble Tea game interface.
//
// Every timer callback of the session reaches the model as a message and runs
// inside Update, so the session is only ever touched from the Bubble Tea loop.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tapgrid/internal/clock"
	"github.com/verte-zerg/tapgrid/internal/game"
	"github.com/verte-zerg/tapgrid/internal/model"
	"github.com/verte-zerg/tapgrid/internal/stats"
	"github.com/verte-zerg/tapgrid/internal/statsui"
	"github.com/verte-zerg/tapgrid/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	meterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// callbackMsg carries a timer callback onto the Bubble Tea loop.
type callbackMsg func()

// Options configures the game UI. A nil Scheduler uses the wall clock and
// delivers its callbacks through the program bound with Bind.
type Options struct {
	Config    model.Config
	Store     *store.Store
	Scheduler clock.Scheduler
	Logf      func(format string, args ...any)
}

// Model implements the Bubble Tea game UI.
type Model struct {
	session *game.Session
	store   *store.Store
	logf    func(format string, args ...any)
	send    func(tea.Msg)

	keys    keyMap
	help    help.Model
	bar     progress.Model
	results *statsui.Model

	snap     model.Snapshot
	width    int
	height   int
	quitting bool
}

// NewModel constructs the game UI and mounts a session.
func NewModel(opts Options) *Model {
	m := &Model{
		store: opts.Store,
		logf:  opts.Logf,
		keys:  newKeyMap(),
		help:  help.New(),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
			progress.WithWidth(boardWidth()),
		),
	}
	if m.logf == nil {
		m.logf = log.Printf
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = clock.NewReal(m.dispatch)
	}
	gameOpts := game.Options{
		Config:    opts.Config,
		Scheduler: sched,
		OnChange:  m.onChange,
		Logf:      m.logf,
	}
	if opts.Store != nil {
		gameOpts.Journal = opts.Store
	}
	m.session = game.New(gameOpts)
	m.snap = m.session.Snapshot()
	return m
}

// Bind sets how timer callbacks are posted to the program. It must be called
// before the program runs.
func (m *Model) Bind(send func(tea.Msg)) {
	m.send = send
}

// Snapshot returns the last published session state.
func (m *Model) Snapshot() model.Snapshot {
	return m.snap
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("tapgrid")
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callbackMsg:
		msg()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeResults()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.snap.Lifecycle == model.Ended {
		return m.viewResults()
	}
	return m.viewGame()
}

func (m *Model) dispatch(f func()) {
	if m.send == nil {
		m.logf("dropping timer callback: no program bound")
		return
	}
	m.send(callbackMsg(f))
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.session.Reset()
		return m, nil
	}
	if cell, ok := m.keys.cellFor(msg); ok {
		m.session.Touch(cell)
		return m, nil
	}
	if m.results != nil {
		return m, m.results.Update(msg)
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	if m.snap.Lifecycle == model.Ended {
		return
	}
	if cell, ok := layoutFor(m.width).cellAt(msg.X, msg.Y); ok {
		m.session.Touch(cell)
	}
}

func (m *Model) onChange(snap model.Snapshot) {
	wasEnded := m.snap.Lifecycle == model.Ended
	m.snap = snap
	ended := snap.Lifecycle == model.Ended
	m.keys.setEnded(ended)
	switch {
	case ended && !wasEnded:
		m.showResults()
	case !ended:
		m.results = nil
	}
}

func (m *Model) showResults() {
	report := stats.Report{Summary: model.SessionSummary{
		Session:    m.snap.Session,
		FinalScore: m.snap.Score,
	}}
	if m.store != nil {
		built, err := stats.BuildReport(context.Background(), m.store, m.snap.Session)
		if err != nil {
			m.logf("failed to build results: %v", err)
		} else {
			report = built
		}
	}
	m.results = statsui.New(report, CellLabel)
	m.resizeResults()
}

func (m *Model) resizeResults() {
	if m.results == nil || m.width <= 0 || m.height <= 0 {
		return
	}
	// Headline, blank line and help.
	bodyHeight := m.height - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.results.SetSize(m.width, bodyHeight)
}

func (m *Model) viewGame() string {
	lines := []string{
		titleStyle.Render("tapgrid"),
		m.renderMeters(),
		m.bar.ViewAs(m.timeFraction()),
		hintStyle.Render(m.hint()),
	}
	for i, line := range lines {
		lines[i] = center(line, m.width)
	}
	lines = append(lines,
		renderBoard(classify(m.snap), layoutFor(m.width).left),
		"",
		center(m.help.View(m.keys), m.width),
	)
	return strings.Join(lines, "\n")
}

func (m *Model) viewResults() string {
	headline := titleStyle.Render(fmt.Sprintf("Time's up! You scored %d points.", m.snap.Score))
	body := ""
	if m.results != nil {
		body = m.results.View()
	}
	return strings.Join([]string{headline, body, "", m.help.View(m.keys)}, "\n")
}

func (m *Model) renderMeters() string {
	s := m.snap
	remaining := s.TimeRemaining
	if remaining < 0 {
		remaining = 0
	}
	avg := "-"
	if len(s.Latencies) > 0 {
		avg = fmt.Sprintf("%.0f ms %s", s.AverageMs, stats.Sparkline(s.Latencies))
	}
	segments := []string{
		fmt.Sprintf("%s %2ds", hourglass(remaining), remaining),
		fmt.Sprintf("Score %d", s.Score),
		fmt.Sprintf("Avg %s", avg),
		fmt.Sprintf("Level %.1f/%.1f", s.Level.Targets, s.Level.Distractors),
	}
	return meterStyle.Render(strings.Join(segments, "   "))
}

func (m *Model) timeFraction() float64 {
	total := m.session.Config().Duration.Seconds()
	if total <= 0 {
		return 0
	}
	f := float64(m.snap.TimeRemaining) / total
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func (m *Model) hint() string {
	switch {
	case !m.snap.ClockStarted:
		return "Hit the green cells to start the clock."
	case len(m.snap.Distractors) > 0:
		return "Leave the red cells alone."
	default:
		return ""
	}
}

// hourglass picks the glyph for the time left.
func hourglass(remaining int) string {
	switch {
	case remaining > 40:
		return "⏳"
	case remaining > 20:
		return "⧗"
	default:
		return "⌛"
	}
}

func center(line string, width int) string {
	if width <= 0 {
		return line
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
}

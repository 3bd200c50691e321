// Package tui provides the Bubble Tea dashboard interface.
package tui

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/dashsim/internal/alerts"
	"github.com/verte-zerg/dashsim/internal/export"
	"github.com/verte-zerg/dashsim/internal/logger"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/session"
	"github.com/verte-zerg/dashsim/internal/stats"
)

const (
	tabGauges = iota
	tabCharts
	tabLog
)

const (
	plotHeight = 8
	logRows    = 10
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
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0B84C"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB069"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB069")).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	modalStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Options tune the dashboard.
type Options struct {
	ExportDir   string
	Autostart   bool
	ChartWindow int
}

type tickMsg struct {
	seq int
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	session *session.Session
	opts    Options
	log     zerolog.Logger

	tickSeq int
	raised  map[model.AlertKind]bool

	tabs      []string
	activeTab int
	chartView viewport.Model
	logTable  table.Model
	gauges    []progress.Model

	width  int
	height int

	exportMode  bool
	exportInput textinput.Model

	notice string
	errMsg string
}

// NewModel constructs a dashboard model around a session.
func NewModel(sess *session.Session, opts Options) *Model {
	if opts.ChartWindow < 1 {
		opts.ChartWindow = 1
	}
	m := &Model{
		session: sess,
		opts:    opts,
		log:     logger.WithComponent("tui"),
		raised:  map[model.AlertKind]bool{},
		tabs:    []string{"Gauges", "Charts", "Log"},
	}
	m.gauges = newGaugeBars()
	m.chartView = viewport.New(0, 0)
	m.logTable = newLogTable()
	m.exportInput = newPathInput()
	if opts.Autostart {
		sess.Start()
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.session.Running() {
		return m.scheduleTick()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refresh()
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case exportDoneMsg:
		m.handleExportDone(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.exportMode {
			return m.updateExport(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.exportMode {
		return fitLines(m.renderExportModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case " ", "s":
		return m, m.toggleRunning()
	case "r":
		m.resetSession()
		return m, nil
	case "1", "2", "3":
		return m, m.setSpeed(model.SpeedModes[msg.String()[0]-'1'])
	case "e":
		return m, m.startExport()
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	default:
		switch m.activeTab {
		case tabCharts:
			var cmd tea.Cmd
			m.chartView, cmd = m.chartView.Update(msg)
			return m, cmd
		case tabLog:
			var cmd tea.Cmd
			m.logTable, cmd = m.logTable.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// scheduleTick arms one refresh tick tagged with the current sequence.
func (m *Model) scheduleTick() tea.Cmd {
	seq := m.tickSeq
	return tea.Tick(m.session.Interval(), func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.seq != m.tickSeq || !m.session.Running() {
		return nil
	}
	reading := m.session.Step()
	m.logAlertChanges(reading)
	m.refresh()
	return m.scheduleTick()
}

func (m *Model) toggleRunning() tea.Cmd {
	m.tickSeq++
	if m.session.Toggle() {
		m.notice = "Simulation started."
		m.log.Info().Str("speed", m.session.Speed().String()).Msg("simulation started")
		return m.scheduleTick()
	}
	m.notice = "Simulation stopped."
	m.log.Info().Int("samples", m.session.Len()).Msg("simulation stopped")
	return nil
}

func (m *Model) setSpeed(mode model.SpeedMode) tea.Cmd {
	if mode == m.session.Speed() {
		return nil
	}
	m.session.SetSpeed(mode)
	m.tickSeq++
	m.notice = fmt.Sprintf("Speed set to %s (%s).", mode, mode.Interval())
	m.log.Debug().Str("speed", mode.String()).Msg("speed changed")
	if m.session.Running() {
		return m.scheduleTick()
	}
	return nil
}

func (m *Model) resetSession() {
	m.tickSeq++
	samples := m.session.Len()
	m.session.Reset()
	m.raised = map[model.AlertKind]bool{}
	m.errMsg = ""
	m.notice = "Data reset complete."
	m.log.Info().Int("discarded", samples).Msg("session reset")
	m.refresh()
}

func (m *Model) logAlertChanges(r model.Reading) {
	active := m.session.Alerts()
	now := map[model.AlertKind]bool{}
	for _, a := range active {
		now[a.Kind] = true
		if !m.raised[a.Kind] {
			m.log.Warn().
				Str("kind", string(a.Kind)).
				Str("code", a.Code).
				Float64("value", a.Value).
				Float64("threshold", a.Threshold).
				Msg("alert raised")
		}
	}
	for kind := range m.raised {
		if !now[kind] {
			m.log.Info().Str("kind", string(kind)).Time("at", r.Timestamp).Msg("alert cleared")
		}
	}
	m.raised = now
}

func (m *Model) startExport() tea.Cmd {
	if m.session.Len() == 0 {
		m.errMsg = "No data to export."
		return nil
	}
	m.exportMode = true
	m.errMsg = ""
	m.exportInput.SetValue(filepath.Join(m.opts.ExportDir, export.DefaultFileName(m.session.StartedAt())))
	m.exportInput.CursorEnd()
	return m.exportInput.Focus()
}

func (m *Model) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.exportMode = false
		m.exportInput.Blur()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.exportInput.Value())
		if path == "" {
			m.errMsg = "Export path is empty."
			return m, nil
		}
		m.exportMode = false
		m.exportInput.Blur()
		m.notice = "Exporting..."
		return m, exportCmd(path, m.session.History())
	}
	var cmd tea.Cmd
	m.exportInput, cmd = m.exportInput.Update(msg)
	return m, cmd
}

func exportCmd(path string, history []model.Reading) tea.Cmd {
	return func() tea.Msg {
		err := export.WriteFile(path, history)
		return exportDoneMsg{path: path, rows: len(history), err: err}
	}
}

func (m *Model) handleExportDone(msg exportDoneMsg) {
	if msg.err != nil {
		m.notice = ""
		m.errMsg = fmt.Sprintf("Export failed: %v", msg.err)
		m.log.Error().Err(msg.err).Str("path", msg.path).Msg("export failed")
		return
	}
	m.errMsg = ""
	m.notice = fmt.Sprintf("Exported %d readings to %s", msg.rows, msg.path)
	m.log.Info().Int("rows", msg.rows).Str("path", msg.path).Msg("export written")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.notice != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.chartView.Width = m.width
	m.chartView.Height = bodyHeight
	m.logTable.SetWidth(m.width)
	m.logTable.SetHeight(min(logRows+1, max(2, bodyHeight-kpiCardsHeight(m.width)-1)))
	barWidth := gaugeBarWidth(m.width)
	for i := range m.gauges {
		m.gauges[i].Width = barWidth
	}
	promptWidth := lipgloss.Width(m.exportInput.Prompt)
	m.exportInput.Width = max(10, modalInnerWidth(m.width)-promptWidth)
}

// refresh rebuilds content that depends on the session history.
func (m *Model) refresh() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.chartView.SetContent(renderCharts(m.session.History(), m.session.Thresholds(), m.opts.ChartWindow, width))
	m.logTable.SetRows(logTableRows(m.session.Tail(logRows)))
	m.logTable.GotoBottom()
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabLog {
		m.logTable.Focus()
	} else {
		m.logTable.Blur()
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

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLine(m.renderStatus(), m.width)
}

// renderStatus shows running state, speed, sample count and active alerts.
func (m *Model) renderStatus() string {
	state := stoppedStyle.Render("STOPPED")
	if m.session.Running() {
		state = runningStyle.Render("RUNNING")
	}
	active := m.session.Alerts()
	alertText := "none"
	if len(active) > 0 {
		kinds := make([]string, 0, len(active))
		for _, a := range active {
			kinds = append(kinds, string(a.Kind))
		}
		alertText = strings.Join(kinds, ",")
	}
	rest := fmt.Sprintf("  speed=%s (%s)  samples=%d  alerts=%s",
		m.session.Speed(), m.session.Interval(), m.session.Len(), alertText)
	style := headerStyle
	switch {
	case alerts.Has(active, model.AlertOverheat):
		state += errorStyle.Bold(true).Render(" ENGINE OVERHEAT")
		style = errorStyle
	case len(active) > 0:
		style = warnStyle
	}
	rest = truncateLine(rest, max(0, m.width-lipgloss.Width(state)))
	return state + style.Render(rest)
}

func (m *Model) renderHelp() string {
	help := "Start/stop: space  Reset: r  Speed: 1/2/3  Export: e  Tabs: left/right  Quit: q"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	if m.notice != "" {
		return m.renderHelp() + "\n" + noticeStyle.Render(truncateLine(m.notice, m.width))
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	switch m.activeTab {
	case tabCharts:
		if m.session.Len() == 0 {
			return fitLines("No data yet. Press space to start the simulation.", m.width, height)
		}
		return fitLines(m.chartView.View(), m.width, height)
	case tabLog:
		return fitLines(m.renderLogTab(), m.width, height)
	default:
		return fitLines(m.renderGaugesTab(), m.width, height)
	}
}

func (m *Model) renderGaugesTab() string {
	current := m.session.Current()
	var prev *model.Reading
	if tail := m.session.Tail(2); len(tail) == 2 {
		prev = &tail[0]
	}
	active := m.session.Alerts()
	gauges := renderGauges(m.gauges, current, prev, active, m.width)
	return gauges + "\n" + renderAlertPanel(active)
}

func (m *Model) renderLogTab() string {
	cards := renderKPICards(m.session.KPI(), m.width)
	if m.session.Len() == 0 {
		return cards + "\n" + "No data recorded yet."
	}
	title := headerStyle.Render("Last Recorded Data")
	return cards + "\n" + title + "\n" + tableMutedStyle.Render(m.logTable.View())
}

func (m *Model) renderExportModal() string {
	body := []string{
		cardValueStyle.Render("Export CSV"),
		m.exportInput.View(),
		headerStyle.Render(fmt.Sprintf("%d readings will be written.", m.session.Len())),
		headerStyle.Render("Enter to save / Esc to cancel"),
	}
	if m.errMsg != "" {
		body = append(body, errorStyle.Render(m.errMsg))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func renderCharts(history []model.Reading, th model.Thresholds, window, width int) string {
	if len(history) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := stats.RenderCharts(&buf, history, th, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render charts: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newPathInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Path: "
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newLogTable() table.Model {
	columns := make([]table.Column, 0, len(stats.LogHeaders))
	widths := []int{12, 6, 7, 6, 10}
	for i, title := range stats.LogHeaders {
		columns = append(columns, table.Column{Title: title, Width: widths[i]})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(logRows+1),
	)
	t.SetStyles(logTableStyles())
	return t
}

func logTableRows(history []model.Reading) []table.Row {
	rows := stats.LogRows(history)
	out := make([]table.Row, len(rows))
	for i, row := range rows {
		out[i] = table.Row(row)
	}
	return out
}

func logTableStyles() table.Styles {
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

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	return max(10, w)
}

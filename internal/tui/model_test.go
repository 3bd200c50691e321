package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dashsim/internal/export"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/session"
	"github.com/verte-zerg/dashsim/internal/telemetry"
)

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	sess := session.New(telemetry.NewWithSeed(11), model.SimulationConfig{
		Speed:      model.SpeedNormal,
		Thresholds: model.DefaultThresholds(),
	})
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	sess.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	m := NewModel(sess, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSpaceTogglesRunning(t *testing.T) {
	m := newTestModel(t, Options{})
	if m.session.Running() {
		t.Fatalf("session should start stopped")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.session.Running() {
		t.Fatalf("space should start the session")
	}
	if cmd == nil {
		t.Fatalf("starting should schedule a tick")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.session.Running() {
		t.Fatalf("second space should stop the session")
	}
	if cmd != nil {
		t.Fatalf("stopping should not schedule a tick")
	}
}

func TestTickStepsWhileRunning(t *testing.T) {
	m := newTestModel(t, Options{Autostart: true})
	if m.Init() == nil {
		t.Fatalf("autostart should schedule the first tick")
	}
	for i := 0; i < 3; i++ {
		_, cmd := m.Update(tickMsg{seq: m.tickSeq})
		if cmd == nil {
			t.Fatalf("tick %d should reschedule", i)
		}
	}
	if m.session.Len() != 3 {
		t.Fatalf("expected 3 readings, got %d", m.session.Len())
	}
}

func TestStaleTickIgnored(t *testing.T) {
	m := newTestModel(t, Options{Autostart: true})
	stale := tickMsg{seq: m.tickSeq}
	m.Update(runeKey("3"))
	_, cmd := m.Update(stale)
	if cmd != nil || m.session.Len() != 0 {
		t.Fatalf("tick from before the speed change should be dropped")
	}

	current := tickMsg{seq: m.tickSeq}
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	_, cmd = m.Update(current)
	if cmd != nil || m.session.Len() != 0 {
		t.Fatalf("tick after stop should be dropped")
	}
}

func TestSpeedKeys(t *testing.T) {
	m := newTestModel(t, Options{})
	m.Update(runeKey("1"))
	if m.session.Speed() != model.SpeedSlow {
		t.Fatalf("expected slow, got %s", m.session.Speed())
	}
	m.Update(runeKey("3"))
	if m.session.Speed() != model.SpeedFast {
		t.Fatalf("expected fast, got %s", m.session.Speed())
	}
	if m.session.Interval() != 300*time.Millisecond {
		t.Fatalf("unexpected fast interval %s", m.session.Interval())
	}
	m.Update(runeKey("2"))
	if m.session.Speed() != model.SpeedNormal {
		t.Fatalf("expected normal, got %s", m.session.Speed())
	}
}

func TestResetKeyClearsHistory(t *testing.T) {
	m := newTestModel(t, Options{Autostart: true})
	for i := 0; i < 5; i++ {
		m.Update(tickMsg{seq: m.tickSeq})
	}
	m.Update(runeKey("r"))
	if m.session.Len() != 0 {
		t.Fatalf("expected empty history after reset, got %d", m.session.Len())
	}
	if m.session.Running() {
		t.Fatalf("reset should stop the session")
	}
	cur := m.session.Current()
	if cur.RPM != telemetry.InitialRPM || cur.Fuel != telemetry.InitialFuel {
		t.Fatalf("expected initial reading after reset, got %+v", cur)
	}
	if !strings.Contains(m.View(), "Data reset complete.") {
		t.Fatalf("expected reset notice in view")
	}
}

func TestTabsCycle(t *testing.T) {
	m := newTestModel(t, Options{})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabLog {
		t.Fatalf("left from first tab should wrap to last, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabGauges {
		t.Fatalf("right from last tab should wrap to first, got %d", m.activeTab)
	}
}

func TestViewShowsStatusAndGauges(t *testing.T) {
	m := newTestModel(t, Options{Autostart: true})
	m.Update(tickMsg{seq: m.tickSeq})
	view := m.View()
	for _, want := range []string{"RUNNING", "speed=normal", "samples=1", "Engine RPM", "Fuel Level", "Quit: q"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
	lines := strings.Split(view, "\n")
	if len(lines) != 40 {
		t.Fatalf("expected view to fill 40 lines, got %d", len(lines))
	}
}

func TestLogTabShowsLastRows(t *testing.T) {
	m := newTestModel(t, Options{Autostart: true})
	for i := 0; i < 15; i++ {
		m.Update(tickMsg{seq: m.tickSeq})
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := len(m.logTable.Rows()); got != logRows {
		t.Fatalf("expected %d log rows, got %d", logRows, got)
	}
	view := m.View()
	if !strings.Contains(view, "Last Recorded Data") || !strings.Contains(view, "Samples") {
		t.Fatalf("log tab missing table or KPI cards")
	}
}

func TestExportWithoutDataReportsError(t *testing.T) {
	m := newTestModel(t, Options{ExportDir: t.TempDir()})
	m.Update(runeKey("e"))
	if m.exportMode {
		t.Fatalf("export modal should not open without data")
	}
	if m.errMsg != "No data to export." {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
}

func TestExportWritesCSV(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, Options{ExportDir: dir, Autostart: true})
	for i := 0; i < 4; i++ {
		m.Update(tickMsg{seq: m.tickSeq})
	}
	m.Update(runeKey("e"))
	if !m.exportMode {
		t.Fatalf("expected export modal")
	}
	want := filepath.Join(dir, export.DefaultFileName(m.session.StartedAt()))
	if m.exportInput.Value() != want {
		t.Fatalf("expected default path %q, got %q", want, m.exportInput.Value())
	}
	m.Update(runeKey("q"))
	if !m.exportMode {
		t.Fatalf("typing q in the modal should not quit")
	}
	path := filepath.Join(dir, "out", "trip.csv")
	m.exportInput.SetValue(path)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected export command")
	}
	m.Update(cmd())
	if m.errMsg != "" {
		t.Fatalf("unexpected export error %q", m.errMsg)
	}
	if !strings.Contains(m.notice, "Exported 4 readings") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	readings, err := export.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(readings) != 4 {
		t.Fatalf("expected 4 exported readings, got %d", len(readings))
	}
}

func TestExportEscCancels(t *testing.T) {
	m := newTestModel(t, Options{ExportDir: t.TempDir(), Autostart: true})
	m.Update(tickMsg{seq: m.tickSeq})
	m.Update(runeKey("e"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.exportMode || cmd != nil {
		t.Fatalf("esc should close the modal without exporting")
	}
}

func TestStatusFlagsOverheat(t *testing.T) {
	m := newTestModel(t, Options{})
	if strings.Contains(m.renderStatus(), "ENGINE OVERHEAT") {
		t.Fatalf("idle status should not flag overheat")
	}

	th := model.DefaultThresholds()
	th.OverheatTemp = 1
	sess := session.New(telemetry.NewWithSeed(11), model.SimulationConfig{
		Speed:      model.SpeedNormal,
		Thresholds: th,
	})
	sess.Step()
	m = NewModel(sess, Options{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	status := m.renderStatus()
	if !strings.Contains(status, "ENGINE OVERHEAT") || !strings.Contains(status, string(model.AlertOverheat)) {
		t.Fatalf("expected overheat in status, got %q", status)
	}
}

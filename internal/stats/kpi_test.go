package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/dashsim/internal/model"
)

func TestSummarize(t *testing.T) {
	start := time.Unix(0, 0)
	history := []model.Reading{
		{Timestamp: start, RPM: 1000, Speed: 0, Temperature: 80, Fuel: 50},
		{Timestamp: start.Add(time.Hour), RPM: 3000, Speed: 60, Temperature: 100, Fuel: 49},
		{Timestamp: start.Add(2 * time.Hour), RPM: 6200, Speed: 60, Temperature: 110, Fuel: 8},
	}
	kpi := Summarize(history, model.DefaultThresholds())
	if kpi.Samples != 3 || kpi.Elapsed != 2*time.Hour {
		t.Fatalf("unexpected size: %+v", kpi)
	}
	if math.Abs(kpi.AvgRPM-3400) > 1e-9 || kpi.PeakRPM != 6200 {
		t.Fatalf("unexpected rpm rollup: %+v", kpi)
	}
	if kpi.TopSpeed != 60 || kpi.PeakTemp != 110 || kpi.FuelUsed != 42 {
		t.Fatalf("unexpected rollup: %+v", kpi)
	}
	// 30 km in the first hour, 60 km in the second.
	if math.Abs(kpi.DistanceKm-90) > 1e-9 {
		t.Fatalf("expected 90 km, got %v", kpi.DistanceKm)
	}
	if kpi.AlertReadings[model.AlertOverheat] != 1 || kpi.AlertReadings[model.AlertLowFuel] != 1 || kpi.AlertReadings[model.AlertRPMLimit] != 1 {
		t.Fatalf("unexpected alert counts: %v", kpi.AlertReadings)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	kpi := Summarize(nil, model.DefaultThresholds())
	if kpi.Samples != 0 || kpi.AvgRPM != 0 {
		t.Fatalf("expected zero KPI, got %+v", kpi)
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, kpi); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No readings recorded.") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); len(got) != 3 {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline([]float64{10, 0, 5}); got != "@ +" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestRenderTrendsShrinksToWidth(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrends(&buf, sampleHistory(30), 10); err != nil {
		t.Fatalf("render trends: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+len(model.Channels) || lines[0] != "Trends" {
		t.Fatalf("unexpected trends output:\n%s", buf.String())
	}
	for _, line := range lines[1:] {
		if len(line) != trendLabelWidth+1+10 {
			t.Fatalf("expected %d columns, got %q", trendLabelWidth+11, line)
		}
	}
	if !strings.HasPrefix(lines[4], "fuel ") {
		t.Fatalf("expected fuel last, got %q", lines[4])
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(3*time.Hour + 4*time.Minute + 5*time.Second); got != "3:04:05" {
		t.Fatalf("unexpected elapsed %q", got)
	}
}

func TestRenderLogKeepsLastRows(t *testing.T) {
	history := sampleHistory(15)
	var buf bytes.Buffer
	if err := RenderLog(&buf, history, 10); err != nil {
		t.Fatalf("render log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// title + header + 10 rows
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d", len(lines))
	}
}

// Package stats contains telemetry rollups and text rendering.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/dashsim/internal/alerts"
	"github.com/verte-zerg/dashsim/internal/model"
)

const (
	sparkChars      = " .:-=+*#%@"
	trendLabelWidth = 11
)

// Summarize computes KPI rollups over a history.
func Summarize(history []model.Reading, th model.Thresholds) model.KPI {
	kpi := model.KPI{
		Samples:       len(history),
		AlertReadings: alerts.Counts(history, th),
	}
	if len(history) == 0 {
		return kpi
	}
	first := history[0]
	last := history[len(history)-1]
	kpi.Elapsed = last.Timestamp.Sub(first.Timestamp)
	kpi.FuelUsed = first.Fuel - last.Fuel

	var sumRPM, sumSpeed, sumTemp float64
	for i, r := range history {
		sumRPM += r.RPM
		sumSpeed += r.Speed
		sumTemp += r.Temperature
		if i == 0 || r.RPM > kpi.PeakRPM {
			kpi.PeakRPM = r.RPM
		}
		if i == 0 || r.Speed > kpi.TopSpeed {
			kpi.TopSpeed = r.Speed
		}
		if i == 0 || r.Temperature > kpi.PeakTemp {
			kpi.PeakTemp = r.Temperature
		}
		if i > 0 {
			prev := history[i-1]
			hours := r.Timestamp.Sub(prev.Timestamp).Hours()
			if hours > 0 {
				kpi.DistanceKm += (prev.Speed + r.Speed) / 2 * hours
			}
		}
	}
	n := float64(len(history))
	kpi.AvgRPM = sumRPM / n
	kpi.AvgSpeed = sumSpeed / n
	kpi.AvgTemp = sumTemp / n
	return kpi
}

// ChannelValues extracts one channel from a history.
func ChannelValues(history []model.Reading, ch model.Channel) []float64 {
	out := make([]float64, len(history))
	for i, r := range history {
		out[i] = r.Value(ch)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatElapsed renders a duration as h:mm:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// RenderSummary prints KPI rollups for a history.
func RenderSummary(w io.Writer, kpi model.KPI) error {
	if kpi.Samples == 0 {
		_, err := fmt.Fprintln(w, "No readings recorded.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Samples: %d", kpi.Samples),
		fmt.Sprintf("Elapsed: %s", FormatElapsed(kpi.Elapsed)),
		fmt.Sprintf("Avg RPM: %.0f (peak %.0f)", kpi.AvgRPM, kpi.PeakRPM),
		fmt.Sprintf("Avg Speed: %.1f km/h (top %.1f)", kpi.AvgSpeed, kpi.TopSpeed),
		fmt.Sprintf("Avg Temp: %.1f °C (peak %.1f)", kpi.AvgTemp, kpi.PeakTemp),
		fmt.Sprintf("Fuel Used: %.2f%%", kpi.FuelUsed),
		fmt.Sprintf("Distance: %.2f km", kpi.DistanceKm),
	}
	for _, kind := range model.AlertKinds {
		lines = append(lines, fmt.Sprintf("%s: %d readings", alerts.Describe(kind), kpi.AlertReadings[kind]))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrends prints one sparkline per channel, shrunk to width columns.
func RenderTrends(w io.Writer, history []model.Reading, width int) error {
	if len(history) == 0 {
		return nil
	}
	if width <= 0 {
		width = len(history)
	}
	if _, err := fmt.Fprintln(w, "Trends"); err != nil {
		return err
	}
	for _, ch := range model.Channels {
		values := resampleSeries(ChannelValues(history, ch), width)
		if _, err := fmt.Fprintf(w, "%-*s %s\n", trendLabelWidth, ch, Sparkline(values)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCharts prints the engine and vehicle line charts with the alert
// limits drawn as reference lines.
func RenderCharts(w io.Writer, history []model.Reading, th model.Thresholds, window, totalWidth, height int, useColor bool) error {
	if len(history) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	smooth := func(ch model.Channel) []float64 {
		return MovingAverage(ChannelValues(history, ch), window)
	}
	engine := Chart{
		Title:  "Engine RPM",
		Series: []Series{{Name: "RPM", Values: smooth(model.ChannelRPM), Limits: []float64{th.RPMLimit}}},
		Width:  width,
		Height: height,
	}
	if err := engine.Render(w, useColor); err != nil {
		return err
	}
	vehicle := Chart{
		Title: "Vehicle",
		Series: []Series{
			{Name: "Speed", Values: smooth(model.ChannelSpeed)},
			{Name: "Temp", Values: smooth(model.ChannelTemperature), Limits: []float64{th.OverheatTemp}},
			{Name: "Fuel", Values: smooth(model.ChannelFuel), Limits: []float64{th.LowFuel}},
		},
		Width:  width,
		Height: height,
	}
	return vehicle.Render(w, useColor)
}

// LogRows formats readings as table rows for display.
func LogRows(history []model.Reading) [][]string {
	rows := make([][]string, 0, len(history))
	for _, r := range history {
		rows = append(rows, []string{
			r.Timestamp.Format("15:04:05.000"),
			fmt.Sprintf("%.0f", r.RPM),
			fmt.Sprintf("%.1f", r.Speed),
			fmt.Sprintf("%.1f", r.Temperature),
			fmt.Sprintf("%.1f", r.Fuel),
		})
	}
	return rows
}

// LogHeaders names the LogRows columns.
var LogHeaders = []string{"Time", "RPM", "Speed", "Temp", "Fuel Level"}

// RenderLog prints the last readings as an aligned table.
func RenderLog(w io.Writer, history []model.Reading, last int) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No data recorded yet.")
		return err
	}
	if last > 0 && len(history) > last {
		history = history[len(history)-last:]
	}
	if _, err := fmt.Fprintln(w, "Last Recorded Data"); err != nil {
		return err
	}
	table := textTable{
		headers: LogHeaders,
		rows:    LogRows(history),
		right:   map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, line := range table.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

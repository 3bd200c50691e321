package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dashsim/internal/alerts"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/stats"
)

var (
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	alertCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#FF4D4F"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	alertValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	okStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB069"))
)

// gauge describes one dashboard dial.
type gauge struct {
	channel model.Channel
	title   string
	unit    string
	format  string
	max     float64
	color   string
}

var gaugeSpecs = []gauge{
	{channel: model.ChannelRPM, title: "Engine RPM", unit: "rpm", format: "%.0f", max: 7000, color: "#C89A3A"},
	{channel: model.ChannelSpeed, title: "Speed", unit: "km/h", format: "%.1f", max: 250, color: "#5B8FF9"},
	{channel: model.ChannelTemperature, title: "Engine Temp", unit: "°C", format: "%.1f", max: 150, color: "#E8684A"},
	{channel: model.ChannelFuel, title: "Fuel Level", unit: "%", format: "%.1f", max: 100, color: "#7FB069"},
}

const minGaugeBar = 10

func newGaugeBars() []progress.Model {
	bars := make([]progress.Model, len(gaugeSpecs))
	for i, g := range gaugeSpecs {
		bars[i] = progress.New(
			progress.WithSolidFill(g.color),
			progress.WithoutPercentage(),
			progress.WithWidth(minGaugeBar*2),
		)
	}
	return bars
}

// gaugeBarWidth fits four cards on one row when the terminal allows it,
// otherwise two per row.
func gaugeBarWidth(width int) int {
	perRow := 4
	if width < 100 {
		perRow = 2
	}
	// card border and padding take 4 cells
	return max(minGaugeBar, width/perRow-4)
}

func gaugeFraction(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return min(1, max(0, v/limit))
}

func renderGauge(g gauge, bar progress.Model, value float64, delta *float64, alert *model.Alert) string {
	title := cardTitleStyle.Render(g.title)
	valueText := fmt.Sprintf(g.format+" %s", value, g.unit)
	valueLine := cardValueStyle.Render(valueText)
	style := cardStyle
	if alert != nil {
		title = cardTitleStyle.Render(g.title + "  " + alert.Code)
		valueLine = alertValueStyle.Render(valueText)
		style = alertCardStyle
	}
	if delta != nil {
		valueLine += " " + cardTitleStyle.Render(fmt.Sprintf("%+"+g.format[1:], *delta))
	}
	scale := cardTitleStyle.Render(fmt.Sprintf("0..%.0f", g.max))
	content := strings.Join([]string{title, valueLine, bar.ViewAs(gaugeFraction(value, g.max)), scale}, "\n")
	return style.Render(content)
}

func renderGauges(bars []progress.Model, current model.Reading, prev *model.Reading, active []model.Alert, width int) string {
	cards := make([]string, len(gaugeSpecs))
	for i, g := range gaugeSpecs {
		var delta *float64
		if prev != nil {
			d := current.Value(g.channel) - prev.Value(g.channel)
			delta = &d
		}
		var alert *model.Alert
		if a, ok := alerts.ForChannel(active, g.channel); ok {
			alert = &a
		}
		cards[i] = renderGauge(g, bars[i], current.Value(g.channel), delta, alert)
	}
	if width >= 100 {
		return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func renderAlertPanel(active []model.Alert) string {
	if len(active) == 0 {
		return okStyle.Render("All systems nominal")
	}
	lines := make([]string, 0, len(active))
	for _, a := range active {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("%s %s %s: %.1f (limit %.1f)",
			a.Severity, a.Code, alerts.Describe(a.Kind), a.Value, a.Threshold)))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderKPICards(kpi model.KPI, width int) string {
	cards := []string{
		metricCard("Samples", fmt.Sprintf("%d", kpi.Samples)),
		metricCard("Elapsed", stats.FormatElapsed(kpi.Elapsed)),
		metricCard("Avg RPM", fmt.Sprintf("%.0f", kpi.AvgRPM)),
		metricCard("Top Speed", fmt.Sprintf("%.1f km/h", kpi.TopSpeed)),
		metricCard("Fuel Used", fmt.Sprintf("%.2f%%", kpi.FuelUsed)),
		metricCard("Distance", fmt.Sprintf("%.2f km", kpi.DistanceKm)),
	}
	if width >= 100 {
		return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func kpiCardsHeight(width int) int {
	return lipgloss.Height(renderKPICards(model.KPI{}, width))
}

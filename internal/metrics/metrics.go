// Package metrics tracks dashboard activity as Prometheus series.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verte-zerg/dashsim/internal/model"
)

// Metrics holds the dashboard's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ReadingsTotal prometheus.Counter
	AlertsTotal   *prometheus.CounterVec
	ResetsTotal   prometheus.Counter
	ChannelValue  *prometheus.GaugeVec
	HistoryLength prometheus.Gauge
}

// New registers the dashboard collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ReadingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashsim_readings_total",
			Help: "Total number of generated readings",
		}),
		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashsim_alerts_total",
			Help: "Total number of readings that raised an alert",
		}, []string{"kind"}),
		ResetsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashsim_resets_total",
			Help: "Total number of session resets",
		}),
		ChannelValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashsim_channel_value",
			Help: "Latest value of each telemetry channel",
		}, []string{"channel"}),
		HistoryLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashsim_history_length",
			Help: "Number of readings in the current session",
		}),
	}
}

// ObserveReading records one refresh.
func (m *Metrics) ObserveReading(r model.Reading, active []model.Alert, historyLen int) {
	m.ReadingsTotal.Inc()
	for _, ch := range model.Channels {
		m.ChannelValue.WithLabelValues(ch.String()).Set(r.Value(ch))
	}
	for _, a := range active {
		m.AlertsTotal.WithLabelValues(string(a.Kind)).Inc()
	}
	m.HistoryLength.Set(float64(historyLen))
}

// ObserveReset records a session reset.
func (m *Metrics) ObserveReset() {
	m.ResetsTotal.Inc()
	m.HistoryLength.Set(0)
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

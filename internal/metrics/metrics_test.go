package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/verte-zerg/dashsim/internal/model"
)

func TestObserveReading(t *testing.T) {
	m := New()
	r := model.Reading{RPM: 6100, Speed: 80, Temperature: 90, Fuel: 40}
	m.ObserveReading(r, []model.Alert{{Kind: model.AlertRPMLimit}}, 1)
	m.ObserveReading(r, nil, 2)

	if got := testutil.ToFloat64(m.ReadingsTotal); got != 2 {
		t.Fatalf("expected 2 readings, got %v", got)
	}
	if got := testutil.ToFloat64(m.AlertsTotal.WithLabelValues(string(model.AlertRPMLimit))); got != 1 {
		t.Fatalf("expected 1 rpm alert, got %v", got)
	}
	if got := testutil.ToFloat64(m.ChannelValue.WithLabelValues("speed")); got != 80 {
		t.Fatalf("expected speed gauge 80, got %v", got)
	}
	if got := testutil.ToFloat64(m.HistoryLength); got != 2 {
		t.Fatalf("expected history length 2, got %v", got)
	}

	m.ObserveReset()
	if got := testutil.ToFloat64(m.HistoryLength); got != 0 {
		t.Fatalf("expected history length reset, got %v", got)
	}
	if got := testutil.ToFloat64(m.ResetsTotal); got != 1 {
		t.Fatalf("expected 1 reset, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveReading(model.Reading{RPM: 900, Fuel: 100}, nil, 1)
	path := filepath.Join(t.TempDir(), "textfile", "dashsim.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{"dashsim_readings_total 1", `dashsim_channel_value{channel="rpm"} 900`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, out)
		}
	}
}

func TestGathererExposesSeries(t *testing.T) {
	m := New()
	m.ObserveReading(model.Reading{RPM: 6100, Temperature: 110, Fuel: 5}, []model.Alert{
		{Kind: model.AlertOverheat},
		{Kind: model.AlertLowFuel},
		{Kind: model.AlertRPMLimit},
	}, 1)
	count, err := testutil.GatherAndCount(m.Gatherer(), "dashsim_alerts_total", "dashsim_channel_value")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != len(model.AlertKinds)+len(model.Channels) {
		t.Fatalf("expected %d series, got %d", len(model.AlertKinds)+len(model.Channels), count)
	}
}

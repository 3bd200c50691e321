package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/telemetry"
)

func TestSaveAndLoadSession(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "snap", "dashsim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	gen := telemetry.NewWithSeed(11)
	start := time.Date(2024, 3, 1, 8, 0, 0, 123456789, time.UTC)
	prev := telemetry.Initial(start)
	var readings []model.Reading
	for i := 1; i <= 25; i++ {
		prev = gen.Next(prev, start.Add(time.Duration(i)*time.Second))
		readings = append(readings, prev)
	}

	ctx := context.Background()
	rec := model.SessionRecord{
		StartedAt: start,
		EndedAt:   readings[len(readings)-1].Timestamp,
		Speed:     model.SpeedFast,
		Seed:      11,
	}
	id, err := st.SaveSession(ctx, rec, readings)
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated session id")
	}

	got, err := st.LoadReadings(ctx, id)
	if err != nil {
		t.Fatalf("load readings: %v", err)
	}
	if len(got) != len(readings) {
		t.Fatalf("expected %d readings, got %d", len(readings), len(got))
	}
	for i := range readings {
		if !got[i].Timestamp.Equal(readings[i].Timestamp) ||
			got[i].RPM != readings[i].RPM ||
			got[i].Speed != readings[i].Speed ||
			got[i].Temperature != readings[i].Temperature ||
			got[i].Fuel != readings[i].Fuel {
			t.Fatalf("reading %d mismatch: %+v vs %+v", i, got[i], readings[i])
		}
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != id || sessions[0].Samples != 25 || sessions[0].Speed != model.SpeedFast {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	latest, err := st.LatestSessionID(ctx)
	if err != nil || latest != id {
		t.Fatalf("expected latest %s, got %s (%v)", id, latest, err)
	}
}

func TestLatestSessionIDEmpty(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	if _, err := st.LatestSessionID(context.Background()); err == nil {
		t.Fatalf("expected error for empty store")
	}
}

package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/telemetry"
)

func generated(n int) []model.Reading {
	gen := telemetry.NewWithSeed(8)
	start := time.Date(2024, 1, 2, 3, 4, 5, 678901234, time.UTC)
	prev := telemetry.Initial(start)
	out := make([]model.Reading, 0, n)
	for i := 1; i <= n; i++ {
		prev = gen.Next(prev, start.Add(time.Duration(i)*333*time.Millisecond))
		out = append(out, prev)
	}
	return out
}

func assertSameHistory(t *testing.T, got, want []model.Reading) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d readings, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Timestamp.Equal(want[i].Timestamp) ||
			got[i].RPM != want[i].RPM ||
			got[i].Speed != want[i].Speed ||
			got[i].Temperature != want[i].Temperature ||
			got[i].Fuel != want[i].Fuel {
			t.Fatalf("reading %d mismatch: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	history := generated(200)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, history); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	assertSameHistory(t, got, history)
}

func TestCSVHeaderAndRows(t *testing.T) {
	history := []model.Reading{{
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RPM:         900,
		Speed:       0,
		Temperature: 75.25,
		Fuel:        99.95,
	}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, history); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "timestamp,rpm,speed,temperature,fuel\n2024-01-01T00:00:00Z,900,0,75.25,99.95\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestEmptyHistoryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no readings, got %d", len(got))
	}
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"bad header": "time,rpm,speed,temperature,fuel\n",
		"short row":  "timestamp,rpm,speed,temperature,fuel\n2024-01-01T00:00:00Z,900,0,75\n",
		"bad float":  "timestamp,rpm,speed,temperature,fuel\n2024-01-01T00:00:00Z,abc,0,75,100\n",
		"bad time":   "timestamp,rpm,speed,temperature,fuel\nyesterday,900,0,75,100\n",
	}
	for name, input := range cases {
		if _, err := ReadCSV(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestReadCSVReportsLine(t *testing.T) {
	input := "timestamp,rpm,speed,temperature,fuel\n" +
		"2024-01-01T00:00:00Z,900,0,75,100\n" +
		"2024-01-01T00:00:01Z,900,x,75,100\n"
	_, err := ReadCSV(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "csv line 3") || !strings.Contains(err.Error(), "speed") {
		t.Fatalf("expected line-numbered speed error, got %v", err)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	history := generated(20)
	path := filepath.Join(t.TempDir(), "out", DefaultFileName(history[0].Timestamp))
	if err := WriteFile(path, history); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	assertSameHistory(t, got, history)
}

// Package export writes and reads session history as CSV.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/verte-zerg/dashsim/internal/model"
)

// Columns is the CSV header, one column per Reading field.
var Columns = []string{"timestamp", "rpm", "speed", "temperature", "fuel"}

// WriteCSV writes a header row then one row per reading.
func WriteCSV(w io.Writer, history []model.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range history {
		if err := cw.Write(encodeRow(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeRow(r model.Reading) []string {
	return []string{
		r.Timestamp.Format(time.RFC3339Nano),
		formatFloat(r.RPM),
		formatFloat(r.Speed),
		formatFloat(r.Temperature),
		formatFloat(r.Fuel),
	}
}

// formatFloat uses the shortest form that parses back to the same value.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]model.Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected csv column %d: got %q, want %q", i+1, header[i], col)
		}
	}

	var out []model.Reading
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		reading, err := decodeRow(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, reading)
	}
	return out, nil
}

func decodeRow(record []string) (model.Reading, error) {
	var r model.Reading
	ts, err := time.Parse(time.RFC3339Nano, record[0])
	if err != nil {
		return r, fmt.Errorf("invalid timestamp %q: %w", record[0], err)
	}
	r.Timestamp = ts
	fields := []*float64{&r.RPM, &r.Speed, &r.Temperature, &r.Fuel}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return r, fmt.Errorf("invalid %s %q: %w", Columns[i+1], record[i+1], err)
		}
		*dst = v
	}
	return r, nil
}

// WriteFile writes history to path through a temp file and rename.
func WriteFile(path string, history []model.Reading) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := WriteCSV(writer, history); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ReadFile parses a CSV export from disk.
func ReadFile(path string) ([]model.Reading, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only export.
			_ = cerr
		}
	}()
	return ReadCSV(bufio.NewReader(file))
}

// DefaultFileName names an export after the session start time.
func DefaultFileName(startedAt time.Time) string {
	return fmt.Sprintf("telemetry-%s.csv", startedAt.Format("20060102-150405"))
}

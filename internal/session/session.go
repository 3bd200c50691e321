// Package session owns the running dashboard state.
package session

import (
	"time"

	"github.com/verte-zerg/dashsim/internal/alerts"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/stats"
	"github.com/verte-zerg/dashsim/internal/telemetry"
)

// Recorder observes session activity.
type Recorder interface {
	ObserveReading(r model.Reading, active []model.Alert, historyLen int)
	ObserveReset()
}

// Session holds the history of one dashboard run. It has a single writer:
// the refresh path that calls Step.
type Session struct {
	gen        *telemetry.Generator
	thresholds model.Thresholds
	speed      model.SpeedMode
	seed       int64
	now        func() time.Time
	recorder   Recorder

	running   bool
	startedAt time.Time
	current   model.Reading
	history   []model.Reading
	alerts    []model.Alert
}

// New constructs a stopped session at the initial reading.
func New(gen *telemetry.Generator, cfg model.SimulationConfig) *Session {
	s := &Session{
		gen:        gen,
		thresholds: cfg.Thresholds,
		speed:      cfg.Speed,
		seed:       cfg.Seed,
		now:        time.Now,
	}
	s.clear()
	return s
}

// SetClock replaces the timestamp source.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
	s.current.Timestamp = now()
	s.startedAt = s.current.Timestamp
}

// SetRecorder attaches an observer for readings and resets.
func (s *Session) SetRecorder(r Recorder) {
	s.recorder = r
}

// Start resumes refreshing.
func (s *Session) Start() {
	s.running = true
}

// Stop halts refreshing. History is kept.
func (s *Session) Stop() {
	s.running = false
}

// Toggle flips between running and stopped and returns the new state.
func (s *Session) Toggle() bool {
	s.running = !s.running
	return s.running
}

// Running reports whether the refresh loop should keep stepping.
func (s *Session) Running() bool {
	return s.running
}

// SetSpeed changes the refresh cadence.
func (s *Session) SetSpeed(mode model.SpeedMode) {
	s.speed = mode
}

// Speed returns the current speed mode.
func (s *Session) Speed() model.SpeedMode {
	return s.speed
}

// Interval returns the refresh interval for the current speed mode.
func (s *Session) Interval() time.Duration {
	return s.speed.Interval()
}

// Seed returns the generator seed the session was configured with.
func (s *Session) Seed() int64 {
	return s.seed
}

// Thresholds returns the alert limits in use.
func (s *Session) Thresholds() model.Thresholds {
	return s.thresholds
}

// Step generates the next reading, appends it and re-evaluates alerts.
func (s *Session) Step() model.Reading {
	next := s.gen.Next(s.current, s.now())
	s.current = next
	s.history = append(s.history, next)
	s.alerts = alerts.Evaluate(next, s.thresholds)
	if s.recorder != nil {
		s.recorder.ObserveReading(next, s.alerts, len(s.history))
	}
	return next
}

// Reset stops the session, clears history and restores the initial reading.
func (s *Session) Reset() {
	s.clear()
	if s.recorder != nil {
		s.recorder.ObserveReset()
	}
}

func (s *Session) clear() {
	at := s.now()
	s.running = false
	s.startedAt = at
	s.current = telemetry.Initial(at)
	s.history = nil
	s.alerts = nil
}

// Current returns the latest reading, or the initial reading when empty.
func (s *Session) Current() model.Reading {
	return s.current
}

// History returns a copy of all readings in insertion order.
func (s *Session) History() []model.Reading {
	out := make([]model.Reading, len(s.history))
	copy(out, s.history)
	return out
}

// Tail returns a copy of the last n readings.
func (s *Session) Tail(n int) []model.Reading {
	if n <= 0 || len(s.history) == 0 {
		return nil
	}
	start := len(s.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]model.Reading, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// Len returns the number of readings recorded.
func (s *Session) Len() int {
	return len(s.history)
}

// Alerts returns the alerts raised by the latest reading.
func (s *Session) Alerts() []model.Alert {
	out := make([]model.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// StartedAt returns when the session was created or last reset.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// KPI summarizes the current history.
func (s *Session) KPI() model.KPI {
	return stats.Summarize(s.history, s.thresholds)
}

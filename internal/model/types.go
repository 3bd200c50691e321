// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Reading is one timestamped telemetry sample.
type Reading struct {
	Timestamp   time.Time
	RPM         float64
	Speed       float64
	Temperature float64
	Fuel        float64
}

// Channel identifies one telemetry channel of a Reading.
type Channel int

const (
	ChannelRPM Channel = iota
	ChannelSpeed
	ChannelTemperature
	ChannelFuel
)

// Channels lists every channel in display order.
var Channels = []Channel{ChannelRPM, ChannelSpeed, ChannelTemperature, ChannelFuel}

var channelNames = map[Channel]string{
	ChannelRPM:         "rpm",
	ChannelSpeed:       "speed",
	ChannelTemperature: "temperature",
	ChannelFuel:        "fuel",
}

func (c Channel) String() string {
	if n, ok := channelNames[c]; ok {
		return n
	}
	return "unknown"
}

// Value returns the reading's value for a channel.
func (r Reading) Value(c Channel) float64 {
	switch c {
	case ChannelRPM:
		return r.RPM
	case ChannelSpeed:
		return r.Speed
	case ChannelTemperature:
		return r.Temperature
	case ChannelFuel:
		return r.Fuel
	default:
		return 0
	}
}

// Bounds limits a channel's random walk.
type Bounds struct {
	Min  float64
	Max  float64
	Step float64
}

// Clamp restricts v to [Min, Max].
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Contains reports whether v lies within [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Physical bounds of each channel.
var (
	RPMBounds         = Bounds{Min: 800, Max: 6500, Step: 150}
	SpeedBounds       = Bounds{Min: 0, Max: 220, Step: 5}
	TemperatureBounds = Bounds{Min: 70, Max: 120, Step: 0.3}
	FuelBounds        = Bounds{Min: 0, Max: 100, Step: 0.05}
)

// BoundsFor returns the walk bounds of a channel.
func BoundsFor(c Channel) Bounds {
	switch c {
	case ChannelRPM:
		return RPMBounds
	case ChannelSpeed:
		return SpeedBounds
	case ChannelTemperature:
		return TemperatureBounds
	default:
		return FuelBounds
	}
}

// AlertKind names a threshold breach.
type AlertKind string

const (
	AlertOverheat AlertKind = "OVERHEAT"
	AlertLowFuel  AlertKind = "LOW_FUEL"
	AlertRPMLimit AlertKind = "RPM_LIMIT"
)

// AlertKinds lists every kind in evaluation order.
var AlertKinds = []AlertKind{AlertOverheat, AlertLowFuel, AlertRPMLimit}

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert is a threshold breach derived from a Reading.
type Alert struct {
	Kind      AlertKind
	Severity  AlertSeverity
	Code      string
	Value     float64
	Threshold float64
	Reading   Reading
}

// Thresholds holds the fixed alert limits.
type Thresholds struct {
	OverheatTemp float64
	LowFuel      float64
	RPMLimit     float64
}

// DefaultThresholds returns the built-in alert limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OverheatTemp: 105,
		LowFuel:      10,
		RPMLimit:     6000,
	}
}

// SpeedMode selects the refresh cadence.
type SpeedMode int

const (
	SpeedSlow SpeedMode = iota
	SpeedNormal
	SpeedFast
)

// SpeedModes lists every mode from slowest to fastest.
var SpeedModes = []SpeedMode{SpeedSlow, SpeedNormal, SpeedFast}

func (s SpeedMode) String() string {
	switch s {
	case SpeedSlow:
		return "slow"
	case SpeedFast:
		return "fast"
	default:
		return "normal"
	}
}

// Interval returns the refresh interval for the mode.
func (s SpeedMode) Interval() time.Duration {
	switch s {
	case SpeedSlow:
		return 2 * time.Second
	case SpeedFast:
		return 300 * time.Millisecond
	default:
		return time.Second
	}
}

// ParseSpeedMode parses slow, normal or fast.
func ParseSpeedMode(s string) (SpeedMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slow":
		return SpeedSlow, nil
	case "normal", "":
		return SpeedNormal, nil
	case "fast":
		return SpeedFast, nil
	default:
		return SpeedNormal, fmt.Errorf("unknown speed mode %q (use slow, normal or fast)", s)
	}
}

// SimulationConfig defines dashboard settings.
type SimulationConfig struct {
	Speed      SpeedMode
	Seed       int64
	Thresholds Thresholds
}

// KPI summarizes a history.
type KPI struct {
	Samples       int
	Elapsed       time.Duration
	AvgRPM        float64
	PeakRPM       float64
	AvgSpeed      float64
	TopSpeed      float64
	AvgTemp       float64
	PeakTemp      float64
	FuelUsed      float64
	DistanceKm    float64
	AlertReadings map[AlertKind]int
}

// SessionRecord describes a stored session snapshot.
type SessionRecord struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Speed     SpeedMode
	Seed      int64
	Samples   int
}

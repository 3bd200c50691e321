// Package telemetry produces synthetic vehicle readings.
package telemetry

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/dashsim/internal/model"
)

// Initial channel values for a fresh session.
const (
	InitialRPM         = 900
	InitialSpeed       = 0
	InitialTemperature = 75
	InitialFuel        = 100
)

// Generator walks each channel by a bounded random delta.
type Generator struct {
	rnd *rand.Rand
}

// NewWithSeed returns a Generator with a fixed seed for reproducible runs.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Initial returns the starting reading stamped at the given time.
func Initial(at time.Time) model.Reading {
	return model.Reading{
		Timestamp:   at,
		RPM:         InitialRPM,
		Speed:       InitialSpeed,
		Temperature: InitialTemperature,
		Fuel:        InitialFuel,
	}
}

// Next derives the following reading from prev. Fuel never increases.
func (g *Generator) Next(prev model.Reading, at time.Time) model.Reading {
	return model.Reading{
		Timestamp:   at,
		RPM:         walk(g.rnd, prev.RPM, model.RPMBounds),
		Speed:       walk(g.rnd, prev.Speed, model.SpeedBounds),
		Temperature: walk(g.rnd, prev.Temperature, model.TemperatureBounds),
		Fuel:        drain(g.rnd, prev.Fuel, model.FuelBounds),
	}
}

func walk(rnd *rand.Rand, current float64, b model.Bounds) float64 {
	delta := (rnd.Float64()*2 - 1) * b.Step
	return b.Clamp(current + delta)
}

func drain(rnd *rand.Rand, current float64, b model.Bounds) float64 {
	next := b.Clamp(current - rnd.Float64()*b.Step)
	// An out-of-range previous value above Max still must not rise.
	if next > current {
		return current
	}
	return next
}

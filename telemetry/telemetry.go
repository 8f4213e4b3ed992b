// Package telemetry holds the data model shared by every stage of the power
// distribution pipeline: battery and inverter samples, the bounds they carry,
// and the request/result shapes that cross the actor boundary.
package telemetry

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// PowerBounds is the 4-tuple (inclusion lower, exclusion lower, exclusion
// upper, inclusion upper) of watts describing a device's operating envelope.
// The inclusion interval is the full envelope; the open interval between the
// exclusion bounds, excluding 0, is a forbidden operating zone (e.g. an
// inverter's minimum dwell power). Any field may be NaN meaning "unknown".
type PowerBounds struct {
	InclLower float64
	ExclLower float64
	ExclUpper float64
	InclUpper float64
}

// IsFinite returns true if every field of the bounds is a finite number.
func (b PowerBounds) IsFinite() bool {
	return isFinite(b.InclLower) && isFinite(b.ExclLower) && isFinite(b.ExclUpper) && isFinite(b.InclUpper)
}

// SoCBounds constrains usable state-of-charge, e.g. 20..80%.
type SoCBounds struct {
	Lower float64
	Upper float64
}

// BatterySample is a point-in-time reading from a battery.
type BatterySample struct {
	ID          int
	SoC         float64
	SoCBounds   SoCBounds
	CapacityWh  float64
	PowerBounds PowerBounds
	Timestamp   time.Time
}

// IsFiniteForDistribution reports whether every field the distribution
// algorithm cares about is finite: SoC, its bounds, capacity, and the power
// bounds.
func (b BatterySample) IsFiniteForDistribution() bool {
	return isFinite(b.SoC) &&
		isFinite(b.SoCBounds.Lower) &&
		isFinite(b.SoCBounds.Upper) &&
		isFinite(b.CapacityWh) &&
		b.PowerBounds.IsFinite()
}

// InverterSample is a point-in-time reading from an inverter.
type InverterSample struct {
	ID          int
	PowerBounds PowerBounds
	Timestamp   time.Time
}

// IsFiniteForDistribution reports whether the inverter's power bounds are finite.
func (s InverterSample) IsFiniteForDistribution() bool {
	return s.PowerBounds.IsFinite()
}

// Request asks the actor to distribute Power across the given batteries.
// Positive power charges the batteries (consume from grid), negative
// discharges them (supply to grid).
type Request struct {
	// ID correlates this request with its result in logs and the persisted
	// audit trail.
	ID                     uuid.UUID
	Namespace              string
	Power                  float64
	Batteries              map[int]struct{}
	RequestTimeout         time.Duration
	AdjustPower            bool // default true
	IncludeBrokenBatteries bool // default false
}

// NewRequest returns a Request with a fresh ID and the documented defaults
// (AdjustPower=true, IncludeBrokenBatteries=false) applied, since the zero
// values of the Go bools don't match those defaults.
func NewRequest(namespace string, power float64, batteries []int, timeout time.Duration) Request {
	set := make(map[int]struct{}, len(batteries))
	for _, id := range batteries {
		set[id] = struct{}{}
	}
	return Request{
		ID:             uuid.New(),
		Namespace:      namespace,
		Power:          power,
		Batteries:      set,
		RequestTimeout: timeout,
		AdjustPower:    true,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Package bounds computes power envelopes: given a set of eligible
// battery/inverter pairs, the per-pair effective bounds and the aggregate
// inclusion envelope and exclusion band. Pure functions only, no state.
// NaN is treated as an explicit "unknown" state, tested with math.IsNaN,
// never fed through comparisons.
package bounds

import (
	"math"

	"github.com/cepro/powercore/telemetry"
)

// Effective returns the per-pair effective bounds: the inclusion envelope is
// the intersection of the battery's and the inverter's bounds (both devices
// must accept the flow), and the exclusion band is the union of both
// devices' exclusion bands (either device refusing to operate there forbids
// the pair from operating there). A NaN on one side of a pair is resolved by
// taking the other device's value; when force-include has already patched
// the sample (see package cache), both sides are already finite by this
// point.
func Effective(batt, inv telemetry.PowerBounds) telemetry.PowerBounds {
	return telemetry.PowerBounds{
		InclLower: maxIgnoringNaN(batt.InclLower, inv.InclLower),
		InclUpper: minIgnoringNaN(batt.InclUpper, inv.InclUpper),
		ExclLower: minIgnoringNaN(batt.ExclLower, inv.ExclLower), // union: widest (most negative) lower edge
		ExclUpper: maxIgnoringNaN(batt.ExclUpper, inv.ExclUpper), // union: widest (most positive) upper edge
	}
}

// Aggregate sums the inclusion and exclusion endpoints of the given per-pair
// effective bounds. Returns the zero-value PowerBounds for an empty slice.
func Aggregate(pairs []telemetry.PowerBounds) telemetry.PowerBounds {
	var agg telemetry.PowerBounds
	for _, p := range pairs {
		agg.InclLower += p.InclLower
		agg.InclUpper += p.InclUpper
		agg.ExclLower += p.ExclLower
		agg.ExclUpper += p.ExclUpper
	}
	return agg
}

// InExclusionBand returns true if p is strictly within the (excl_lower,
// excl_upper) band. Zero is never inside the band.
func InExclusionBand(p float64, b telemetry.PowerBounds) bool {
	if p == 0 {
		return false
	}
	return p > b.ExclLower && p < b.ExclUpper
}

// InInclusionBounds returns true if p lies within [incl_lower, incl_upper].
func InInclusionBounds(p float64, b telemetry.PowerBounds) bool {
	return p >= b.InclLower && p <= b.InclUpper
}

// Clamp restricts p to [incl_lower, incl_upper].
func Clamp(p float64, b telemetry.PowerBounds) float64 {
	if p < b.InclLower {
		return b.InclLower
	}
	if p > b.InclUpper {
		return b.InclUpper
	}
	return p
}

func maxIgnoringNaN(a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	if a > b {
		return a
	}
	return b
}

func minIgnoringNaN(a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	if a < b {
		return a
	}
	return b
}

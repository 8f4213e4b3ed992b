// Package distribution splits a target power across eligible
// battery/inverter pairs in proportion to each battery's SoC-derived usable
// energy, then clips every share to its pair's inclusion bounds and away from
// its exclusion band and redistributes the remainder. A pair's power
// headroom is not part of its weight; it limits the pair's share only
// through that clipping.
package distribution

import (
	"math"

	"github.com/cepro/powercore/bounds"
	"github.com/cepro/powercore/cartesian"
	"github.com/cepro/powercore/eligibility"
	"github.com/cepro/powercore/telemetry"
)

// Outcome is the assembled split before dispatch: the power each pair should
// be sent, plus the excess that could not be placed anywhere.
type Outcome struct {
	// OutOfBounds is non-nil if the request should short-circuit with an
	// OutOfBounds result instead of dispatching anything.
	OutOfBounds *telemetry.PowerBounds

	Shares map[int]float64 // battery ID -> setpoint for that pair
	Excess float64
}

// PriorityCurves optionally scales a pair's SoC-derived weight by a
// cartesian.Curve keyed on SoC, letting an operator bias dispatch toward or
// away from specific batteries without changing the clip-and-redistribute
// step. A nil map, a missing battery ID, or a curve value at the battery's
// SoC that is NaN or not positive leaves the weight unscaled.
type PriorityCurves map[int]*cartesian.Curve

// Solve returns the per-pair shares for the given eligible pairs, or a
// non-nil Outcome.OutOfBounds short-circuit when the target is outside the
// aggregate envelope with adjustPower unset, or inside the aggregate
// exclusion band.
func Solve(p float64, adjustPower bool, pairs []eligibility.Pair, curves PriorityCurves) Outcome {
	effective := make([]telemetry.PowerBounds, len(pairs))
	for i, pair := range pairs {
		effective[i] = bounds.Effective(pair.Battery.PowerBounds, pair.Inverter.PowerBounds)
	}
	agg := bounds.Aggregate(effective)

	// Exclusion check. Zero power always bypasses it.
	if p != 0 && bounds.InExclusionBand(p, agg) && bounds.InInclusionBounds(p, agg) {
		return Outcome{OutOfBounds: &agg}
	}

	if p == 0 {
		shares := make(map[int]float64, len(pairs))
		for _, pair := range pairs {
			shares[pair.BatteryID] = 0
		}
		return Outcome{Shares: shares}
	}

	// Inclusion check + clamp.
	adjusted := p
	excess := 0.0
	if !bounds.InInclusionBounds(p, agg) {
		if !adjustPower {
			return Outcome{OutOfBounds: &agg}
		}
		adjusted = bounds.Clamp(p, agg)
		excess = p - adjusted
	}

	shares, unplaced := allocate(adjusted, pairs, effective, curves)
	excess += unplaced

	return Outcome{Shares: shares, Excess: excess}
}

type pairState struct {
	batteryID int
	bound     telemetry.PowerBounds
	weight    float64
	share     float64
	resolved  bool // true once this pair can no longer absorb any more residual
}

// allocate performs the proportional split weighted by SoC-derived
// remaining capacity, then iterative clip-and-redistribution to a fixed
// point, running at most one more round than there are pairs.
func allocate(p float64, pairs []eligibility.Pair, effective []telemetry.PowerBounds, curves PriorityCurves) (map[int]float64, float64) {
	states := make([]*pairState, 0, len(pairs))
	for i, pair := range pairs {
		w := socWeight(pair.Battery, p)
		if curves != nil {
			if curve, ok := curves[pair.BatteryID]; ok && curve != nil {
				if scale := curve.VerticalDistance(cartesian.Point{X: pair.Battery.SoC, Y: 0}); !math.IsNaN(scale) && scale > 0 {
					w *= scale
				}
			}
		}
		states = append(states, &pairState{batteryID: pair.BatteryID, bound: effective[i], weight: w})
	}

	residual := p
	excess := 0.0

	for iter := 0; iter < len(states)+1 && residual != 0; iter++ {
		totalWeight := 0.0
		for _, s := range states {
			if !s.resolved {
				totalWeight += s.weight
			}
		}
		if totalWeight <= 0 {
			excess += residual
			residual = 0
			break
		}

		anyMoved := false
		for _, s := range states {
			if s.resolved || s.weight <= 0 {
				continue
			}
			provisional := s.share + residual*s.weight/totalWeight

			feasible, clipped := clipToFeasible(provisional, s.bound)
			delta := feasible - s.share
			s.share = feasible
			if clipped {
				s.resolved = true
			}
			if delta != 0 {
				anyMoved = true
			}
		}

		placed := 0.0
		for _, s := range states {
			placed += s.share
		}
		newResidual := p - placed
		if !anyMoved || newResidual == residual {
			excess += newResidual
			residual = 0
			break
		}
		residual = newResidual
	}

	if residual != 0 {
		excess += residual
	}

	shares := make(map[int]float64, len(states))
	for _, s := range states {
		shares[s.batteryID] = s.share
	}
	return shares, excess
}

// clipToFeasible clips a provisional share to the pair's own bound and away
// from its own exclusion band. Returns whether clipping occurred (meaning
// the pair is no longer eligible to receive further residual).
func clipToFeasible(v float64, b telemetry.PowerBounds) (float64, bool) {
	clipped := false

	if v < b.InclLower {
		v = b.InclLower
		clipped = true
	} else if v > b.InclUpper {
		v = b.InclUpper
		clipped = true
	}

	if v != 0 && v > b.ExclLower && v < b.ExclUpper {
		if v >= 0 {
			v = b.ExclUpper
		} else {
			v = b.ExclLower
		}
		clipped = true
	}

	return v, clipped
}

// socWeight is the battery's remaining usable energy in the direction of p,
// clamped non-negative. NaN-safe by construction because the eligibility
// filter only admits pairs whose telemetry has already been scrubbed or
// patched to finite values.
func socWeight(b telemetry.BatterySample, p float64) float64 {
	var w float64
	if p >= 0 {
		w = b.CapacityWh * (b.SoCBounds.Upper - b.SoC)
	} else {
		w = b.CapacityWh * (b.SoC - b.SoCBounds.Lower)
	}
	if w < 0 {
		return 0
	}
	return w
}

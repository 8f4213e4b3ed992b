// Package cache implements the telemetry cache: a per-component rolling view
// of the latest battery and inverter samples, with sentinel (NaN) scrubbing
// and last-known-good fallback.
//
// It is the module's only shared mutable resource: single-writer per
// component ID, many-reader, guarded by a RWMutex.
package cache

import (
	"math"
	"sync"

	"github.com/cepro/powercore/telemetry"
)

const (
	midRangeSoC           = 50.0
	largeCapacitySentinel = 1e12 // Wh; large enough that a battery with unknown capacity is never the binding constraint
)

type batteryEntry struct {
	latest      telemetry.BatterySample
	hasLatest   bool
	latestValid telemetry.BatterySample
	hasValid    bool
}

type inverterEntry struct {
	latest      telemetry.InverterSample
	hasLatest   bool
	latestValid telemetry.InverterSample
	hasValid    bool
}

// TelemetryCache holds the latest and latest-valid sample per component ID.
// Entries never expire; the cache simply dies with the process.
type TelemetryCache struct {
	mu        sync.RWMutex
	batteries map[int]*batteryEntry
	inverters map[int]*inverterEntry
}

// New returns an empty TelemetryCache.
func New() *TelemetryCache {
	return &TelemetryCache{
		batteries: make(map[int]*batteryEntry),
		inverters: make(map[int]*inverterEntry),
	}
}

// PutBattery stores the sample as the latest for its ID, and as the latest
// valid sample too if every distribution-relevant field is finite. Arrival
// order wins regardless of the sample's own timestamp.
func (c *TelemetryCache) PutBattery(sample telemetry.BatterySample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.batteries[sample.ID]
	if !ok {
		entry = &batteryEntry{}
		c.batteries[sample.ID] = entry
	}

	entry.latest = sample
	entry.hasLatest = true

	if sample.IsFiniteForDistribution() {
		entry.latestValid = sample
		entry.hasValid = true
	}
}

// PutInverter stores the sample as the latest for its ID, and as the latest
// valid sample too if its power bounds are finite.
func (c *TelemetryCache) PutInverter(sample telemetry.InverterSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.inverters[sample.ID]
	if !ok {
		entry = &inverterEntry{}
		c.inverters[sample.ID] = entry
	}

	entry.latest = sample
	entry.hasLatest = true

	if sample.IsFiniteForDistribution() {
		entry.latestValid = sample
		entry.hasValid = true
	}
}

// GetForDistribution returns the battery and inverter samples to use for the
// given IDs. When includeBroken is false, it only succeeds if both the
// battery's and inverter's latest samples are fully finite. When
// includeBroken is true, NaNs are patched from the
// latest-valid snapshot, falling back to neutral values when no valid
// snapshot exists at all. The bool return is false if there's nothing usable
// at all for the given IDs (no sample ever arrived).
func (c *TelemetryCache) GetForDistribution(batteryID, inverterID int, includeBroken bool) (telemetry.BatterySample, telemetry.InverterSample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	battEntry, battOK := c.batteries[batteryID]
	invEntry, invOK := c.inverters[inverterID]
	if !battOK || !invOK || !battEntry.hasLatest || !invEntry.hasLatest {
		return telemetry.BatterySample{}, telemetry.InverterSample{}, false
	}

	batt := battEntry.latest
	inv := invEntry.latest

	if !includeBroken {
		if batt.IsFiniteForDistribution() && inv.IsFiniteForDistribution() {
			return batt, inv, true
		}
		return telemetry.BatterySample{}, telemetry.InverterSample{}, false
	}

	batt = patchBattery(batt, battEntry)
	inv = patchInverter(inv, invEntry, batt.PowerBounds)

	return batt, inv, true
}

// patchBattery fills any NaN in batt using, in order, the latest valid
// snapshot, then a neutral value (mid-range SoC, SoC bounds 0..100,
// large-sentinel capacity). Power-bound fields have no neutral value: one
// the latest valid snapshot cannot fill stays NaN, and bounds.Effective then
// takes the paired inverter's bound for it.
func patchBattery(batt telemetry.BatterySample, entry *batteryEntry) telemetry.BatterySample {
	valid := entry.latestValid
	hasValid := entry.hasValid

	if math.IsNaN(batt.SoC) {
		if hasValid && !math.IsNaN(valid.SoC) {
			batt.SoC = valid.SoC
		} else {
			batt.SoC = midRangeSoC
		}
	}
	if math.IsNaN(batt.SoCBounds.Lower) {
		if hasValid && !math.IsNaN(valid.SoCBounds.Lower) {
			batt.SoCBounds.Lower = valid.SoCBounds.Lower
		} else {
			batt.SoCBounds.Lower = 0
		}
	}
	if math.IsNaN(batt.SoCBounds.Upper) {
		if hasValid && !math.IsNaN(valid.SoCBounds.Upper) {
			batt.SoCBounds.Upper = valid.SoCBounds.Upper
		} else {
			batt.SoCBounds.Upper = 100
		}
	}
	if math.IsNaN(batt.CapacityWh) {
		if hasValid && !math.IsNaN(valid.CapacityWh) {
			batt.CapacityWh = valid.CapacityWh
		} else {
			batt.CapacityWh = largeCapacitySentinel
		}
	}
	batt.PowerBounds = patchBounds(batt.PowerBounds, valid.PowerBounds, hasValid)

	return batt
}

func patchInverter(inv telemetry.InverterSample, entry *inverterEntry, batteryBounds telemetry.PowerBounds) telemetry.InverterSample {
	valid := entry.latestValid
	hasValid := entry.hasValid

	patched := patchBounds(inv.PowerBounds, valid.PowerBounds, hasValid)

	// If a bound is still NaN after the latest-valid fallback, mirror the
	// paired battery's bound for that field, else fall back to infinity so
	// it never binds before the other device's bound does.
	if math.IsNaN(patched.InclLower) {
		patched.InclLower = mirrorOrInf(batteryBounds.InclLower, -1)
	}
	if math.IsNaN(patched.ExclLower) {
		patched.ExclLower = mirrorOrInf(batteryBounds.ExclLower, -1)
	}
	if math.IsNaN(patched.ExclUpper) {
		patched.ExclUpper = mirrorOrInf(batteryBounds.ExclUpper, 1)
	}
	if math.IsNaN(patched.InclUpper) {
		patched.InclUpper = mirrorOrInf(batteryBounds.InclUpper, 1)
	}

	inv.PowerBounds = patched
	return inv
}

// patchBounds fills any NaN field of b using the corresponding field of
// valid, if a latest-valid snapshot exists and that field is itself finite.
// Unresolved fields are left NaN for the caller to apply a further fallback.
func patchBounds(b, valid telemetry.PowerBounds, hasValid bool) telemetry.PowerBounds {
	if math.IsNaN(b.InclLower) && hasValid && !math.IsNaN(valid.InclLower) {
		b.InclLower = valid.InclLower
	}
	if math.IsNaN(b.ExclLower) && hasValid && !math.IsNaN(valid.ExclLower) {
		b.ExclLower = valid.ExclLower
	}
	if math.IsNaN(b.ExclUpper) && hasValid && !math.IsNaN(valid.ExclUpper) {
		b.ExclUpper = valid.ExclUpper
	}
	if math.IsNaN(b.InclUpper) && hasValid && !math.IsNaN(valid.InclUpper) {
		b.InclUpper = valid.InclUpper
	}
	return b
}

func mirrorOrInf(opposite float64, sign float64) float64 {
	if !math.IsNaN(opposite) {
		return opposite
	}
	return math.Inf(int(sign))
}

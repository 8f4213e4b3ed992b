// Package eligibility decides which of a request's batteries may take part
// in a distribution: intersect the requested battery IDs with the "working"
// set from the battery-status provider, and drop any ID whose telemetry
// cannot produce a usable sample.
package eligibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/telemetry"
)

// GraphMismatchError is returned when a requested battery ID is not known to
// the component graph. The Error() text lists the known battery ID set so
// the caller can see what it should have asked for.
type GraphMismatchError struct {
	BatteryID int
	Known     map[int]struct{}
}

func (e GraphMismatchError) Error() string {
	ids := make([]int, 0, len(e.Known))
	for id := range e.Known {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	known := make([]string, len(ids))
	for i, id := range ids {
		known[i] = fmt.Sprintf("%d", id)
	}

	return fmt.Sprintf("No battery %d, available batteries: {%s}", e.BatteryID, strings.Join(known, ", "))
}

// Pair is a usable (battery, inverter) telemetry snapshot for one eligible
// dispatch unit.
type Pair struct {
	BatteryID int
	Battery   telemetry.BatterySample
	Inverter  telemetry.InverterSample
}

// Filter returns the usable pairs for a request. knownBatteries is the
// graph's full battery ID set; inverterFor resolves a battery ID to its
// paired inverter ID. If the working set is empty, or force-include is set,
// the filter falls back to the full requested set and lets the telemetry
// check decide.
func Filter(
	req telemetry.Request,
	working map[int]struct{},
	knownBatteries map[int]struct{},
	inverterFor func(batteryID int) (int, bool),
	tc *cache.TelemetryCache,
) ([]Pair, error) {
	// Rule 1: every requested ID must be known to the graph.
	for id := range req.Batteries {
		if _, ok := knownBatteries[id]; !ok {
			return nil, GraphMismatchError{BatteryID: id, Known: knownBatteries}
		}
	}

	// Rule 2: intersect requested with working.
	stillWorking := intersect(req.Batteries, working)

	// Rules 3-5: pick the eligible ID set.
	var eligibleIDs map[int]struct{}
	switch {
	case req.IncludeBrokenBatteries:
		eligibleIDs = req.Batteries
	case len(stillWorking) == 0:
		eligibleIDs = req.Batteries
	default:
		eligibleIDs = stillWorking
	}

	// Rule 6: drop any ID the cache can't produce a usable sample for.
	pairs := make([]Pair, 0, len(eligibleIDs))
	for id := range eligibleIDs {
		invID, ok := inverterFor(id)
		if !ok {
			continue
		}
		batt, inv, ok := tc.GetForDistribution(id, invID, req.IncludeBrokenBatteries)
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{BatteryID: id, Battery: batt, Inverter: inv})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].BatteryID < pairs[j].BatteryID })

	return pairs, nil
}

func intersect(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

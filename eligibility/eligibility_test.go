package eligibility

import (
	"strings"
	"testing"
	"time"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultBounds() telemetry.PowerBounds {
	return telemetry.PowerBounds{InclLower: -1000, ExclLower: 0, ExclUpper: 0, InclUpper: 1000}
}

func primeCache(tc *cache.TelemetryCache, batteryID, inverterID int) {
	tc.PutBattery(telemetry.BatterySample{
		ID: batteryID, SoC: 40, SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80},
		CapacityWh: 98000, PowerBounds: defaultBounds(), Timestamp: time.Now(),
	})
	tc.PutInverter(telemetry.InverterSample{ID: inverterID, PowerBounds: defaultBounds(), Timestamp: time.Now()})
}

func inverterForFunc(pairs map[int]int) func(int) (int, bool) {
	return func(batteryID int) (int, bool) {
		id, ok := pairs[batteryID]
		return id, ok
	}
}

func TestFilter_UnknownBattery(t *testing.T) {
	known := map[int]struct{}{9: {}}
	req := telemetry.NewRequest("ns", 1200, []int{9, 100}, time.Second)

	_, err := Filter(req, map[int]struct{}{9: {}}, known, inverterForFunc(map[int]int{9: 109}), cache.New())

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "No battery 100, available batteries:"))
}

func TestFilter_IntersectsWithWorking(t *testing.T) {
	tc := cache.New()
	primeCache(tc, 9, 109)
	primeCache(tc, 19, 119)

	known := map[int]struct{}{9: {}, 19: {}}
	req := telemetry.NewRequest("ns", 500, []int{9, 19}, time.Second)

	pairs, err := Filter(req, map[int]struct{}{19: {}}, known, inverterForFunc(map[int]int{9: 109, 19: 119}), tc)

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 19, pairs[0].BatteryID)
}

func TestFilter_WorkingEmptyFallsBackToRequested(t *testing.T) {
	tc := cache.New()
	primeCache(tc, 9, 109)
	primeCache(tc, 19, 119)

	known := map[int]struct{}{9: {}, 19: {}}
	req := telemetry.NewRequest("ns", 500, []int{9, 19}, time.Second)

	pairs, err := Filter(req, map[int]struct{}{}, known, inverterForFunc(map[int]int{9: 109, 19: 119}), tc)

	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestFilter_DropsUnusableTelemetry(t *testing.T) {
	tc := cache.New()
	tc.PutBattery(telemetry.BatterySample{ID: 9, SoC: nan(), SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80}, CapacityWh: 98000, PowerBounds: defaultBounds(), Timestamp: time.Now()})
	tc.PutInverter(telemetry.InverterSample{ID: 109, PowerBounds: defaultBounds(), Timestamp: time.Now()})
	primeCache(tc, 19, 119)

	known := map[int]struct{}{9: {}, 19: {}}
	req := telemetry.NewRequest("ns", 1200, []int{9, 19}, time.Second)

	pairs, err := Filter(req, map[int]struct{}{9: {}, 19: {}}, known, inverterForFunc(map[int]int{9: 109, 19: 119}), tc)

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 19, pairs[0].BatteryID)
}

func TestFilter_IncludeBrokenOverridesWorking(t *testing.T) {
	tc := cache.New()
	tc.PutBattery(telemetry.BatterySample{ID: 9, SoC: nan(), SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80}, CapacityWh: 98000, PowerBounds: defaultBounds(), Timestamp: time.Now()})
	tc.PutInverter(telemetry.InverterSample{ID: 109, PowerBounds: defaultBounds(), Timestamp: time.Now()})

	known := map[int]struct{}{9: {}}
	req := telemetry.NewRequest("ns", 500, []int{9}, time.Second)
	req.IncludeBrokenBatteries = true

	pairs, err := Filter(req, map[int]struct{}{}, known, inverterForFunc(map[int]int{9: 109}), tc)

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 9, pairs[0].BatteryID)
}

func TestFilter_WorkingDisjointFallsBackToRequested(t *testing.T) {
	tc := cache.New()
	primeCache(tc, 9, 109)
	primeCache(tc, 19, 119)

	// The status provider vouches only for battery 29, which the request
	// didn't ask for. The empty intersection falls back to the requested
	// set rather than erroring out.
	known := map[int]struct{}{9: {}, 19: {}, 29: {}}
	req := telemetry.NewRequest("ns", 500, []int{9, 19}, time.Second)

	pairs, err := Filter(req, map[int]struct{}{29: {}}, known, inverterForFunc(map[int]int{9: 109, 19: 119, 29: 129}), tc)

	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

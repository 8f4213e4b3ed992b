package statusprovider

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/graph"
	"github.com/cepro/powercore/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSource_ValidTelemetryMeansWorking(t *testing.T) {
	g := graph.NewStatic([]graph.Pair{{BatteryID: 9, InverterID: 109}, {BatteryID: 19, InverterID: 119}}, nil)
	tc := cache.New()

	bounds := telemetry.PowerBounds{InclLower: -1000, ExclLower: 0, ExclUpper: 0, InclUpper: 1000}
	tc.PutBattery(telemetry.BatterySample{
		ID: 9, SoC: 40, SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80},
		CapacityWh: 98000, PowerBounds: bounds, Timestamp: time.Now(),
	})
	tc.PutInverter(telemetry.InverterSample{ID: 109, PowerBounds: bounds, Timestamp: time.Now()})

	// Battery 19's inverter has never reported, battery 29 doesn't exist.
	tc.PutBattery(telemetry.BatterySample{
		ID: 19, SoC: 40, SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80},
		CapacityWh: 98000, PowerBounds: bounds, Timestamp: time.Now(),
	})

	working, err := CacheSource{Graph: g, Cache: tc}.FetchWorkingBatteries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[int]struct{}{9: {}}, working)
}

func TestCacheSource_NaNTelemetryMeansBroken(t *testing.T) {
	g := graph.NewStatic([]graph.Pair{{BatteryID: 9, InverterID: 109}}, nil)
	tc := cache.New()

	bounds := telemetry.PowerBounds{InclLower: -1000, ExclLower: 0, ExclUpper: 0, InclUpper: 1000}
	tc.PutBattery(telemetry.BatterySample{
		ID: 9, SoC: math.NaN(), SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80},
		CapacityWh: 98000, PowerBounds: bounds, Timestamp: time.Now(),
	})
	tc.PutInverter(telemetry.InverterSample{ID: 109, PowerBounds: bounds, Timestamp: time.Now()})

	working, err := CacheSource{Graph: g, Cache: tc}.FetchWorkingBatteries(context.Background())

	require.NoError(t, err)
	assert.Empty(t, working)
}

func TestPolling_StartsEmptyUntilFirstRefresh(t *testing.T) {
	g := graph.NewStatic([]graph.Pair{{BatteryID: 9, InverterID: 109}}, nil)
	p := NewPolling(CacheSource{Graph: g, Cache: cache.New()})

	assert.Empty(t, p.WorkingBatteries())
}

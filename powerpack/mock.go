package powerpack

import (
	"context"
	"time"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/telemetry"
)

// MockTelemetry periodically publishes a fixed, healthy reading into the
// cache for one pair, for local simulation without real hardware. Dispatch
// itself is handled separately by dispatch.Mock; this only stands in for
// PowerPack.Run's polling side.
type MockTelemetry struct {
	BatteryID      int
	InverterID     int
	SoC            float64
	CapacityWh     float64
	NameplatePower float64
	cache          *cache.TelemetryCache
}

func NewMockTelemetry(batteryID, inverterID int, capacityWh, nameplatePower float64, tc *cache.TelemetryCache) *MockTelemetry {
	return &MockTelemetry{
		BatteryID:      batteryID,
		InverterID:     inverterID,
		SoC:            40,
		CapacityWh:     capacityWh,
		NameplatePower: nameplatePower,
		cache:          tc,
	}
}

func (m *MockTelemetry) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			bounds := telemetry.PowerBounds{InclLower: -m.NameplatePower, ExclLower: 0, ExclUpper: 0, InclUpper: m.NameplatePower}
			m.cache.PutBattery(telemetry.BatterySample{
				ID: m.BatteryID, SoC: m.SoC, SoCBounds: telemetry.SoCBounds{Lower: 20, Upper: 80},
				CapacityWh: m.CapacityWh, PowerBounds: bounds, Timestamp: t,
			})
			m.cache.PutInverter(telemetry.InverterSample{ID: m.InverterID, PowerBounds: bounds, Timestamp: t})
		}
	}
}

// Package powerpack implements the concrete dispatch.Dispatcher and
// telemetry producer for a Tesla PowerPack+inverter pair, talking Modbus
// via package modbus: heartbeat toggling, direct-real-power command mode,
// and periodic status polling into the shared cache.TelemetryCache.
package powerpack

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/modbus"
	"github.com/cepro/powercore/telemetry"
	"github.com/mitchellh/mapstructure"
)

const modbusTimeoutSecs = uint16(10)

// powerPackConfig is the subset of the configuration metric block the pair
// cares about, decoded from the polled metric map.
type powerPackConfig struct {
	MaxChargePower    int32
	MaxDischargePower int32
}

// powerPackStatus is the subset of the status metric block the pair cares
// about, decoded from the polled metric map.
type powerPackStatus struct {
	NominalEnergy   int32
	AvailableBlocks uint16
}

// PowerPack is one battery+inverter pair's Modbus connection. It implements
// dispatch.Dispatcher and, via Run, periodically refreshes the shared
// telemetry cache.
type PowerPack struct {
	host            string
	batteryID       int
	inverterID      int
	nameplateEnergy float64
	nameplatePower  float64

	client                 *modbus.Client
	cache                  *cache.TelemetryCache
	heartbeatToggle        bool
	haveIssuedFirstCommand bool
	logger                 *slog.Logger

	maxChargePower    float64
	maxDischargePower float64
}

// New connects to the PowerPack at host and pulls its configuration block to
// learn its charge/discharge power limits.
func New(batteryID, inverterID int, host string, nameplateEnergy, nameplatePower float64, tc *cache.TelemetryCache) (*PowerPack, error) {
	logger := slog.Default().With("battery_id", batteryID, "inverter_id", inverterID, "host", host)

	logger.Info("Connecting to Tesla PowerPack...")

	client, err := modbus.NewClient(host)
	if err != nil {
		return nil, fmt.Errorf("create modbus client: %w", err)
	}

	logger.Info("Connected, pulling PowerPack configuration...")

	p := &PowerPack{
		host:              host,
		batteryID:         batteryID,
		inverterID:        inverterID,
		nameplateEnergy:   nameplateEnergy,
		nameplatePower:    nameplatePower,
		client:            client,
		cache:             tc,
		maxChargePower:    nameplatePower,
		maxDischargePower: nameplatePower,
		logger:            logger,
	}

	metrics, err := p.client.PollBlock(nil, configBlock)
	if err != nil {
		return nil, fmt.Errorf("poll config block: %w", err)
	}

	var packConfig powerPackConfig
	if err := mapstructure.Decode(metrics, &packConfig); err != nil {
		return nil, fmt.Errorf("decode config metric map: %w", err)
	}
	if packConfig.MaxChargePower != 0 {
		p.maxChargePower = math.Abs(float64(packConfig.MaxChargePower))
	}
	if packConfig.MaxDischargePower != 0 {
		p.maxDischargePower = math.Abs(float64(packConfig.MaxDischargePower))
	}

	logger.Info("Retrieved PowerPack configuration", "max_charge_power", p.maxChargePower, "max_discharge_power", p.maxDischargePower)

	return p, nil
}

// Run polls the status block every period and publishes the resulting
// battery and inverter samples into the cache. Exits when ctx is cancelled.
func (p *PowerPack) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			p.poll(t)
		}
	}
}

func (p *PowerPack) poll(t time.Time) {
	metricVals, err := p.client.PollBlock(nil, statusBlock)
	if err != nil {
		p.logger.Error("Failed to poll PowerPack status", "error", err)
		return
	}

	var status powerPackStatus
	if err := mapstructure.Decode(metricVals, &status); err != nil {
		p.logger.Error("Failed to decode PowerPack status metric map", "error", err)
		return
	}

	soc := 0.0
	if p.nameplateEnergy > 0 {
		soc = (float64(status.NominalEnergy) / p.nameplateEnergy) * 100
	}

	bounds := telemetry.PowerBounds{
		InclLower: -p.maxChargePower,
		ExclLower: 0,
		ExclUpper: 0,
		InclUpper: p.maxDischargePower,
	}

	p.cache.PutBattery(telemetry.BatterySample{
		ID:          p.batteryID,
		SoC:         soc,
		SoCBounds:   telemetry.SoCBounds{Lower: 0, Upper: 100},
		CapacityWh:  p.nameplateEnergy,
		PowerBounds: bounds,
		Timestamp:   t,
	})
	p.cache.PutInverter(telemetry.InverterSample{
		ID:          p.inverterID,
		PowerBounds: bounds,
		Timestamp:   t,
	})
}

// Dispatch implements dispatch.Dispatcher: it toggles the heartbeat and
// writes the requested setpoint in direct-real-power-command mode, honoring
// ctx's deadline by racing the write against ctx.Done().
func (p *PowerPack) Dispatch(ctx context.Context, batteryID int, wattsSetpoint float64) error {
	done := make(chan error, 1)
	go func() { done <- p.issueCommand(wattsSetpoint) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// issueCommand sends the given power setpoint to the PowerPack and manages
// the associated modbus registers like heartbeat, timeout, and real power
// mode.
func (p *PowerPack) issueCommand(targetPower float64) error {
	if err := p.client.WriteMetric(directRealPowerCommandBlock.Metrics["Heartbeat"], p.nextHeartbeat()); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}

	if err := p.client.WriteMetric(directRealPowerCommandBlock.Metrics["Power"], uint32(math.Round(targetPower))); err != nil {
		return fmt.Errorf("write real power: %w", err)
	}

	if !p.haveIssuedFirstCommand {
		if err := p.client.WriteMetric(directRealPowerCommandBlock.Metrics["Timeout"], modbusTimeoutSecs); err != nil {
			return fmt.Errorf("write timeout: %w", err)
		}
		if err := p.client.WriteMetric(realPowerCommandBlock.Metrics["Mode"], uint16(1)); err != nil {
			return fmt.Errorf("write real power mode: %w", err)
		}
		p.haveIssuedFirstCommand = true
	}

	return nil
}

func (p *PowerPack) nextHeartbeat() uint16 {
	p.heartbeatToggle = !p.heartbeatToggle
	if p.heartbeatToggle {
		return 0xAA55
	}
	return 0x55AA
}

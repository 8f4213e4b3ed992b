// Package statusprovider exposes the set of battery IDs currently
// considered "working". Polling caches and serves the answer of a pluggable
// Source; CacheSource is one such Source, judging a battery working from the
// validity of its pair's cached telemetry.
package statusprovider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/graph"
)

// Provider exposes the set of currently working battery IDs.
type Provider interface {
	WorkingBatteries() map[int]struct{}
}

// Static is a fixed Provider, mainly useful in tests.
type Static struct {
	Working map[int]struct{}
}

func (s Static) WorkingBatteries() map[int]struct{} {
	return s.Working
}

// Source is anything that can be polled for the current working set, e.g. a
// client for the out-of-scope battery-health system.
type Source interface {
	FetchWorkingBatteries(ctx context.Context) (map[int]struct{}, error)
}

// CacheSource derives battery health from telemetry: a battery is working
// when the cache holds fully valid samples for it and its paired inverter.
type CacheSource struct {
	Graph graph.Graph
	Cache *cache.TelemetryCache
}

func (s CacheSource) FetchWorkingBatteries(ctx context.Context) (map[int]struct{}, error) {
	working := make(map[int]struct{})
	for id := range s.Graph.BatteryIDs() {
		invID, ok := s.Graph.InverterFor(id)
		if !ok {
			continue
		}
		if _, _, ok := s.Cache.GetForDistribution(id, invID, false); ok {
			working[id] = struct{}{}
		}
	}
	return working, nil
}

// Polling refreshes its cached working set from a Source on a ticker.
type Polling struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	working map[int]struct{}
}

// NewPolling creates a Polling provider. Call Run in a goroutine to start
// refreshing.
func NewPolling(source Source) *Polling {
	return &Polling{
		source:  source,
		logger:  slog.Default().With("component", "battery_status_provider"),
		working: map[int]struct{}{},
	}
}

// Run loops forever, refreshing the working set every period. Exits when ctx
// is cancelled.
func (p *Polling) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			working, err := p.source.FetchWorkingBatteries(ctx)
			if err != nil {
				p.logger.Error("Failed to refresh working battery set", "error", err)
				continue
			}
			p.mu.Lock()
			p.working = working
			p.mu.Unlock()
		}
	}
}

// WorkingBatteries returns the last successfully fetched working set. May
// be empty.
func (p *Polling) WorkingBatteries() map[int]struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[int]struct{}, len(p.working))
	for id := range p.working {
		out[id] = struct{}{}
	}
	return out
}

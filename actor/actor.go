// Package actor implements the request serializer: a single long-lived task
// that owns the request input stream and processes requests strictly
// sequentially: resolve, solve, distribute, publish. The request channel is
// the actor's only event source, so one request's processing can never
// overlap another's.
package actor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/dispatch"
	"github.com/cepro/powercore/distribution"
	"github.com/cepro/powercore/eligibility"
	"github.com/cepro/powercore/graph"
	"github.com/cepro/powercore/router"
	"github.com/cepro/powercore/statusprovider"
	"github.com/cepro/powercore/telemetry"
	"github.com/dustin/go-humanize"
)

// Actor is the Power Distribution Core's single request consumer.
type Actor struct {
	Requests chan telemetry.Request

	// Sink, if set, is called with every Result right after the router
	// publish, e.g. to persist it. It never gates or delays publication to
	// the router, but it runs synchronously: the actor takes its next
	// request only once Sink has returned.
	Sink func(telemetry.Result)

	// DefaultRequestTimeout bounds dispatch for requests that don't carry
	// their own timeout. New sets it to 30s; override before calling Run.
	DefaultRequestTimeout time.Duration

	graph  graph.Graph
	cache  *cache.TelemetryCache
	status statusprovider.Provider
	fleet  dispatch.Fleet
	router *router.Router
	curves distribution.PriorityCurves

	logger *slog.Logger
}

// New constructs an Actor. Call Run in a goroutine to start processing.
func New(g graph.Graph, tc *cache.TelemetryCache, status statusprovider.Provider, fleet dispatch.Fleet, rtr *router.Router, curves distribution.PriorityCurves) *Actor {
	return &Actor{
		Requests:              make(chan telemetry.Request, 1),
		DefaultRequestTimeout: 30 * time.Second,

		graph:  g,
		cache:  tc,
		status: status,
		fleet:  fleet,
		router: rtr,
		curves: curves,
		logger: slog.Default().With("component", "actor"),
	}
}

// Run processes requests strictly sequentially until ctx is cancelled or the
// Requests channel is closed. On either signal it finishes any in-flight
// request, then returns. There are no owned senders beyond the router,
// which outlives any single actor.
func (a *Actor) Run(ctx context.Context) error {
	a.logger.Info("Actor running")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Actor stopping", "reason", ctx.Err())
			return ctx.Err()

		case req, ok := <-a.Requests:
			if !ok {
				a.logger.Info("Request stream closed, actor stopping")
				return nil
			}
			result := a.process(ctx, req)
			a.logResult(req, result)
			a.router.Publish(result)
			if a.Sink != nil {
				a.Sink(result)
			}
		}
	}
}

// process runs one request through resolve -> solve -> distribute -> emit.
// It never returns without a Result to publish; recoverable failures become
// Error/OutOfBounds/PartialFailure results rather than propagating.
func (a *Actor) process(ctx context.Context, req telemetry.Request) telemetry.Result {
	pairs, err := eligibility.Filter(req, a.status.WorkingBatteries(), a.graph.BatteryIDs(), a.graph.InverterFor, a.cache)
	if err != nil {
		return telemetry.Error{Request: req, Msg: err.Error()}
	}

	if len(pairs) == 0 {
		if req.IncludeBrokenBatteries {
			return telemetry.Success{Request: req, SucceededBatteries: map[int]struct{}{}, FailedBatteries: map[int]struct{}{}}
		}
		return telemetry.Error{Request: req, Msg: "no eligible battery/inverter pair survived filtering"}
	}

	out := distribution.Solve(req.Power, req.AdjustPower, pairs, a.curves)
	if out.OutOfBounds != nil {
		return telemetry.OutOfBounds{Request: req, Bounds: *out.OutOfBounds}
	}

	deadline := req.RequestTimeout
	if deadline <= 0 {
		deadline = a.DefaultRequestTimeout
	}
	dispatchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	failed := a.fleet.DispatchAll(dispatchCtx, out.Shares)

	return assembleResult(req, out, failed)
}

// logResult emits one structured line per processed request.
func (a *Actor) logResult(req telemetry.Request, result telemetry.Result) {
	logger := a.logger.With("request_id", req.ID, "namespace", req.Namespace, "requested_power", humanize.FtoaWithDigits(req.Power, 1))

	switch r := result.(type) {
	case telemetry.Success:
		logger.Info("Dispatched request", "succeeded_power", humanize.FtoaWithDigits(r.SucceededPower, 1), "excess_power", humanize.FtoaWithDigits(r.ExcessPower, 1))
	case telemetry.PartialFailure:
		logger.Warn("Dispatched request with partial failure", "succeeded_power", humanize.FtoaWithDigits(r.SucceededPower, 1), "failed_power", humanize.FtoaWithDigits(r.FailedPower, 1))
	case telemetry.OutOfBounds:
		logger.Warn("Request out of bounds", "incl_lower", r.Bounds.InclLower, "incl_upper", r.Bounds.InclUpper)
	case telemetry.Error:
		logger.Error("Request failed", "error", r.Msg)
	}
}

// assembleResult sums acknowledged power into succeeded power and failures
// into failed power, and chooses Success vs PartialFailure.
func assembleResult(req telemetry.Request, out distribution.Outcome, failed map[int]error) telemetry.Result {
	succeededBatteries := make(map[int]struct{})
	failedBatteries := make(map[int]struct{})

	var succeededPower, failedPower float64
	for batteryID, watts := range out.Shares {
		if _, didFail := failed[batteryID]; didFail {
			failedBatteries[batteryID] = struct{}{}
			failedPower += watts
		} else {
			succeededBatteries[batteryID] = struct{}{}
			succeededPower += watts
		}
	}

	if len(failedBatteries) == 0 {
		return telemetry.Success{
			Request:            req,
			SucceededPower:     succeededPower,
			ExcessPower:        out.Excess,
			SucceededBatteries: succeededBatteries,
			FailedBatteries:    failedBatteries,
		}
	}

	return telemetry.PartialFailure{
		Request:            req,
		SucceededPower:     succeededPower,
		FailedPower:        failedPower,
		SucceededBatteries: succeededBatteries,
		FailedBatteries:    failedBatteries,
	}
}

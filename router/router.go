// Package router delivers results to requesters: a namespace-keyed
// broadcast of Result values, write-only from the actor's perspective.
package router

import (
	"log/slog"
	"sync"

	"github.com/cepro/powercore/telemetry"
)

const defaultChannelBuffer = 1

// Router holds one broadcast channel of Result per namespace, created on
// first use by either side (a NewReceiver call or the actor's first
// Publish). There is no back-channel from receivers to senders.
type Router struct {
	logger *slog.Logger

	mu       sync.Mutex
	channels map[string]chan telemetry.Result
}

// New returns an empty Router.
func New() *Router {
	return &Router{
		logger:   slog.Default().With("component", "result_router"),
		channels: make(map[string]chan telemetry.Result),
	}
}

// NewReceiver returns the broadcast channel for namespace, creating it if
// this is the first call for that namespace.
func (r *Router) NewReceiver(namespace string) <-chan telemetry.Result {
	return r.channelFor(namespace)
}

// Publish places result on its request's namespace channel. If the
// channel's buffer is full (e.g. nobody is reading that namespace), the
// result is dropped with a warning, never an error.
func (r *Router) Publish(result telemetry.Result) {
	ch := r.channelFor(result.Req().Namespace)
	sendIfNonBlocking(ch, result, result.Req().Namespace)
}

func (r *Router) channelFor(namespace string) chan telemetry.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[namespace]
	if !ok {
		ch = make(chan telemetry.Result, defaultChannelBuffer)
		r.channels[namespace] = ch
	}
	return ch
}

// sendIfNonBlocking attempts to send val onto ch without blocking; if the
// channel has no room it logs a warning and drops the value.
func sendIfNonBlocking[V any](ch chan V, val V, namespace string) {
	select {
	case ch <- val:
	default:
		slog.Warn("Dropped result, no receiver ready", "namespace", namespace)
	}
}

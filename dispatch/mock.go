package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrMockDispatchFailed is returned by Mock for battery IDs listed in Fail.
var ErrMockDispatchFailed = errors.New("dispatch: inverter reported failure")

// Mock is a deterministic Dispatcher for tests: it records what it was told
// to do instead of touching real hardware.
type Mock struct {
	mu sync.Mutex

	// Fail, if set, names battery IDs whose Dispatch call should return an
	// error instead of succeeding.
	Fail map[int]struct{}

	calls []Call
}

// Call records one Dispatch invocation.
type Call struct {
	BatteryID int
	Watts     float64
}

func (m *Mock) Dispatch(ctx context.Context, batteryID int, wattsSetpoint float64) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{BatteryID: batteryID, Watts: wattsSetpoint})
	_, shouldFail := m.Fail[batteryID]
	m.mu.Unlock()

	if shouldFail {
		return ErrMockDispatchFailed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Calls returns every Dispatch call made so far, in an unspecified order
// (Dispatch is called concurrently by Fleet.DispatchAll).
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

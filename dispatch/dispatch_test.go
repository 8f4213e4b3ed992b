package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchAll_AllSucceed(t *testing.T) {
	fleet := Fleet{9: &Mock{}, 19: &Mock{}}

	failed := fleet.DispatchAll(context.Background(), map[int]float64{9: 500, 19: 500})

	assert.Empty(t, failed)

	calls := fleet[9].(*Mock).Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 500.0, calls[0].Watts)
}

func TestDispatchAll_CollectsFailures(t *testing.T) {
	fleet := Fleet{
		9:  &Mock{Fail: map[int]struct{}{9: {}}},
		19: &Mock{},
	}

	failed := fleet.DispatchAll(context.Background(), map[int]float64{9: 500, 19: 500})

	assert.Contains(t, failed, 9)
	assert.NotContains(t, failed, 19)
}

func TestDispatchAll_MissingDispatcherIsAFailure(t *testing.T) {
	fleet := Fleet{9: &Mock{}}

	failed := fleet.DispatchAll(context.Background(), map[int]float64{9: 500, 19: 500})

	assert.Contains(t, failed, 19)
}

func TestDispatchAll_CancelledContextFailsOutstanding(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fleet := Fleet{9: &Mock{}}
	failed := fleet.DispatchAll(ctx, map[int]float64{9: 500})

	assert.Contains(t, failed, 9)
}

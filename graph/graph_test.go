package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatic_PairMappings(t *testing.T) {
	g := NewStatic([]Pair{{BatteryID: 9, InverterID: 109}, {BatteryID: 19, InverterID: 119}}, nil)

	invID, ok := g.InverterFor(9)
	require.True(t, ok)
	assert.Equal(t, 109, invID)

	battID, ok := g.BatteryFor(119)
	require.True(t, ok)
	assert.Equal(t, 19, battID)

	_, ok = g.InverterFor(99)
	assert.False(t, ok)

	assert.Equal(t, map[int]struct{}{9: {}, 19: {}}, g.BatteryIDs())
}

func TestNewStatic_PanicsOnDuplicatePairMember(t *testing.T) {
	assert.Panics(t, func() {
		NewStatic([]Pair{{BatteryID: 9, InverterID: 109}, {BatteryID: 9, InverterID: 119}}, nil)
	})
	assert.Panics(t, func() {
		NewStatic([]Pair{{BatteryID: 9, InverterID: 109}, {BatteryID: 19, InverterID: 109}}, nil)
	})
}

func TestStatic_CategoriesAndAdjacency(t *testing.T) {
	g := NewStatic(
		[]Pair{{BatteryID: 9, InverterID: 109}},
		[]Component{{ID: 1, Category: Grid}, {ID: 2, Category: Meter}},
	)

	category, ok := g.ComponentCategory(9)
	require.True(t, ok)
	assert.Equal(t, Battery, category)

	category, ok = g.ComponentCategory(1)
	require.True(t, ok)
	assert.Equal(t, Grid, category)

	_, ok = g.ComponentCategory(42)
	assert.False(t, ok)

	succs := g.Successors(9)
	require.Len(t, succs, 1)
	assert.Equal(t, Component{ID: 109, Category: Inverter}, succs[0])

	preds := g.Predecessors(109)
	require.Len(t, preds, 1)
	assert.Equal(t, Component{ID: 9, Category: Battery}, preds[0])

	assert.Len(t, g.Components(Battery), 1)
	assert.Len(t, g.Components(Meter), 1)
	assert.Empty(t, g.Components(EVCharger))
}

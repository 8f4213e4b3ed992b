package cartesian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Priority curve fixtures are authored in YAML, like the operator-facing
// documentation examples.
const dischargePriorityFixture = `
points:
  - {x: 0, y: 0.2}
  - {x: 60, y: 0.2}
  - {x: 80, y: 1.0}
  - {x: 100, y: 1.0}
`

func TestVerticalDistance_InterpolatesBetweenPoints(t *testing.T) {
	var curve Curve
	require.NoError(t, yaml.Unmarshal([]byte(dischargePriorityFixture), &curve))

	subTests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"flat low segment", 30, 0.2},
		{"rising segment midpoint", 70, 0.6},
		{"flat high segment", 90, 1.0},
		{"segment boundary", 60, 0.2},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			assert.InDelta(t, subTest.expected, curve.VerticalDistance(Point{X: subTest.x, Y: 0}), 1e-9)
		})
	}
}

func TestVerticalDistance_IsRelativeToGivenY(t *testing.T) {
	curve := Curve{Points: []Point{{X: 0, Y: 10}, {X: 100, Y: 10}}}

	assert.InDelta(t, 4.0, curve.VerticalDistance(Point{X: 50, Y: 6}), 1e-9)
	assert.InDelta(t, -4.0, curve.VerticalDistance(Point{X: 50, Y: 14}), 1e-9)
}

func TestVerticalDistance_OutsideHorizontalSpanIsNaN(t *testing.T) {
	curve := Curve{Points: []Point{{X: 20, Y: 1}, {X: 80, Y: 1}}}

	assert.True(t, math.IsNaN(curve.VerticalDistance(Point{X: 10, Y: 0})))
	assert.True(t, math.IsNaN(curve.VerticalDistance(Point{X: 90, Y: 0})))
}

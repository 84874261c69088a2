package bandit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allShapes = []Shape{ShapeConstant, ShapeLinear, ShapeDegressive, ShapeProgressive}

func TestShapeWeightAtZeroDistance(t *testing.T) {
	for _, s := range allShapes {
		assert.Equal(t, 1.0, s.Weight(0, 14, 0.5), s.String())
	}
}

func TestShapeWeightNearCutoff(t *testing.T) {
	const cutoff = 1_000_000
	for _, s := range allShapes {
		want := 0.5
		if s == ShapeConstant {
			want = 1.0
		}
		assert.InDelta(t, want, s.Weight(cutoff-1, cutoff, 0.5), 1e-3, s.String())
		assert.Zero(t, s.Weight(cutoff, cutoff, 0.5), s.String())
	}
}

func TestShapesStrictlyDecrease(t *testing.T) {
	for _, s := range []Shape{ShapeLinear, ShapeDegressive, ShapeProgressive} {
		prev := s.Weight(0, 28, 0.5)
		for d := 1; d < 28; d++ {
			w := s.Weight(d, 28, 0.5)
			assert.Less(t, w, prev, "%s at distance %d", s, d)
			prev = w
		}
	}
}

func TestShapeCurvature(t *testing.T) {
	// early in the window degressive has lost the most weight, progressive the least
	early := 2
	assert.Less(t, ShapeDegressive.Weight(early, 14, 0.5), ShapeLinear.Weight(early, 14, 0.5))
	assert.Greater(t, ShapeProgressive.Weight(early, 14, 0.5), ShapeLinear.Weight(early, 14, 0.5))
}

func TestParseShape(t *testing.T) {
	for _, s := range allShapes {
		got, err := ParseShape(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseShape(" Progressive ")
	require.NoError(t, err)
	assert.Equal(t, ShapeProgressive, got)

	_, err = ParseShape("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

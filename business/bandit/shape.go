package bandit

import (
	"fmt"
	"math"
	"strings"
)

// Shape selects how fast older evidence loses weight.
type Shape int

const (
	ShapeConstant Shape = iota
	ShapeLinear
	ShapeDegressive
	ShapeProgressive
)

var shapeNames = [...]string{
	ShapeConstant:    "constant",
	ShapeLinear:      "linear",
	ShapeDegressive:  "degressive",
	ShapeProgressive: "progressive",
}

// decay maps r = distance/cutoff in [0, 1) to a weight in [cutLevel, 1].
type decay func(r, cutLevel float64) float64

var decayTable = [...]decay{
	ShapeConstant: func(_, _ float64) float64 {
		return 1
	},
	ShapeLinear: func(r, c float64) float64 {
		return 1 - r*(1-c)
	},
	// falls off fastest right after the most recent period
	ShapeDegressive: func(r, c float64) float64 {
		return 1 - (1-c)*math.Sqrt(r)
	},
	// falls off fastest close to the cutoff
	ShapeProgressive: func(r, c float64) float64 {
		return 1 - (1-c)*r*r
	},
}

func ParseShape(name string) (Shape, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range shapeNames {
		if s == n {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown shape %q", ErrInvalidConfig, name)
}

func (s Shape) String() string {
	if !s.valid() {
		return fmt.Sprintf("shape(%d)", int(s))
	}
	return shapeNames[s]
}

func (s Shape) valid() bool {
	return s >= ShapeConstant && int(s) < len(decayTable)
}

// Weight returns the weight of evidence that is distance periods old.
// Distances at or beyond cutoff weigh 0.
func (s Shape) Weight(distance, cutoff int, cutLevel float64) float64 {
	if distance < 0 || cutoff <= 0 || distance >= cutoff || !s.valid() {
		return 0
	}
	r := float64(distance) / float64(cutoff)
	return decayTable[s](r, cutLevel)
}

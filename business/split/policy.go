package split

import (
	"fmt"
	"math"
	"strings"
)

// Correction adjusts the significance level for repeated testing.
type Correction int

const (
	Bonferroni Correction = iota
	Sidak
)

func ParseCorrection(name string) (Correction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bonferroni":
		return Bonferroni, nil
	case "sidak", "šidák":
		return Sidak, nil
	default:
		return 0, fmt.Errorf("unknown correction %q", name)
	}
}

// Threshold is the p-value an experiment must reach in the given (0-based)
// period, having tested once per period so far.
func Threshold(maxP float64, period int, c Correction) float64 {
	tests := float64(period + 1)
	if c == Sidak {
		return 1 - math.Pow(1-maxP, 1/tests)
	}
	return maxP / tests
}

// Significant reports whether the last p-value passes the threshold.
func (s *Split) Significant(maxP float64, period int, c Correction) bool {
	return s.pValue <= Threshold(maxP, period, c)
}

// ActiveOptions are the options still being explored: those with the most
// trials so far.
func (s *Split) ActiveOptions() []int {
	return argMax(s.trials)
}

// BestOptions are the options with the most successes so far.
func (s *Split) BestOptions() []int {
	return argMax(s.successes)
}

func argMax(values []float64) []int {
	best := math.Inf(-1)
	var out []int
	for i, v := range values {
		switch {
		case v > best:
			best = v
			out = append(out[:0], i)
		case v == best:
			out = append(out, i)
		}
	}
	return out
}

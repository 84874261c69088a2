package split

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNoOptions        = errors.New("split needs at least one option")
	ErrOptionOutOfRange = errors.New("option id out of range")
	ErrInvalidResults   = errors.New("results must satisfy 0 <= successes <= trials")
)

// Split is the frequentist allocator: it explores uniformly until a
// chi-squared test says the options differ, then exploits the best.
// Not safe for concurrent use.
type Split struct {
	numOptions int
	trials     []float64
	successes  []float64
	failures   []float64
	pValue     float64
}

func New(numOptions int) (*Split, error) {
	if numOptions < 1 {
		return nil, ErrNoOptions
	}
	return &Split{
		numOptions: numOptions,
		trials:     make([]float64, numOptions),
		successes:  make([]float64, numOptions),
		failures:   make([]float64, numOptions),
		pValue:     1.0,
	}, nil
}

func (s *Split) NumOptions() int {
	return s.numOptions
}

func (s *Split) AddResults(optionID int, trials, successes float64) error {
	if optionID < 0 || optionID >= s.numOptions {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOptionOutOfRange, optionID, s.numOptions)
	}
	if !(successes >= 0) || !(trials >= successes) {
		return fmt.Errorf("%w: trials=%v successes=%v", ErrInvalidResults, trials, successes)
	}

	s.trials[optionID] += trials
	s.successes[optionID] += successes
	s.failures[optionID] += trials - successes
	return nil
}

func (s *Split) Trials() []float64 {
	return append([]float64(nil), s.trials...)
}

func (s *Split) Successes() []float64 {
	return append([]float64(nil), s.successes...)
}

// PValue is the result of the last CalculatePValue call, 1 before any.
func (s *Split) PValue() float64 {
	return s.pValue
}

// CalculatePValue runs Pearson's chi-squared independence test, without
// continuity correction, on the options × (successes, failures) table.
// Tables with a zero expected frequency carry no evidence and give 1.
func (s *Split) CalculatePValue() float64 {
	s.pValue = chiSquaredPValue(s.successes, s.failures)
	return s.pValue
}

func chiSquaredPValue(successes, failures []float64) float64 {
	k := len(successes)
	if k < 2 {
		return 1.0
	}

	var totalSuccesses, totalFailures float64
	rows := make([]float64, k)
	for i := range k {
		rows[i] = successes[i] + failures[i]
		totalSuccesses += successes[i]
		totalFailures += failures[i]
	}
	total := totalSuccesses + totalFailures

	stat := 0.0
	for i := range k {
		for j, observed := range [2]float64{successes[i], failures[i]} {
			col := totalSuccesses
			if j == 1 {
				col = totalFailures
			}
			expected := rows[i] * col / total
			if expected == 0 || math.IsNaN(expected) {
				return 1.0
			}
			d := observed - expected
			stat += d * d / expected
		}
	}

	return distuv.ChiSquared{K: float64(k - 1)}.Survival(stat)
}

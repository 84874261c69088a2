package simulation

import (
	"adOptimizer/business/bandit"
	"adOptimizer/business/split"
)

// allocator spreads one period's trials over the options and learns from
// the results.
type allocator interface {
	allocate(trials float64, period int) ([]float64, error)
	add(optionID int, trials, successes float64) error
	endPeriod() error
}

// splitAllocator explores evenly over the options still tied for most
// trials until the test is significant, then exploits the options tied for
// most successes.
type splitAllocator struct {
	split      *split.Split
	maxP       float64
	correction split.Correction
}

func (a *splitAllocator) allocate(trials float64, period int) ([]float64, error) {
	chosen := a.split.ActiveOptions()
	if a.split.Significant(a.maxP, period, a.correction) {
		chosen = a.split.BestOptions()
	}

	out := make([]float64, a.split.NumOptions())
	for _, i := range chosen {
		out[i] = trials / float64(len(chosen))
	}
	return out, nil
}

func (a *splitAllocator) add(optionID int, trials, successes float64) error {
	return a.split.AddResults(optionID, trials, successes)
}

func (a *splitAllocator) endPeriod() error {
	a.split.CalculatePValue()
	return nil
}

// banditAllocator splits the first period evenly and every later one by
// the bandit's shares.
type banditAllocator struct {
	bandit     *bandit.Bandit
	accelerate bool
}

func (a *banditAllocator) allocate(trials float64, period int) ([]float64, error) {
	if a.bandit.Config().Memory {
		if err := a.bandit.AddPeriod(); err != nil {
			return nil, err
		}
	}

	n := a.bandit.NumOptions()
	out := make([]float64, n)
	if period == 0 {
		for i := range out {
			out[i] = trials / float64(n)
		}
		return out, nil
	}

	shares, err := a.bandit.CalculateShares(a.accelerate)
	if err != nil {
		return nil, err
	}
	for i, s := range shares {
		out[i] = trials * s
	}
	return out, nil
}

func (a *banditAllocator) add(optionID int, trials, successes float64) error {
	return a.bandit.AddResults(optionID, trials, successes)
}

func (a *banditAllocator) endPeriod() error {
	return nil
}

// Package simulation compares the split test and the bandit on synthetic
// options with known, noisy and drifting success rates.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"adOptimizer/business/bandit"
	"adOptimizer/business/split"
)

var ErrInvalidParams = errors.New("invalid simulation parameters")

type Method string

const (
	MethodSplit  Method = "split"
	MethodBandit Method = "bandit"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodSplit, MethodBandit:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidParams, s)
	}
}

type Params struct {
	Method  Method
	Periods int
	// TrueRates are the options' success rates in the first period.
	TrueRates []float64
	// Deviation is the relative standard deviation of the observed rates.
	Deviation float64
	// Change bounds each option's relative rate drift per period.
	Change float64
	// Trials is the budget spent each period.
	Trials float64
	// MaxP is the split test's overall significance level.
	MaxP       float64
	Correction split.Correction
	// Rounding rounds trials and successes to whole numbers.
	Rounding   bool
	Accelerate bool
	Bandit     bandit.Config
	Seed       uint64
}

func DefaultParams() Params {
	cfg := bandit.DefaultConfig()
	cfg.Cutoff = 28
	return Params{
		Method:     MethodBandit,
		Periods:    30,
		TrueRates:  []float64{0.01, 0.012, 0.015},
		Deviation:  0.5,
		Change:     0.05,
		Trials:     10000,
		MaxP:       0.05,
		Rounding:   true,
		Accelerate: true,
		Bandit:     cfg,
		Seed:       1,
	}
}

func (p Params) Validate() error {
	switch {
	case p.Method != MethodSplit && p.Method != MethodBandit:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidParams, p.Method)
	case p.Periods < 1:
		return fmt.Errorf("%w: periods must be positive", ErrInvalidParams)
	case len(p.TrueRates) == 0:
		return fmt.Errorf("%w: at least one true rate is required", ErrInvalidParams)
	case !(p.Trials > 0):
		return fmt.Errorf("%w: trials must be positive", ErrInvalidParams)
	case p.Deviation < 0:
		return fmt.Errorf("%w: deviation must not be negative", ErrInvalidParams)
	case p.Change < 0 || p.Change >= 1:
		return fmt.Errorf("%w: change must be in [0, 1)", ErrInvalidParams)
	case p.Method == MethodSplit && (p.MaxP <= 0 || p.MaxP >= 1):
		return fmt.Errorf("%w: max p must be in (0, 1)", ErrInvalidParams)
	}
	for _, r := range p.TrueRates {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: rate %v not in [0, 1]", ErrInvalidParams, r)
		}
	}
	return nil
}

// Result holds cumulative successes after each period for the simulated
// method, the best option alone (optimum) and an even split (base).
type Result struct {
	Successes     []float64 `json:"successes"`
	MaxSuccesses  []float64 `json:"max_successes"`
	BaseSuccesses []float64 `json:"base_successes"`
}

// Simulate runs one method over p.Periods periods. The same seed gives the
// same result.
func Simulate(p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	var alloc allocator
	switch p.Method {
	case MethodSplit:
		s, err := split.New(len(p.TrueRates))
		if err != nil {
			return Result{}, err
		}
		alloc = &splitAllocator{split: s, maxP: p.MaxP, correction: p.Correction}
	case MethodBandit:
		b, err := bandit.New(len(p.TrueRates), p.Bandit, bandit.WithSampler(bandit.NewSeededSampler(p.Seed)))
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		alloc = &banditAllocator{bandit: b, accelerate: p.Accelerate}
	}

	drift := rateChanges(p)
	n := float64(len(p.TrueRates))
	res := Result{
		Successes:     make([]float64, p.Periods),
		MaxSuccesses:  make([]float64, p.Periods),
		BaseSuccesses: make([]float64, p.Periods),
	}

	var total, optimum, base float64
	for period := range p.Periods {
		rates := periodRates(p, drift, period)

		trials, err := alloc.allocate(p.Trials, period)
		if err != nil {
			return Result{}, err
		}
		for i, t := range trials {
			if t == 0 {
				continue
			}
			successes := p.round(t * rates[i])
			if err := alloc.add(i, p.round(t), successes); err != nil {
				return Result{}, err
			}
			total += successes
		}
		if err := alloc.endPeriod(); err != nil {
			return Result{}, err
		}

		optimum += p.round(p.Trials * slices.Max(rates))
		for _, r := range rates {
			base += p.round(p.Trials / n * r)
		}
		res.Successes[period] = total
		res.MaxSuccesses[period] = optimum
		res.BaseSuccesses[period] = base
	}
	return res, nil
}

// Comparison is both methods run on the same synthetic market.
type Comparison struct {
	Split         []float64 `json:"split_successes"`
	Bandit        []float64 `json:"bandit_successes"`
	MaxSuccesses  []float64 `json:"max_successes"`
	BaseSuccesses []float64 `json:"base_successes"`
}

func CompareMethods(p Params) (Comparison, error) {
	p.Method = MethodSplit
	s, err := Simulate(p)
	if err != nil {
		return Comparison{}, err
	}
	p.Method = MethodBandit
	b, err := Simulate(p)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Split:         s.Successes,
		Bandit:        b.Successes,
		MaxSuccesses:  s.MaxSuccesses,
		BaseSuccesses: s.BaseSuccesses,
	}, nil
}

func (p Params) round(v float64) float64 {
	if p.Rounding {
		return math.Round(v)
	}
	return v
}

// rateChanges draws each option's per-period drift factor.
func rateChanges(p Params) []float64 {
	rng := rand.New(rand.NewPCG(p.Seed, 0))
	out := make([]float64, len(p.TrueRates))
	for i := range out {
		out[i] = 1 - p.Change + 2*p.Change*rng.Float64()
	}
	return out
}

// periodRates are the observed rates of one period: the drifted true rate
// with normal noise, clamped to [0, 1]. The noise depends only on the seed,
// the option and the period, so both methods see the same market.
func periodRates(p Params, drift []float64, period int) []float64 {
	rates := make([]float64, len(p.TrueRates))
	for i, r := range p.TrueRates {
		mean := r * math.Pow(drift[i], float64(period))
		v := mean
		if sd := mean * p.Deviation; sd > 0 {
			src := rand.NewPCG(p.Seed, uint64((i+1)*(period+1)))
			v = distuv.Normal{Mu: mean, Sigma: sd, Src: src}.Rand()
		}
		rates[i] = min(max(v, 0), 1)
	}
	return rates
}

package bandit

import (
	"fmt"
	"math"
	"slices"
)

// Bandit holds cumulative results per option and, with memory enabled, the
// per-period results needed to discount older evidence.
//
// A Bandit is built for one optimization request and is not safe for
// concurrent use.
type Bandit struct {
	numOptions int
	cfg        Config
	prior      Prior

	trials    []float64
	successes []float64
	periods   *periodStore

	sampler Sampler
}

type Option func(*Bandit)

// WithSampler replaces the production sampler, e.g. with NewSeededSampler.
func WithSampler(s Sampler) Option {
	return func(b *Bandit) {
		b.sampler = s
	}
}

func WithPrior(p Prior) Option {
	return func(b *Bandit) {
		b.prior = p
	}
}

func New(numOptions int, cfg Config, opts ...Option) (*Bandit, error) {
	if numOptions < 1 {
		return nil, ErrNoOptions
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bandit{
		numOptions: numOptions,
		cfg:        cfg,
		prior:      uniformPrior,
		trials:     make([]float64, numOptions),
		successes:  make([]float64, numOptions),
		sampler:    NewSampler(),
	}
	if cfg.Memory {
		b.periods = newPeriodStore(cfg.Cutoff)
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.prior.Alpha <= 0 || b.prior.Beta <= 0 {
		return nil, fmt.Errorf("%w: prior parameters must be positive", ErrInvalidConfig)
	}
	return b, nil
}

func (b *Bandit) NumOptions() int {
	return b.numOptions
}

func (b *Bandit) Config() Config {
	return b.cfg
}

// NumPeriods is the number of periods opened so far (0 without memory).
func (b *Bandit) NumPeriods() int {
	if b.periods == nil {
		return 0
	}
	return b.periods.opened
}

// AddPeriod opens a new, empty period. Results added afterwards belong to it
// until the next AddPeriod call.
func (b *Bandit) AddPeriod() error {
	if b.periods == nil {
		return ErrMemoryDisabled
	}
	b.periods.open(b.numOptions)
	return nil
}

// AddResults adds trials and successes to one option's lifetime totals and,
// with memory, to the most recently opened period.
func (b *Bandit) AddResults(optionID int, trials, successes float64) error {
	if optionID < 0 || optionID >= b.numOptions {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOptionOutOfRange, optionID, b.numOptions)
	}
	if !(successes >= 0) || !(trials >= successes) || math.IsInf(trials, 0) {
		return fmt.Errorf("%w: trials=%v successes=%v", ErrInvalidResults, trials, successes)
	}
	if b.periods != nil && b.periods.latest() < 0 {
		return ErrNoOpenPeriod
	}

	b.trials[optionID] += trials
	b.successes[optionID] += successes
	if b.periods != nil {
		b.periods.add(optionID, trials, successes)
	}
	return nil
}

// WeighOptions sums every retained period's results weighted by the decay
// shape. The most recent period is at distance 1.
func (b *Bandit) WeighOptions() ([]float64, []float64, error) {
	if b.periods == nil {
		return nil, nil, ErrMemoryDisabled
	}

	trialWeights := make([]float64, b.numOptions)
	successWeights := make([]float64, b.numOptions)

	numPeriods := b.periods.len()
	for p := 0; p < numPeriods; p++ {
		distance := numPeriods - p
		w := b.cfg.Shape.Weight(distance, b.cfg.Cutoff, b.cfg.CutLevel)
		if w == 0 {
			continue
		}
		trials, successes := b.periods.trials[p], b.periods.successes[p]
		for i := 0; i < b.numOptions; i++ {
			trialWeights[i] += trials[i] * w
			successWeights[i] += successes[i] * w
		}
	}

	return trialWeights, successWeights, nil
}

// evidence returns the totals posteriors are built from.
func (b *Bandit) evidence() ([]float64, []float64) {
	if b.periods != nil {
		t, s, _ := b.WeighOptions()
		return t, s
	}
	return b.trials, b.successes
}

// ChooseOptions draws one sample from every option's Beta posterior and
// returns the indices of the k largest draws, best first.
func (b *Bandit) ChooseOptions(k int) ([]int, error) {
	if k < 1 {
		return nil, ErrInvalidChoice
	}
	trials, successes := b.evidence()
	return b.choose(trials, successes, k, make([]float64, b.numOptions)), nil
}

func (b *Bandit) choose(trials, successes []float64, k int, theta []float64) []int {
	if k > b.numOptions {
		k = b.numOptions
	}

	idx := make([]int, b.numOptions)
	for i := range b.numOptions {
		alpha := b.prior.Alpha + successes[i]
		beta := b.prior.Beta + trials[i] - successes[i]
		theta[i] = b.sampler.Beta(alpha, beta)
		idx[i] = i
	}
	banditDrawsTotal.Add(float64(b.numOptions))

	// equal draws have probability zero; the index order only makes the sort total
	slices.SortFunc(idx, func(x, y int) int {
		switch {
		case theta[x] > theta[y]:
			return -1
		case theta[x] < theta[y]:
			return 1
		default:
			return x - y
		}
	})

	return idx[:k]
}

// RepeatChoice runs ChooseOptions(k) repetitions times and counts how often
// each option was among the chosen.
func (b *Bandit) RepeatChoice(k, repetitions int) ([]int, error) {
	if k < 1 || repetitions < 1 {
		return nil, ErrInvalidChoice
	}

	trials, successes := b.evidence()
	theta := make([]float64, b.numOptions)
	counts := make([]int, b.numOptions)
	for range repetitions {
		for _, i := range b.choose(trials, successes, k, theta) {
			counts[i]++
		}
	}
	return counts, nil
}

// OperatingPoint returns the number of choices per draw and the number of
// draws. Accelerated runs pick a tenth of the options ten times; the fine
// setting picks one option a hundred times.
func OperatingPoint(numOptions int, accelerate bool) (int, int) {
	if accelerate {
		return int(math.Ceil(float64(numOptions) / 10)), 10
	}
	return 1, 100
}

// CalculateShares returns each option's recommended share of the next
// period. Shares sum to 1.
func (b *Bandit) CalculateShares(accelerate bool) ([]float64, error) {
	k, repetitions := OperatingPoint(b.numOptions, accelerate)
	if k > b.numOptions {
		k = b.numOptions
	}

	counts, err := b.RepeatChoice(k, repetitions)
	if err != nil {
		return nil, err
	}

	votes := float64(k * repetitions)
	shares := make([]float64, b.numOptions)
	for i, c := range counts {
		shares[i] = float64(c) / votes
	}
	return shares, nil
}

// SharesToStatus turns shares into on/off decisions: any share keeps an option on.
func SharesToStatus(shares []float64) []bool {
	status := make([]bool, len(shares))
	for i, s := range shares {
		status[i] = s > 0
	}
	return status
}

type Posterior struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Mean  float64 `json:"mean"`
}

// Posteriors returns the Beta posterior ChooseOptions would sample from.
func (b *Bandit) Posteriors() []Posterior {
	trials, successes := b.evidence()
	out := make([]Posterior, b.numOptions)
	for i := range out {
		alpha := b.prior.Alpha + successes[i]
		beta := b.prior.Beta + trials[i] - successes[i]
		out[i] = Posterior{Alpha: alpha, Beta: beta, Mean: alpha / (alpha + beta)}
	}
	return out
}

package bandit

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws from Beta distributions.
type Sampler interface {
	Beta(alpha, beta float64) float64
}

type betaSampler struct {
	src rand.Source
}

// NewSampler returns the production sampler. It draws from the runtime's
// randomly seeded generator, so every draw is independent across requests.
func NewSampler() Sampler {
	return betaSampler{}
}

// NewSeededSampler is for tests and simulations only: the same seed and the
// same sequence of calls give the same draws.
func NewSeededSampler(seed uint64) Sampler {
	return betaSampler{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

func (s betaSampler) Beta(alpha, beta float64) float64 {
	return distuv.Beta{Alpha: alpha, Beta: beta, Src: s.src}.Rand()
}

package bandit

import (
	"fmt"
	"math"
)

type Config struct {
	// Memory keeps per-period results and weighs them by age.
	Memory bool

	Shape Shape

	// Cutoff is the retention horizon in periods; periods at or beyond it weigh 0.
	Cutoff int

	// CutLevel is the weight an evidence period approaches at the cutoff.
	CutLevel float64
}

// Prior is the Beta(α₀, β₀) belief every option starts from.
type Prior struct {
	Alpha float64
	Beta  float64
}

const (
	defaultShape    = ShapeLinear
	defaultCutoff   = 14
	defaultCutLevel = 0.5
)

var uniformPrior = Prior{Alpha: 1.0, Beta: 1.0}

func DefaultConfig() Config {
	return Config{
		Memory:   true,
		Shape:    defaultShape,
		Cutoff:   defaultCutoff,
		CutLevel: defaultCutLevel,
	}
}

// Validate reports configuration errors. Nothing is defaulted silently.
func (c Config) Validate() error {
	if !c.Shape.valid() {
		return fmt.Errorf("%w: unknown shape %d", ErrInvalidConfig, int(c.Shape))
	}
	if c.Cutoff <= 0 {
		return fmt.Errorf("%w: cutoff must be positive, got %d", ErrInvalidConfig, c.Cutoff)
	}
	if math.IsNaN(c.CutLevel) || c.CutLevel <= 0 || c.CutLevel > 1 {
		return fmt.Errorf("%w: cut level must be in (0, 1], got %v", ErrInvalidConfig, c.CutLevel)
	}
	return nil
}

// NewConfig builds a validated Config from wire values (env, DB, request).
func NewConfig(memory bool, shape string, cutoff int, cutLevel float64) (Config, error) {
	s, err := ParseShape(shape)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Memory:   memory,
		Shape:    s,
		Cutoff:   cutoff,
		CutLevel: cutLevel,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

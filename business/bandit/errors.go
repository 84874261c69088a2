package bandit

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid bandit config")
	ErrNoOptions        = errors.New("bandit needs at least one option")
	ErrOptionOutOfRange = errors.New("option id out of range")
	ErrInvalidResults   = errors.New("results must satisfy 0 <= successes <= trials")
	ErrMemoryDisabled   = errors.New("operation requires a bandit with memory")
	ErrNoOpenPeriod     = errors.New("no period opened; call AddPeriod first")
	ErrInvalidChoice    = errors.New("choices and repetitions must be positive")
)

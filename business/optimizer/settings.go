package optimizer

import (
	"context"
	"fmt"

	"adOptimizer/business/bandit"
	"adOptimizer/domain"
	"adOptimizer/pkg/logger"
)

// Settings is the effective optimizer configuration for one account.
type Settings struct {
	Bandit     bandit.Config
	Accelerate bool
}

func DefaultSettings() Settings {
	return Settings{Bandit: bandit.DefaultConfig()}
}

func (s Settings) toDomain(accountID uint) domain.OptimizerConfig {
	return domain.OptimizerConfig{
		AccountID:  accountID,
		Memory:     s.Bandit.Memory,
		Shape:      s.Bandit.Shape.String(),
		Cutoff:     s.Bandit.Cutoff,
		CutLevel:   s.Bandit.CutLevel,
		Accelerate: s.Accelerate,
	}
}

// SettingsFromConfig validates a stored or submitted per-account config.
func SettingsFromConfig(c domain.OptimizerConfig) (Settings, error) {
	cfg, err := bandit.NewConfig(c.Memory, c.Shape, c.Cutoff, c.CutLevel)
	if err != nil {
		return Settings{}, err
	}
	return Settings{Bandit: cfg, Accelerate: c.Accelerate}, nil
}

// Settings returns the account's stored configuration, or the process
// defaults when the account has none. A stored configuration that no longer
// validates is an error.
func (s *Service) Settings(ctx context.Context, accountID uint) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, fmt.Errorf("context error: %w", err)
	}
	if s.cfgRepo == nil || accountID == 0 {
		return s.defaults, nil
	}

	stored, ok, err := s.cfgRepo.GetConfig(ctx, accountID)
	if err != nil {
		logger.Error("failed to load optimizer config", "account_id", accountID, "error", err)
		return Settings{}, fmt.Errorf("load optimizer config: %w", err)
	}
	if !ok {
		return s.defaults, nil
	}

	settings, err := SettingsFromConfig(stored)
	if err != nil {
		logger.Error("stored optimizer config is invalid", "account_id", accountID, "error", err)
		return Settings{}, fmt.Errorf("account %d: %w", accountID, err)
	}
	return settings, nil
}

// UpdateSettings validates and stores an account's configuration.
func (s *Service) UpdateSettings(ctx context.Context, accountID uint, c domain.OptimizerConfig) (domain.OptimizerConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.OptimizerConfig{}, fmt.Errorf("context error: %w", err)
	}
	if s.cfgRepo == nil {
		return domain.OptimizerConfig{}, ErrNoConfigStore
	}

	settings, err := SettingsFromConfig(c)
	if err != nil {
		return domain.OptimizerConfig{}, err
	}

	stored := settings.toDomain(accountID)
	if err := s.cfgRepo.SaveConfig(ctx, &stored); err != nil {
		logger.Error("failed to save optimizer config", "account_id", accountID, "error", err)
		return domain.OptimizerConfig{}, fmt.Errorf("save optimizer config: %w", err)
	}

	logger.Info("optimizer config updated",
		"account_id", accountID,
		"shape", stored.Shape,
		"cutoff", stored.Cutoff,
		"memory", stored.Memory,
	)
	return stored, nil
}

// SettingsView renders the effective settings of an account.
func (s *Service) SettingsView(ctx context.Context, accountID uint) (domain.OptimizerConfig, error) {
	settings, err := s.Settings(ctx, accountID)
	if err != nil {
		return domain.OptimizerConfig{}, err
	}
	return settings.toDomain(accountID), nil
}

package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"adOptimizer/business/optimizer"
	"adOptimizer/domain"
)

type OptimizationRunRepository struct {
	DB *gorm.DB
}

var _ optimizer.RunRepository = (*OptimizationRunRepository)(nil)

func NewOptimizationRunRepository(db *gorm.DB) *OptimizationRunRepository {
	return &OptimizationRunRepository{DB: db}
}

func (r *OptimizationRunRepository) SaveRun(ctx context.Context, run *domain.OptimizationRun) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save optimization run: %w", err)
	}

	return nil
}

// ListRuns returns an account's most recent runs, newest first.
func (r *OptimizationRunRepository) ListRuns(ctx context.Context, accountID uint, limit int) ([]domain.OptimizationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []domain.OptimizationRun
	err := r.DB.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list optimization runs: %w", err)
	}

	return runs, nil
}

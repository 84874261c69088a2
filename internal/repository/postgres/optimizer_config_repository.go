package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"adOptimizer/business/optimizer"
	"adOptimizer/domain"
)

type OptimizerConfigRepository struct {
	DB *gorm.DB
}

var _ optimizer.ConfigRepository = (*OptimizerConfigRepository)(nil)

func NewOptimizerConfigRepository(db *gorm.DB) *OptimizerConfigRepository {
	return &OptimizerConfigRepository{DB: db}
}

func (r *OptimizerConfigRepository) GetConfig(ctx context.Context, accountID uint) (domain.OptimizerConfig, bool, error) {
	var cfg domain.OptimizerConfig

	err := r.DB.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.OptimizerConfig{}, false, nil
	}
	if err != nil {
		return domain.OptimizerConfig{}, false, err
	}

	return cfg, true, nil
}

func (r *OptimizerConfigRepository) SaveConfig(ctx context.Context, cfg *domain.OptimizerConfig) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"memory",
				"shape",
				"cutoff",
				"cut_level",
				"accelerate",
				"updated_at",
			}),
		}).
		Create(cfg).Error
}

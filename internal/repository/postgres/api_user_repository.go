package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"adOptimizer/business/account"
	"adOptimizer/domain"
)

type APIUserRepository struct {
	DB *gorm.DB
}

var _ account.UserRepository = (*APIUserRepository)(nil)

func NewAPIUserRepository(db *gorm.DB) *APIUserRepository {
	return &APIUserRepository{
		DB: db,
	}
}

func (r *APIUserRepository) Create(ctx context.Context, user *domain.APIUser) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create api user: %w", err)
	}

	return nil
}

func (r *APIUserRepository) FindByPrefix(ctx context.Context, prefix string) (domain.APIUser, error) {
	var user domain.APIUser

	err := r.DB.WithContext(ctx).Where("key_prefix = ?", prefix).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APIUser{}, account.ErrUserNotFound
		}
		return domain.APIUser{}, err
	}

	return user, nil
}

func (r *APIUserRepository) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).
		Model(&domain.APIUser{}).
		Where("id = ?", id).
		UpdateColumn("last_activity_at", at).Error
}

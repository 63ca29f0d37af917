package repository

import (
	"context"
	"errors"

	"wayfare/internal/cache"
	"wayfare/internal/models"

	"gorm.io/gorm"
)

// FeeConfigRepository manages the platform fee schedule.
type FeeConfigRepository interface {
	GetActive(ctx context.Context) (*models.BookingFeeConfig, error)
	List(ctx context.Context, limit, offset int) ([]models.BookingFeeConfig, error)
	Activate(ctx context.Context, cfg *models.BookingFeeConfig) error
}

type feeConfigRepository struct {
	db *gorm.DB
}

// NewFeeConfigRepository returns a new FeeConfigRepository implementation.
func NewFeeConfigRepository(db *gorm.DB) FeeConfigRepository {
	return &feeConfigRepository{db: db}
}

func (r *feeConfigRepository) GetActive(ctx context.Context) (*models.BookingFeeConfig, error) {
	var cfg models.BookingFeeConfig

	err := cache.Aside(ctx, cache.FeeConfigKey, &cfg, cache.FeeConfigTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).
			Where("active = ?", true).
			Order("created_at DESC").
			First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Fee config", "active")
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *feeConfigRepository) List(ctx context.Context, limit, offset int) ([]models.BookingFeeConfig, error) {
	var cfgs []models.BookingFeeConfig
	if err := readDB(r.db).WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&cfgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cfgs, nil
}

// Activate inserts a new fee config and deactivates all previous ones in a
// single transaction, preserving the single-active invariant.
func (r *feeConfigRepository) Activate(ctx context.Context, cfg *models.BookingFeeConfig) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BookingFeeConfig{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}
		cfg.Active = true
		return tx.Create(cfg).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeeConfig(ctx)
	return nil
}

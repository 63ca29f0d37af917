package repository

import (
	"context"
	"errors"

	"wayfare/internal/cache"
	"wayfare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurrencyRepository defines persistence operations for supported currencies.
type CurrencyRepository interface {
	List(ctx context.Context) ([]models.Currency, error)
	GetByCode(ctx context.Context, code string) (*models.Currency, error)
	Upsert(ctx context.Context, currency *models.Currency) error
}

type currencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository returns a new CurrencyRepository implementation.
func NewCurrencyRepository(db *gorm.DB) CurrencyRepository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) List(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency

	err := cache.Aside(ctx, cache.CurrencyRatesKey, &currencies, cache.CurrencyRatesTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).
			Where("enabled = ?", true).
			Order("code ASC").
			Find(&currencies).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	var currency models.Currency
	if err := readDB(r.db).WithContext(ctx).Where("code = ?", code).First(&currency).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Currency", code)
		}
		return nil, models.NewInternalError(err)
	}
	return &currency, nil
}

func (r *currencyRepository) Upsert(ctx context.Context, currency *models.Currency) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "symbol", "rate_to_eur", "enabled", "updated_at"}),
	}).Create(currency).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CurrencyRatesKey)
	return nil
}

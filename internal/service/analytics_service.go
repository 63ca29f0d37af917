package service

import (
	"context"
	"strings"
	"time"

	"wayfare/internal/models"
	"wayfare/internal/repository"
)

// maxRevenueRange caps a revenue series query to two years.
const maxRevenueRange = 2 * 365 * 24 * time.Hour

type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	currencyRepo  repository.CurrencyRepository
}

func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository, currencyRepo repository.CurrencyRepository) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo, currencyRepo: currencyRepo}
}

func (s *AnalyticsService) PlatformStats(ctx context.Context) (*repository.PlatformStats, error) {
	return s.analyticsRepo.PlatformStats(ctx)
}

// RevenueSeries returns per-day revenue. A zero range defaults to the last
// 30 days.
func (s *AnalyticsService) RevenueSeries(ctx context.Context, from, to time.Time) ([]repository.RevenuePoint, error) {
	if from.IsZero() || to.IsZero() {
		to = time.Now().UTC()
		from = to.AddDate(0, 0, -30)
	}
	if !to.After(from) {
		return nil, models.NewValidationError("End of range must be after the start")
	}
	if to.Sub(from) > maxRevenueRange {
		return nil, models.NewValidationError("Range cannot exceed two years")
	}
	return s.analyticsRepo.RevenueSeries(ctx, from, to)
}

func (s *AnalyticsService) TopAccommodations(ctx context.Context, limit int) ([]*models.Accommodation, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.analyticsRepo.TopAccommodations(ctx, limit)
}

// UserGrowth returns per-day signups. A zero range defaults to the last
// 30 days.
func (s *AnalyticsService) UserGrowth(ctx context.Context, from, to time.Time) ([]repository.GrowthPoint, error) {
	if from.IsZero() || to.IsZero() {
		to = time.Now().UTC()
		from = to.AddDate(0, 0, -30)
	}
	if !to.After(from) {
		return nil, models.NewValidationError("End of range must be after the start")
	}
	if to.Sub(from) > maxRevenueRange {
		return nil, models.NewValidationError("Range cannot exceed two years")
	}
	return s.analyticsRepo.UserGrowth(ctx, from, to)
}

// Occupancy returns booked-night ratios per listing over a window, most
// occupied first. A zero range defaults to the last 30 days.
func (s *AnalyticsService) Occupancy(ctx context.Context, from, to time.Time, limit int) ([]repository.OccupancyRow, error) {
	if from.IsZero() || to.IsZero() {
		to = time.Now().UTC()
		from = to.AddDate(0, 0, -30)
	}
	if !to.After(from) {
		return nil, models.NewValidationError("End of range must be after the start")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.analyticsRepo.Occupancy(ctx, from, to, limit)
}

func (s *AnalyticsService) ReelEngagement(ctx context.Context) (*repository.ReelEngagementStats, error) {
	return s.analyticsRepo.ReelEngagement(ctx)
}

// ListCurrencies returns the enabled currencies with their EUR rates.
func (s *AnalyticsService) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	return s.currencyRepo.List(ctx)
}

// ConvertAmount converts cents between two supported currencies.
func (s *AnalyticsService) ConvertAmount(ctx context.Context, amountCents int64, fromCode, toCode string) (int64, error) {
	fromCode = strings.ToUpper(strings.TrimSpace(fromCode))
	toCode = strings.ToUpper(strings.TrimSpace(toCode))
	if len(fromCode) != 3 || len(toCode) != 3 {
		return 0, models.NewValidationError("Currency codes must be 3 letters")
	}
	from, err := s.currencyRepo.GetByCode(ctx, fromCode)
	if err != nil {
		return 0, err
	}
	to, err := s.currencyRepo.GetByCode(ctx, toCode)
	if err != nil {
		return 0, err
	}
	return from.Convert(amountCents, to), nil
}

// UpsertCurrency creates or updates a currency definition. Admin only,
// enforced by the route.
func (s *AnalyticsService) UpsertCurrency(ctx context.Context, currency *models.Currency) error {
	currency.Code = strings.ToUpper(strings.TrimSpace(currency.Code))
	if len(currency.Code) != 3 {
		return models.NewValidationError("Currency code must be 3 letters")
	}
	if currency.RateToEUR <= 0 {
		return models.NewValidationError("Rate must be positive")
	}
	return s.currencyRepo.Upsert(ctx, currency)
}

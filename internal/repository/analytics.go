package repository

import (
	"context"
	"time"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// PlatformStats is the admin dashboard aggregate snapshot.
type PlatformStats struct {
	TotalUsers           int64 `json:"total_users"`
	TotalAccommodations  int64 `json:"total_accommodations"`
	PendingApprovals     int64 `json:"pending_approvals"`
	TotalBookings        int64 `json:"total_bookings"`
	ActiveBookings       int64 `json:"active_bookings"`
	OpenReports          int64 `json:"open_reports"`
	GrossRevenueCents    int64 `json:"gross_revenue_cents"`
	PlatformFeeCents     int64 `json:"platform_fee_cents"`
	RefundedCents        int64 `json:"refunded_cents"`
}

// RevenuePoint is one bucket of the revenue time series.
type RevenuePoint struct {
	Day          time.Time `json:"day"`
	BookingCount int64     `json:"booking_count"`
	RevenueCents int64     `json:"revenue_cents"`
}

// GrowthPoint is one bucket of the signup time series.
type GrowthPoint struct {
	Day     time.Time `json:"day"`
	Signups int64     `json:"signups"`
}

// OccupancyRow reports booked nights per accommodation over a window.
type OccupancyRow struct {
	AccommodationID uint   `json:"accommodation_id"`
	Title           string `json:"title"`
	BookedNights    int64  `json:"booked_nights"`
	OccupancyPct    int64  `json:"occupancy_pct"`
}

// ReelEngagementStats is the platform-wide reel engagement aggregate.
type ReelEngagementStats struct {
	TotalReels    int64 `json:"total_reels"`
	ApprovedReels int64 `json:"approved_reels"`
	TotalViews    int64 `json:"total_views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`
	TotalShares   int64 `json:"total_shares"`
}

// AnalyticsRepository serves the admin dashboard aggregates.
type AnalyticsRepository interface {
	PlatformStats(ctx context.Context) (*PlatformStats, error)
	RevenueSeries(ctx context.Context, from, to time.Time) ([]RevenuePoint, error)
	TopAccommodations(ctx context.Context, limit int) ([]*models.Accommodation, error)
	UserGrowth(ctx context.Context, from, to time.Time) ([]GrowthPoint, error)
	Occupancy(ctx context.Context, from, to time.Time, limit int) ([]OccupancyRow, error)
	ReelEngagement(ctx context.Context) (*ReelEngagementStats, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository returns a new AnalyticsRepository implementation.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	db := readDB(r.db).WithContext(ctx)
	var stats PlatformStats

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Accommodation{}).Count(&stats.TotalAccommodations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Accommodation{}).
		Where("status IN ?", []models.ApprovalStatus{models.ApprovalPending, models.ApprovalFlagged}).
		Count(&stats.PendingApprovals).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Booking{}).Count(&stats.TotalBookings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Booking{}).
		Where("status IN ?", []models.BookingStatus{models.BookingPending, models.BookingConfirmed}).
		Count(&stats.ActiveBookings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.ModerationReport{}).
		Where("status = ?", models.ReportOpen).
		Count(&stats.OpenReports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	type sums struct {
		Gross    int64
		Fees     int64
		Refunded int64
	}
	var s sums
	if err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount_cents), 0) as gross, COALESCE(SUM(platform_fee), 0) as fees, COALESCE(SUM(refund_cents), 0) as refunded").
		Where("status IN ?", []models.PaymentStatus{models.PaymentPaid, models.PaymentPartiallyRefunded, models.PaymentRefunded}).
		Scan(&s).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stats.GrossRevenueCents = s.Gross
	stats.PlatformFeeCents = s.Fees
	stats.RefundedCents = s.Refunded

	return &stats, nil
}

func (r *analyticsRepository) RevenueSeries(ctx context.Context, from, to time.Time) ([]RevenuePoint, error) {
	var points []RevenuePoint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Payment{}).
		Select("DATE_TRUNC('day', paid_at) as day, COUNT(*) as booking_count, COALESCE(SUM(amount_cents), 0) as revenue_cents").
		Where("status IN ?", []models.PaymentStatus{models.PaymentPaid, models.PaymentPartiallyRefunded, models.PaymentRefunded}).
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Group("DATE_TRUNC('day', paid_at)").
		Order("day ASC").
		Scan(&points).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return points, nil
}

func (r *analyticsRepository) UserGrowth(ctx context.Context, from, to time.Time) ([]GrowthPoint, error) {
	var points []GrowthPoint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Select("DATE_TRUNC('day', created_at) as day, COUNT(*) as signups").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("DATE_TRUNC('day', created_at)").
		Order("day ASC").
		Scan(&points).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return points, nil
}

// Occupancy counts nights that fall inside the window, clipping stays that
// straddle its edges.
func (r *analyticsRepository) Occupancy(ctx context.Context, from, to time.Time, limit int) ([]OccupancyRow, error) {
	windowDays := int64(to.Sub(from).Hours() / 24)
	if windowDays <= 0 {
		return nil, models.NewValidationError("Occupancy window must span at least one day")
	}

	var rows []OccupancyRow
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Booking{}).
		Select("bookings.accommodation_id, accommodations.title, "+
			"SUM(EXTRACT(DAY FROM (LEAST(bookings.check_out, ?::timestamp) - GREATEST(bookings.check_in, ?::timestamp)))) as booked_nights",
			to, from).
		Joins("JOIN accommodations ON accommodations.id = bookings.accommodation_id").
		Where("bookings.status IN ?", []models.BookingStatus{models.BookingConfirmed, models.BookingCompleted}).
		Where("bookings.check_in < ? AND bookings.check_out > ?", to, from).
		Group("bookings.accommodation_id, accommodations.title").
		Order("booked_nights DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	for i := range rows {
		rows[i].OccupancyPct = rows[i].BookedNights * 100 / windowDays
		if rows[i].OccupancyPct > 100 {
			rows[i].OccupancyPct = 100
		}
	}
	return rows, nil
}

func (r *analyticsRepository) ReelEngagement(ctx context.Context) (*ReelEngagementStats, error) {
	db := readDB(r.db).WithContext(ctx)
	var stats ReelEngagementStats

	if err := db.Model(&models.Reel{}).Count(&stats.TotalReels).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Reel{}).
		Where("status = ?", models.ApprovalApproved).
		Count(&stats.ApprovedReels).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	type sums struct {
		Views  int64
		Shares int64
	}
	var s sums
	if err := db.Model(&models.Reel{}).
		Select("COALESCE(SUM(view_count), 0) as views, COALESCE(SUM(share_count), 0) as shares").
		Scan(&s).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stats.TotalViews = s.Views
	stats.TotalShares = s.Shares

	if err := db.Model(&models.ReelEngagement{}).
		Where("type = ?", models.EngagementLike).
		Count(&stats.TotalLikes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.ReelComment{}).Count(&stats.TotalComments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return &stats, nil
}

func (r *analyticsRepository) TopAccommodations(ctx context.Context, limit int) ([]*models.Accommodation, error) {
	var accs []*models.Accommodation
	err := readDB(r.db).WithContext(ctx).
		Select("accommodations.*, "+
			"(SELECT COUNT(*) FROM bookings WHERE bookings.accommodation_id = accommodations.id AND bookings.deleted_at IS NULL) as booking_count, "+
			"COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.accommodation_id = accommodations.id AND reviews.status = 'APPROVED' AND reviews.deleted_at IS NULL), 0) as average_rating").
		Where("accommodations.status = ?", models.ApprovalApproved).
		Order("booking_count DESC").
		Limit(limit).
		Find(&accs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accs, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// BookingRepository defines persistence operations for reservations.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	HasOverlap(ctx context.Context, accommodationID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Booking, error)
	ListByAccommodation(ctx context.Context, accommodationID uint, limit, offset int) ([]*models.Booking, error)
	ListBySupplier(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Booking, error)
	BookedRanges(ctx context.Context, accommodationID uint, from, to time.Time) ([]*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id uint, status models.BookingStatus) error
	CompleteElapsed(ctx context.Context, before time.Time) (int64, error)
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository returns a new BookingRepository implementation.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("Accommodation").
		Preload("Accommodation.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Limit(1)
		}).
		First(&booking, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Booking", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &booking, nil
}

// HasOverlap reports whether any blocking booking intersects the half-open
// range [checkIn, checkOut). CANCELLED and NO_SHOW bookings do not block.
// excludeBookingID is ignored when zero and is used when rescheduling.
func (r *bookingRepository) HasOverlap(ctx context.Context, accommodationID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("accommodation_id = ?", accommodationID).
		Where("status NOT IN ?", []models.BookingStatus{models.BookingCancelled, models.BookingNoShow}).
		Where("check_in < ? AND ? < check_out", checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := readDB(r.db).WithContext(ctx).
		Preload("Accommodation").
		Preload("Accommodation.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Limit(1)
		}).
		Where("user_id = ?", userID).
		Order("check_in DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListByAccommodation(ctx context.Context, accommodationID uint, limit, offset int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("accommodation_id = ?", accommodationID).
		Order("check_in DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListBySupplier(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("Accommodation").
		Joins("JOIN accommodations ON accommodations.id = bookings.accommodation_id").
		Where("accommodations.supplier_id = ?", supplierID).
		Order("bookings.check_in DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookings, nil
}

// BookedRanges returns the blocking bookings of a listing that intersect
// [from, to), for availability calendars. Price details are not included.
func (r *bookingRepository) BookedRanges(ctx context.Context, accommodationID uint, from, to time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := readDB(r.db).WithContext(ctx).
		Select("id", "check_in", "check_out", "status").
		Where("accommodation_id = ?", accommodationID).
		Where("status NOT IN ?", []models.BookingStatus{models.BookingCancelled, models.BookingNoShow}).
		Where("check_in < ? AND ? < check_out", to, from).
		Order("check_in ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookings, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Save(booking).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uint, status models.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Booking", id)
	}
	return nil
}

// CompleteElapsed transitions confirmed bookings whose stay has ended into
// COMPLETED. Run by the periodic sweeper.
func (r *bookingRepository) CompleteElapsed(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", models.BookingConfirmed).
		Where("check_out < ?", before).
		Update("status", models.BookingCompleted)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

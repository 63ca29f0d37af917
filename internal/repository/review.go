package repository

import (
	"context"
	"errors"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	GetByBookingID(ctx context.Context, bookingID uint) (*models.Review, error)
	ListByAccommodation(ctx context.Context, accommodationID uint, limit, offset int) ([]*models.Review, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error)
	ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus) error
	Delete(ctx context.Context, id uint) error
	MarkHelpful(ctx context.Context, userID, reviewID uint) error
	UnmarkHelpful(ctx context.Context, userID, reviewID uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// applyReviewDetails adds the helpful vote count in a single query.
func (r *reviewRepository) applyReviewDetails(db *gorm.DB) *gorm.DB {
	return db.Select("reviews.*, " +
		"(SELECT COUNT(*) FROM review_helpfuls WHERE review_helpfuls.review_id = reviews.id) as helpful_count")
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A review already exists for this booking")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := r.applyReviewDetails(readDB(r.db).WithContext(ctx)).
		Preload("User").
		First(&review, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &review, nil
}

func (r *reviewRepository) GetByBookingID(ctx context.Context, bookingID uint) (*models.Review, error) {
	var review models.Review
	if err := readDB(r.db).WithContext(ctx).Where("booking_id = ?", bookingID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &review, nil
}

func (r *reviewRepository) ListByAccommodation(ctx context.Context, accommodationID uint, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.applyReviewDetails(readDB(r.db).WithContext(ctx)).
		Preload("User").
		Where("reviews.accommodation_id = ? AND reviews.status = ?", accommodationID, models.ApprovalApproved).
		Order("reviews.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.applyReviewDetails(readDB(r.db).WithContext(ctx)).
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Review", id)
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Review{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) MarkHelpful(ctx context.Context, userID, reviewID uint) error {
	// INSERT ... ON CONFLICT DO NOTHING keeps repeated votes idempotent
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO review_helpfuls (user_id, review_id, created_at)
		 VALUES (?, ?, NOW())
		 ON CONFLICT (user_id, review_id) DO NOTHING`,
		userID, reviewID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) UnmarkHelpful(ctx context.Context, userID, reviewID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Delete(&models.ReviewHelpful{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

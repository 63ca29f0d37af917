package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wayfare/internal/cache"
	"wayfare/internal/events"
	"wayfare/internal/models"
	"wayfare/internal/repository"
	"wayfare/internal/validation"
)

const (
	maxReviewTitleLen   = 150
	maxReviewCommentLen = 4000
	// reviewWindow is how long after check-out a review may still be left.
	reviewWindow = 30 * 24 * time.Hour
)

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	bookingRepo repository.BookingRepository
	accRepo     repository.AccommodationRepository
	userRepo    repository.UserRepository
	notifier    Notify
	publisher   events.Publisher
}

type CreateReviewInput struct {
	UserID    uint
	BookingID uint
	Rating    int
	Title     string
	Comment   string
}

type UpdateReviewInput struct {
	ReviewID uint
	UserID   uint
	Rating   *int
	Title    *string
	Comment  *string
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	bookingRepo repository.BookingRepository,
	accRepo repository.AccommodationRepository,
	userRepo repository.UserRepository,
	notifier Notify,
	publisher events.Publisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		accRepo:     accRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		publisher:   publisher,
	}
}

func (s *ReviewService) validateContent(rating int, title, comment string) error {
	if err := validation.ValidateRating(rating); err != nil {
		return models.NewValidationError(err.Error())
	}
	if len(title) > maxReviewTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title must be at most %d characters", maxReviewTitleLen))
	}
	if strings.TrimSpace(comment) == "" {
		return models.NewValidationError("Comment is required")
	}
	if len(comment) > maxReviewCommentLen {
		return models.NewValidationError(fmt.Sprintf("Comment must be at most %d characters", maxReviewCommentLen))
	}
	return nil
}

// Create files a review for the caller's own completed booking. One review
// per booking; reviews wait in the moderation queue before going public.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if err := s.validateContent(in.Rating, in.Title, in.Comment); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only review your own bookings")
	}
	if booking.Status != models.BookingCompleted {
		return nil, models.NewConflictError("Only completed stays can be reviewed")
	}
	if time.Since(booking.CheckOut) > reviewWindow {
		return nil, models.NewConflictError("The review window for this stay has closed")
	}

	existing, err := s.reviewRepo.GetByBookingID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("This booking has already been reviewed")
	}

	review := &models.Review{
		UserID:          in.UserID,
		AccommodationID: booking.AccommodationID,
		BookingID:       in.BookingID,
		Rating:          in.Rating,
		Title:           strings.TrimSpace(in.Title),
		Comment:         strings.TrimSpace(in.Comment),
		Status:          models.ApprovalPending,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.TypeReviewSubmitted, fmt.Sprintf("review:%d", review.ID), review)
	}
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, reviewID uint) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, reviewID)
}

// ListForAccommodation returns only approved reviews.
func (s *ReviewService) ListForAccommodation(ctx context.Context, accommodationID uint, limit, offset int) ([]*models.Review, error) {
	return s.reviewRepo.ListByAccommodation(ctx, accommodationID, limit, offset)
}

func (s *ReviewService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	return s.reviewRepo.ListByUser(ctx, userID, limit, offset)
}

// Update edits the caller's own review. An edit to an approved review sends
// it back through moderation.
func (s *ReviewService) Update(ctx context.Context, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own reviews")
	}

	rating := review.Rating
	if in.Rating != nil {
		rating = *in.Rating
	}
	title := review.Title
	if in.Title != nil {
		title = *in.Title
	}
	comment := review.Comment
	if in.Comment != nil {
		comment = *in.Comment
	}
	if err := s.validateContent(rating, title, comment); err != nil {
		return nil, err
	}

	review.Rating = rating
	review.Title = strings.TrimSpace(title)
	review.Comment = strings.TrimSpace(comment)
	if review.Status == models.ApprovalApproved {
		review.Status = models.ApprovalPending
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	cache.InvalidateAccommodation(ctx, review.AccommodationID)
	return review, nil
}

// Delete removes the caller's own review, or any review for an admin.
func (s *ReviewService) Delete(ctx context.Context, reviewID, requesterID uint) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsAdmin() {
			return models.NewForbiddenError("You can only delete your own reviews")
		}
	}
	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}
	cache.InvalidateAccommodation(ctx, review.AccommodationID)
	return nil
}

// MarkHelpful records a helpful vote. Voting twice is a no-op.
func (s *ReviewService) MarkHelpful(ctx context.Context, userID, reviewID uint) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.Status != models.ApprovalApproved {
		return models.NewNotFoundError("Review", reviewID)
	}
	if review.UserID == userID {
		return models.NewValidationError("You cannot vote on your own review")
	}
	return s.reviewRepo.MarkHelpful(ctx, userID, reviewID)
}

func (s *ReviewService) UnmarkHelpful(ctx context.Context, userID, reviewID uint) error {
	return s.reviewRepo.UnmarkHelpful(ctx, userID, reviewID)
}

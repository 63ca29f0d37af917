package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"wayfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn              func(context.Context, *models.Review) error
	getByIDFn             func(context.Context, uint) (*models.Review, error)
	getByBookingIDFn      func(context.Context, uint) (*models.Review, error)
	listByAccommodationFn func(context.Context, uint, int, int) ([]*models.Review, error)
	listByUserFn          func(context.Context, uint, int, int) ([]*models.Review, error)
	listByStatusFn        func(context.Context, models.ApprovalStatus, int, int) ([]*models.Review, error)
	updateFn              func(context.Context, *models.Review) error
	updateStatusFn        func(context.Context, uint, models.ApprovalStatus) error
	deleteFn              func(context.Context, uint) error
	markHelpfulFn         func(context.Context, uint, uint) error
	unmarkHelpfulFn       func(context.Context, uint, uint) error
}

func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	return s.createFn(ctx, review)
}
func (s *reviewRepoStub) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reviewRepoStub) GetByBookingID(ctx context.Context, bookingID uint) (*models.Review, error) {
	return s.getByBookingIDFn(ctx, bookingID)
}
func (s *reviewRepoStub) ListByAccommodation(ctx context.Context, accommodationID uint, limit, offset int) ([]*models.Review, error) {
	return s.listByAccommodationFn(ctx, accommodationID, limit, offset)
}
func (s *reviewRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *reviewRepoStub) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Review, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *reviewRepoStub) Update(ctx context.Context, review *models.Review) error {
	return s.updateFn(ctx, review)
}
func (s *reviewRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus) error {
	return s.updateStatusFn(ctx, id, status)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *reviewRepoStub) MarkHelpful(ctx context.Context, userID, reviewID uint) error {
	return s.markHelpfulFn(ctx, userID, reviewID)
}
func (s *reviewRepoStub) UnmarkHelpful(ctx context.Context, userID, reviewID uint) error {
	return s.unmarkHelpfulFn(ctx, userID, reviewID)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn: func(_ context.Context, r *models.Review) error {
			r.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Review, error) {
			return &models.Review{ID: id, Status: models.ApprovalApproved}, nil
		},
		getByBookingIDFn: func(_ context.Context, _ uint) (*models.Review, error) { return nil, nil },
		listByAccommodationFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Review, error) {
			return nil, nil
		},
		listByUserFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Review, error) { return nil, nil },
		listByStatusFn: func(_ context.Context, _ models.ApprovalStatus, _, _ int) ([]*models.Review, error) {
			return nil, nil
		},
		updateFn:        func(_ context.Context, _ *models.Review) error { return nil },
		updateStatusFn:  func(_ context.Context, _ uint, _ models.ApprovalStatus) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		markHelpfulFn:   func(_ context.Context, _, _ uint) error { return nil },
		unmarkHelpfulFn: func(_ context.Context, _, _ uint) error { return nil },
	}
}

func completedBooking() *models.Booking {
	checkIn := time.Now().UTC().AddDate(0, 0, -10)
	return &models.Booking{
		ID:              5,
		UserID:          1,
		AccommodationID: 3,
		Status:          models.BookingCompleted,
		CheckIn:         checkIn,
		CheckOut:        checkIn.AddDate(0, 0, 3),
	}
}

func reviewSvcWith(reviewRepo *reviewRepoStub, bookingRepo *bookingRepoStub) *ReviewService {
	return NewReviewService(reviewRepo, bookingRepo, noopAccRepo(), noopUserRepo(), nil, nil)
}

func validReviewInput() CreateReviewInput {
	return CreateReviewInput{
		UserID:    1,
		BookingID: 5,
		Rating:    4,
		Title:     "Great stay",
		Comment:   "Clean, quiet, and close to everything.",
	}
}

func TestReviewService_Create_Validation(t *testing.T) {
	t.Parallel()

	bookingRepo := noopBookingRepo()
	bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
		return completedBooking(), nil
	}
	svc := reviewSvcWith(noopReviewRepo(), bookingRepo)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateReviewInput)
	}{
		{name: "rating too low", mutate: func(in *CreateReviewInput) { in.Rating = 0 }},
		{name: "rating too high", mutate: func(in *CreateReviewInput) { in.Rating = 6 }},
		{name: "empty comment", mutate: func(in *CreateReviewInput) { in.Comment = "   " }},
		{name: "comment too long", mutate: func(in *CreateReviewInput) { in.Comment = strings.Repeat("x", 4001) }},
		{name: "title too long", mutate: func(in *CreateReviewInput) { in.Title = strings.Repeat("x", 151) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validReviewInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assertValidationError(t, err)
		})
	}
}

func TestReviewService_Create_OnlyOwnCompletedBooking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("someone else's booking", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			b := completedBooking()
			b.UserID = 42
			return b, nil
		}
		svc := reviewSvcWith(noopReviewRepo(), bookingRepo)

		_, err := svc.Create(ctx, validReviewInput())
		assertForbiddenError(t, err)
	})

	t.Run("stay not completed", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			b := completedBooking()
			b.Status = models.BookingConfirmed
			return b, nil
		}
		svc := reviewSvcWith(noopReviewRepo(), bookingRepo)

		_, err := svc.Create(ctx, validReviewInput())
		assertConflictError(t, err)
	})

	t.Run("review window closed", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			b := completedBooking()
			b.CheckOut = time.Now().UTC().AddDate(0, 0, -45)
			return b, nil
		}
		svc := reviewSvcWith(noopReviewRepo(), bookingRepo)

		_, err := svc.Create(ctx, validReviewInput())
		assertConflictError(t, err)
	})

	t.Run("already reviewed", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			return completedBooking(), nil
		}
		reviewRepo := noopReviewRepo()
		reviewRepo.getByBookingIDFn = func(_ context.Context, bookingID uint) (*models.Review, error) {
			return &models.Review{ID: 9, BookingID: bookingID}, nil
		}
		svc := reviewSvcWith(reviewRepo, bookingRepo)

		_, err := svc.Create(ctx, validReviewInput())
		assertConflictError(t, err)
	})
}

func TestReviewService_Create_StartsPending(t *testing.T) {
	t.Parallel()

	bookingRepo := noopBookingRepo()
	bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
		return completedBooking(), nil
	}
	svc := reviewSvcWith(noopReviewRepo(), bookingRepo)

	review, err := svc.Create(context.Background(), validReviewInput())
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, review.Status)
	assert.Equal(t, uint(3), review.AccommodationID)
}

func TestReviewService_Update_EditResetsApproval(t *testing.T) {
	t.Parallel()

	reviewRepo := noopReviewRepo()
	reviewRepo.getByIDFn = func(_ context.Context, id uint) (*models.Review, error) {
		return &models.Review{
			ID:              id,
			UserID:          1,
			AccommodationID: 3,
			Rating:          4,
			Comment:         "Original comment",
			Status:          models.ApprovalApproved,
		}, nil
	}
	svc := reviewSvcWith(reviewRepo, noopBookingRepo())

	newComment := "Updated impressions after a second thought."
	review, err := svc.Update(context.Background(), UpdateReviewInput{
		ReviewID: 9,
		UserID:   1,
		Comment:  &newComment,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, review.Status)
	assert.Equal(t, newComment, review.Comment)
}

func TestReviewService_MarkHelpful(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("own review rejected", func(t *testing.T) {
		reviewRepo := noopReviewRepo()
		reviewRepo.getByIDFn = func(_ context.Context, id uint) (*models.Review, error) {
			return &models.Review{ID: id, UserID: 1, Status: models.ApprovalApproved}, nil
		}
		svc := reviewSvcWith(reviewRepo, noopBookingRepo())
		assertValidationError(t, svc.MarkHelpful(ctx, 1, 9))
	})

	t.Run("unapproved review hidden", func(t *testing.T) {
		reviewRepo := noopReviewRepo()
		reviewRepo.getByIDFn = func(_ context.Context, id uint) (*models.Review, error) {
			return &models.Review{ID: id, UserID: 2, Status: models.ApprovalPending}, nil
		}
		svc := reviewSvcWith(reviewRepo, noopBookingRepo())
		assertNotFoundError(t, svc.MarkHelpful(ctx, 1, 9))
	})
}

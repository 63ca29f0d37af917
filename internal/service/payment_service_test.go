package service

import (
	"context"
	"testing"

	"wayfare/internal/models"
	"wayfare/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paymentRepoStub is a stub for repository.PaymentRepository.
type paymentRepoStub struct {
	createFn         func(context.Context, *models.Payment) error
	getByIDFn        func(context.Context, uint) (*models.Payment, error)
	getByBookingIDFn func(context.Context, uint) (*models.Payment, error)
	getByIntentIDFn  func(context.Context, string) (*models.Payment, error)
	updateFn         func(context.Context, *models.Payment) error
	listByStatusFn   func(context.Context, models.PaymentStatus, int, int) ([]*models.Payment, error)
}

func (s *paymentRepoStub) Create(ctx context.Context, p *models.Payment) error {
	return s.createFn(ctx, p)
}
func (s *paymentRepoStub) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *paymentRepoStub) GetByBookingID(ctx context.Context, bookingID uint) (*models.Payment, error) {
	return s.getByBookingIDFn(ctx, bookingID)
}
func (s *paymentRepoStub) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	return s.getByIntentIDFn(ctx, intentID)
}
func (s *paymentRepoStub) Update(ctx context.Context, p *models.Payment) error {
	return s.updateFn(ctx, p)
}
func (s *paymentRepoStub) ListByStatus(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]*models.Payment, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}

func noopPaymentRepo() *paymentRepoStub {
	return &paymentRepoStub{
		createFn: func(_ context.Context, p *models.Payment) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Payment, error) {
			return &models.Payment{ID: id, Status: models.PaymentUnpaid}, nil
		},
		getByBookingIDFn: func(_ context.Context, _ uint) (*models.Payment, error) { return nil, nil },
		getByIntentIDFn: func(_ context.Context, intentID string) (*models.Payment, error) {
			return &models.Payment{ID: 1, IntentID: intentID, Status: models.PaymentProcessing}, nil
		},
		updateFn: func(_ context.Context, _ *models.Payment) error { return nil },
		listByStatusFn: func(_ context.Context, _ models.PaymentStatus, _, _ int) ([]*models.Payment, error) {
			return nil, nil
		},
	}
}

func payableBooking() *models.Booking {
	return &models.Booking{
		ID:            5,
		UserID:        1,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		TotalPrice:    37605,
		ServiceFee:    3000,
		TaxAmount:     3105,
		Currency:      "EUR",
		Accommodation: models.Accommodation{ID: 3, SupplierID: 9},
	}
}

func paymentSvcWith(paymentRepo *paymentRepoStub, bookingRepo *bookingRepoStub, notifier Notify) *PaymentService {
	return NewPaymentService(paymentRepo, bookingRepo, noopFeeRepo(), noopUserRepo(), payment.NewSandboxGateway(), notifier, nil)
}

func TestPaymentService_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("creates intent and payment row", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			return payableBooking(), nil
		}
		var created *models.Payment
		paymentRepo := noopPaymentRepo()
		paymentRepo.createFn = func(_ context.Context, p *models.Payment) error {
			p.ID = 11
			created = p
			return nil
		}
		svc := paymentSvcWith(paymentRepo, bookingRepo, nil)

		result, err := svc.Checkout(context.Background(), 5, 1)
		require.NoError(t, err)
		assert.NotEmpty(t, result.IntentID)
		assert.NotEmpty(t, result.ClientSecret)
		assert.Equal(t, int64(37605), result.AmountCents)

		require.NotNil(t, created)
		assert.Equal(t, models.PaymentProcessing, created.Status)
		assert.Equal(t, int64(3000), created.PlatformFee)
		// Payout excludes the platform fee and tax.
		assert.Equal(t, int64(31500), created.SupplierPayout)
	})

	t.Run("only the traveler can pay", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			return payableBooking(), nil
		}
		svc := paymentSvcWith(noopPaymentRepo(), bookingRepo, nil)

		_, err := svc.Checkout(context.Background(), 5, 42)
		assertForbiddenError(t, err)
	})

	t.Run("paid booking rejected", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			b := payableBooking()
			b.PaymentStatus = models.PaymentPaid
			return b, nil
		}
		svc := paymentSvcWith(noopPaymentRepo(), bookingRepo, nil)

		_, err := svc.Checkout(context.Background(), 5, 1)
		assertConflictError(t, err)
	})

	t.Run("cancelled booking rejected", func(t *testing.T) {
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) {
			b := payableBooking()
			b.Status = models.BookingCancelled
			return b, nil
		}
		svc := paymentSvcWith(noopPaymentRepo(), bookingRepo, nil)

		_, err := svc.Checkout(context.Background(), 5, 1)
		assertConflictError(t, err)
	})
}

func TestPaymentService_HandleWebhook_Succeeded(t *testing.T) {
	t.Parallel()

	t.Run("marks payment and booking paid", func(t *testing.T) {
		pmt := &models.Payment{ID: 1, BookingID: 5, IntentID: "pi_1", Status: models.PaymentProcessing, AmountCents: 37605, Currency: "EUR"}
		paymentRepo := noopPaymentRepo()
		paymentRepo.getByIntentIDFn = func(_ context.Context, _ string) (*models.Payment, error) { return pmt, nil }

		booking := payableBooking()
		booking.PaymentStatus = models.PaymentProcessing
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) { return booking, nil }

		recorder := &notifyRecorder{}
		svc := paymentSvcWith(paymentRepo, bookingRepo, recorder)

		err := svc.HandleWebhook(context.Background(), &payment.WebhookEvent{
			Type: payment.WebhookPaymentSucceeded, IntentID: "pi_1",
		})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, pmt.Status)
		assert.NotNil(t, pmt.PaidAt)
		assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
		// No instant book, so the booking stays pending supplier confirmation.
		assert.Equal(t, models.BookingPending, booking.Status)
		assert.Equal(t, []models.NotificationType{models.NotifyPaymentReceived}, recorder.sent)
	})

	t.Run("instant book confirms on payment", func(t *testing.T) {
		pmt := &models.Payment{ID: 1, BookingID: 5, IntentID: "pi_1", Status: models.PaymentProcessing}
		paymentRepo := noopPaymentRepo()
		paymentRepo.getByIntentIDFn = func(_ context.Context, _ string) (*models.Payment, error) { return pmt, nil }

		booking := payableBooking()
		booking.Accommodation.InstantBook = true
		bookingRepo := noopBookingRepo()
		bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) { return booking, nil }

		svc := paymentSvcWith(paymentRepo, bookingRepo, nil)

		err := svc.HandleWebhook(context.Background(), &payment.WebhookEvent{
			Type: payment.WebhookPaymentSucceeded, IntentID: "pi_1",
		})
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, booking.Status)
		assert.NotNil(t, booking.ConfirmedAt)
	})

	t.Run("repeated delivery is a no-op", func(t *testing.T) {
		pmt := &models.Payment{ID: 1, BookingID: 5, IntentID: "pi_1", Status: models.PaymentPaid}
		updates := 0
		paymentRepo := noopPaymentRepo()
		paymentRepo.getByIntentIDFn = func(_ context.Context, _ string) (*models.Payment, error) { return pmt, nil }
		paymentRepo.updateFn = func(_ context.Context, _ *models.Payment) error {
			updates++
			return nil
		}
		svc := paymentSvcWith(paymentRepo, noopBookingRepo(), nil)

		err := svc.HandleWebhook(context.Background(), &payment.WebhookEvent{
			Type: payment.WebhookPaymentSucceeded, IntentID: "pi_1",
		})
		require.NoError(t, err)
		assert.Zero(t, updates)
	})

	t.Run("unknown intent acknowledged", func(t *testing.T) {
		paymentRepo := noopPaymentRepo()
		paymentRepo.getByIntentIDFn = func(_ context.Context, intentID string) (*models.Payment, error) {
			return nil, models.NewNotFoundError("Payment", intentID)
		}
		svc := paymentSvcWith(paymentRepo, noopBookingRepo(), nil)

		err := svc.HandleWebhook(context.Background(), &payment.WebhookEvent{
			Type: payment.WebhookPaymentSucceeded, IntentID: "pi_unknown",
		})
		assert.NoError(t, err)
	})
}

func TestPaymentService_HandleWebhook_FailureDoesNotRegressPaid(t *testing.T) {
	t.Parallel()

	pmt := &models.Payment{ID: 1, BookingID: 5, IntentID: "pi_1", Status: models.PaymentPaid}
	paymentRepo := noopPaymentRepo()
	paymentRepo.getByIntentIDFn = func(_ context.Context, _ string) (*models.Payment, error) { return pmt, nil }
	svc := paymentSvcWith(paymentRepo, noopBookingRepo(), nil)

	err := svc.HandleWebhook(context.Background(), &payment.WebhookEvent{
		Type: payment.WebhookPaymentFailed, IntentID: "pi_1", Reason: "card declined",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, pmt.Status)
}

func TestPaymentService_HandleWebhook_Refunds(t *testing.T) {
	t.Parallel()

	pmt := &models.Payment{ID: 1, BookingID: 5, IntentID: "pi_1", Status: models.PaymentPaid, AmountCents: 10000}
	paymentRepo := noopPaymentRepo()
	paymentRepo.getByIntentIDFn = func(_ context.Context, _ string) (*models.Payment, error) { return pmt, nil }

	booking := payableBooking()
	bookingRepo := noopBookingRepo()
	bookingRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Booking, error) { return booking, nil }

	svc := paymentSvcWith(paymentRepo, bookingRepo, nil)
	ctx := context.Background()

	err := svc.HandleWebhook(ctx, &payment.WebhookEvent{
		Type: payment.WebhookRefundCompleted, IntentID: "pi_1", AmountCents: 4000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartiallyRefunded, pmt.Status)
	assert.Equal(t, int64(4000), pmt.RefundCents)

	err = svc.HandleWebhook(ctx, &payment.WebhookEvent{
		Type: payment.WebhookRefundCompleted, IntentID: "pi_1", AmountCents: 6000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, pmt.Status)
	assert.Equal(t, int64(10000), pmt.RefundCents)
	assert.Equal(t, models.PaymentRefunded, booking.PaymentStatus)
}

func TestPaymentService_Refund_AdminOnly(t *testing.T) {
	t.Parallel()

	bookingRepo := noopBookingRepo()
	svc := NewPaymentService(noopPaymentRepo(), bookingRepo, noopFeeRepo(), userRepoWithRole(models.RoleTraveler), payment.NewSandboxGateway(), nil, nil)

	_, err := svc.Refund(context.Background(), RefundInput{PaymentID: 1, RequesterID: 42})
	assertForbiddenError(t, err)
}

func TestPaymentService_Refund_RequiresRefundableState(t *testing.T) {
	t.Parallel()

	paymentRepo := noopPaymentRepo()
	paymentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Payment, error) {
		return &models.Payment{ID: id, Status: models.PaymentProcessing, AmountCents: 10000}, nil
	}
	svc := NewPaymentService(paymentRepo, noopBookingRepo(), noopFeeRepo(), userRepoWithRole(models.RoleSuperAdmin), payment.NewSandboxGateway(), nil, nil)

	_, err := svc.Refund(context.Background(), RefundInput{PaymentID: 1, RequesterID: 2})
	assertConflictError(t, err)
}

package service

import (
	"context"
	"fmt"
	"time"

	"wayfare/internal/events"
	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/observability"
	"wayfare/internal/payment"
	"wayfare/internal/repository"
)

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	feeRepo     repository.FeeConfigRepository
	userRepo    repository.UserRepository
	gateway     payment.Gateway
	notifier    Notify
	publisher   events.Publisher
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	feeRepo repository.FeeConfigRepository,
	userRepo repository.UserRepository,
	gateway payment.Gateway,
	notifier Notify,
	publisher events.Publisher,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		feeRepo:     feeRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		notifier:    notifier,
		publisher:   publisher,
	}
}

type CheckoutResult struct {
	PaymentID    uint   `json:"payment_id"`
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

type RefundInput struct {
	PaymentID   uint
	RequesterID uint
	AmountCents int64
	Reason      string
}

// Checkout creates (or refreshes) a payment intent for a booking the
// traveler owns. A failed payment gets a fresh intent on the same row.
func (s *PaymentService) Checkout(ctx context.Context, bookingID, userID uint) (*CheckoutResult, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, models.NewForbiddenError("You do not have access to this booking")
	}
	if !booking.Status.Blocks() {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot pay for a %s booking", booking.Status))
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return nil, models.NewConflictError("Booking is already paid")
	}

	existing, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.PaymentProcessing {
		return &CheckoutResult{
			PaymentID:   existing.ID,
			IntentID:    existing.IntentID,
			AmountCents: existing.AmountCents,
			Currency:    existing.Currency,
		}, nil
	}

	intent, err := s.gateway.CreateIntent(ctx, booking.TotalPrice, booking.Currency, map[string]string{
		"booking_id": fmt.Sprintf("%d", booking.ID),
	})
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("creating payment intent: %w", err))
	}

	platformFee := booking.ServiceFee
	pmt := existing
	if pmt == nil {
		pmt = &models.Payment{
			BookingID:      booking.ID,
			Provider:       s.gateway.Name(),
			IntentID:       intent.ID,
			AmountCents:    booking.TotalPrice,
			Currency:       booking.Currency,
			PlatformFee:    platformFee,
			SupplierPayout: booking.TotalPrice - platformFee - booking.TaxAmount,
			Status:         models.PaymentProcessing,
		}
		if err := s.paymentRepo.Create(ctx, pmt); err != nil {
			return nil, err
		}
	} else {
		pmt.IntentID = intent.ID
		pmt.Status = models.PaymentProcessing
		pmt.FailureReason = ""
		if err := s.paymentRepo.Update(ctx, pmt); err != nil {
			return nil, err
		}
	}

	booking.PaymentStatus = models.PaymentProcessing
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		PaymentID:    pmt.ID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  pmt.AmountCents,
		Currency:     pmt.Currency,
	}, nil
}

// Get returns a payment visible to the traveler or an admin.
func (s *PaymentService) Get(ctx context.Context, paymentID, requesterID uint) (*models.Payment, error) {
	pmt, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if pmt.Booking.UserID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !requester.IsAdmin() {
			return nil, models.NewForbiddenError("You do not have access to this payment")
		}
	}
	return pmt, nil
}

// HandleWebhook applies a verified gateway event. An unknown intent surfaces
// as a NOT_FOUND error so the transport layer can acknowledge it without
// triggering gateway retries.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *payment.WebhookEvent) error {
	pmt, err := s.paymentRepo.GetByIntentID(ctx, event.IntentID)
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "NOT_FOUND" {
			middleware.Logger.WarnContext(ctx, "webhook for unknown payment intent", "intent_id", event.IntentID)
		}
		return err
	}

	switch event.Type {
	case payment.WebhookPaymentSucceeded:
		return s.applyPaymentSucceeded(ctx, pmt)
	case payment.WebhookPaymentFailed:
		return s.applyPaymentFailed(ctx, pmt, event.Reason)
	case payment.WebhookRefundCompleted:
		return s.applyRefundCompleted(ctx, pmt, event.AmountCents)
	default:
		middleware.Logger.WarnContext(ctx, "unhandled webhook event type", "type", event.Type)
		return nil
	}
}

func (s *PaymentService) applyPaymentSucceeded(ctx context.Context, pmt *models.Payment) error {
	if pmt.Status == models.PaymentPaid {
		return nil
	}
	now := time.Now().UTC()
	pmt.Status = models.PaymentPaid
	pmt.PaidAt = &now
	pmt.FailureReason = ""
	if err := s.paymentRepo.Update(ctx, pmt); err != nil {
		return err
	}

	booking, err := s.bookingRepo.GetByID(ctx, pmt.BookingID)
	if err != nil {
		return err
	}
	booking.PaymentStatus = models.PaymentPaid
	if booking.Status == models.BookingPending && booking.Accommodation.InstantBook {
		booking.Status = models.BookingConfirmed
		booking.ConfirmedAt = &now
	}
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return err
	}

	observability.PaymentsProcessed.WithLabelValues(string(models.PaymentPaid)).Inc()
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.TypePaymentSucceeded, fmt.Sprintf("payment:%d", pmt.ID), pmt)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, booking.UserID, models.NotifyPaymentReceived,
			"Payment received",
			fmt.Sprintf("Your payment of %d.%02d %s was received", pmt.AmountCents/100, pmt.AmountCents%100, pmt.Currency),
			booking.ID)
	}
	return nil
}

func (s *PaymentService) applyPaymentFailed(ctx context.Context, pmt *models.Payment, reason string) error {
	if pmt.Status == models.PaymentPaid {
		// Do not regress a settled payment on an out-of-order delivery.
		return nil
	}
	pmt.Status = models.PaymentFailed
	pmt.FailureReason = reason
	if err := s.paymentRepo.Update(ctx, pmt); err != nil {
		return err
	}

	booking, err := s.bookingRepo.GetByID(ctx, pmt.BookingID)
	if err != nil {
		return err
	}
	booking.PaymentStatus = models.PaymentFailed
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return err
	}
	observability.PaymentsProcessed.WithLabelValues(string(models.PaymentFailed)).Inc()
	return nil
}

func (s *PaymentService) applyRefundCompleted(ctx context.Context, pmt *models.Payment, amountCents int64) error {
	now := time.Now().UTC()
	pmt.RefundCents += amountCents
	if pmt.RefundCents >= pmt.AmountCents {
		pmt.RefundCents = pmt.AmountCents
		pmt.Status = models.PaymentRefunded
	} else {
		pmt.Status = models.PaymentPartiallyRefunded
	}
	pmt.RefundedAt = &now
	if err := s.paymentRepo.Update(ctx, pmt); err != nil {
		return err
	}

	booking, err := s.bookingRepo.GetByID(ctx, pmt.BookingID)
	if err != nil {
		return err
	}
	booking.PaymentStatus = pmt.Status
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.TypePaymentRefunded, fmt.Sprintf("payment:%d", pmt.ID), pmt)
	}
	return nil
}

// Refund issues a full or partial refund. Admin only; the gateway confirms
// asynchronously through the webhook.
func (s *PaymentService) Refund(ctx context.Context, in RefundInput) (*models.Payment, error) {
	requester, err := s.userRepo.GetByID(ctx, in.RequesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators can issue refunds")
	}

	pmt, err := s.paymentRepo.GetByID(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if !pmt.CanBeRefunded() {
		return nil, models.NewConflictError("Payment cannot be refunded")
	}

	amount := in.AmountCents
	if amount <= 0 {
		amount = pmt.AmountCents - pmt.RefundCents
	}
	if amount > pmt.AmountCents-pmt.RefundCents {
		return nil, models.NewValidationError("Refund amount exceeds the refundable balance")
	}

	if err := s.gateway.Refund(ctx, pmt.IntentID, amount); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("requesting refund: %w", err))
	}

	pmt.RefundReason = in.Reason
	if err := s.paymentRepo.Update(ctx, pmt); err != nil {
		return nil, err
	}
	return pmt, nil
}

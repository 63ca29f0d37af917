package service

import (
	"context"
	"fmt"
	"time"

	"wayfare/internal/events"
	"wayfare/internal/models"
	"wayfare/internal/observability"
	"wayfare/internal/repository"
	"wayfare/internal/validation"
)

// Notify delivers an in-app notification. Implemented by NotificationService;
// a nil Notify is a no-op so services can run without the hub in tests.
type Notify interface {
	Notify(ctx context.Context, userID uint, kind models.NotificationType, title, body string, entityID uint)
}

type BookingService struct {
	bookingRepo repository.BookingRepository
	accRepo     repository.AccommodationRepository
	feeRepo     repository.FeeConfigRepository
	userRepo    repository.UserRepository
	notifier    Notify
	publisher   events.Publisher
}

type CreateBookingInput struct {
	UserID          uint
	AccommodationID uint
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	Infants         int
	SpecialRequests string
}

type QuoteInput struct {
	AccommodationID uint
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
}

// Quote is the price breakdown for a prospective stay. All amounts are cents.
type Quote struct {
	Nights         int    `json:"nights"`
	BasePriceCents int64  `json:"base_price_cents"`
	ServiceFee     int64  `json:"service_fee_cents"`
	CleaningFee    int64  `json:"cleaning_fee_cents"`
	TaxAmount      int64  `json:"tax_cents"`
	TotalPrice     int64  `json:"total_price_cents"`
	Currency       string `json:"currency"`
}

type CancelBookingInput struct {
	BookingID   uint
	RequesterID uint
	Reason      string
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	accRepo repository.AccommodationRepository,
	feeRepo repository.FeeConfigRepository,
	userRepo repository.UserRepository,
	notifier Notify,
	publisher events.Publisher,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		accRepo:     accRepo,
		feeRepo:     feeRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		publisher:   publisher,
	}
}

// nightsBetween counts whole nights in the half-open range [checkIn, checkOut).
func nightsBetween(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// priceStay computes the full breakdown from the listing price and the active
// fee schedule. Percentages round half up; the service fee is clamped to the
// configured bounds.
func priceStay(basePriceCents int64, nights int, fees *models.BookingFeeConfig) Quote {
	base := basePriceCents * int64(nights)

	serviceFee := percentOf(base, fees.ServiceFeePercent)
	if fees.ServiceFeeMinCents > 0 && serviceFee < fees.ServiceFeeMinCents {
		serviceFee = fees.ServiceFeeMinCents
	}
	if fees.ServiceFeeMaxCents > 0 && serviceFee > fees.ServiceFeeMaxCents {
		serviceFee = fees.ServiceFeeMaxCents
	}

	cleaningFee := percentOf(base, fees.CleaningFeePercent)
	tax := percentOf(base+serviceFee+cleaningFee, fees.TaxRate)

	return Quote{
		Nights:         nights,
		BasePriceCents: base,
		ServiceFee:     serviceFee,
		CleaningFee:    cleaningFee,
		TaxAmount:      tax,
		TotalPrice:     base + serviceFee + cleaningFee + tax,
	}
}

// percentOf returns pct% of amount in cents, rounded half up.
func percentOf(amount int64, pct float64) int64 {
	v := float64(amount) * pct / 100.0
	return int64(v + 0.5)
}

// GetQuote prices a stay without creating a booking.
func (s *BookingService) GetQuote(ctx context.Context, in QuoteInput) (*Quote, error) {
	acc, err := s.accRepo.GetByID(ctx, in.AccommodationID)
	if err != nil {
		return nil, err
	}
	if acc.Status != models.ApprovalApproved {
		return nil, models.NewNotFoundError("Accommodation", in.AccommodationID)
	}
	if err := validation.ValidateStayDates(in.CheckIn, in.CheckOut, time.Now().UTC()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateGuests(in.Adults, in.Children, acc.MaxGuests); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	fees, err := s.feeRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	quote := priceStay(acc.BasePriceCents, nightsBetween(in.CheckIn, in.CheckOut), fees)
	quote.Currency = acc.Currency
	return &quote, nil
}

func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	acc, err := s.accRepo.GetByID(ctx, in.AccommodationID)
	if err != nil {
		return nil, err
	}
	if acc.Status != models.ApprovalApproved {
		return nil, models.NewNotFoundError("Accommodation", in.AccommodationID)
	}
	if acc.SupplierID == in.UserID {
		return nil, models.NewValidationError("You cannot book your own listing")
	}

	if err := validation.ValidateStayDates(in.CheckIn, in.CheckOut, time.Now().UTC()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateGuests(in.Adults, in.Children, acc.MaxGuests); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	nights := nightsBetween(in.CheckIn, in.CheckOut)
	if nights < acc.MinimumNights {
		return nil, models.NewValidationError(fmt.Sprintf("Minimum stay is %d nights", acc.MinimumNights))
	}
	if acc.MaximumNights > 0 && nights > acc.MaximumNights {
		return nil, models.NewValidationError(fmt.Sprintf("Maximum stay is %d nights", acc.MaximumNights))
	}

	overlap, err := s.bookingRepo.HasOverlap(ctx, in.AccommodationID, in.CheckIn, in.CheckOut, 0)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, models.NewConflictError("The accommodation is not available for the selected dates")
	}

	fees, err := s.feeRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	quote := priceStay(acc.BasePriceCents, nights, fees)

	booking := &models.Booking{
		UserID:          in.UserID,
		AccommodationID: in.AccommodationID,
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Nights:          nights,
		Guests:          in.Adults + in.Children,
		Adults:          in.Adults,
		Children:        in.Children,
		Infants:         in.Infants,
		BasePriceCents:  quote.BasePriceCents,
		ServiceFee:      quote.ServiceFee,
		CleaningFee:     quote.CleaningFee,
		TaxAmount:       quote.TaxAmount,
		TotalPrice:      quote.TotalPrice,
		Currency:        acc.Currency,
		Status:          models.BookingPending,
		PaymentStatus:   models.PaymentUnpaid,
		SpecialRequests: in.SpecialRequests,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	observability.BookingsCreated.WithLabelValues(string(acc.Type)).Inc()
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.TypeBookingCreated, fmt.Sprintf("booking:%d", booking.ID), booking)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, acc.SupplierID, models.NotifyNewBooking,
			"New booking request",
			fmt.Sprintf("New booking request for %q (%s to %s)", acc.Title,
				in.CheckIn.Format("2006-01-02"), in.CheckOut.Format("2006-01-02")),
			booking.ID)
	}

	return s.bookingRepo.GetByID(ctx, booking.ID)
}

// Get returns a booking visible to the traveler, the listing's supplier, or
// an admin.
func (s *BookingService) Get(ctx context.Context, bookingID, requesterID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeBookingAccess(ctx, booking, requesterID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) authorizeBookingAccess(ctx context.Context, booking *models.Booking, requesterID uint) error {
	if booking.UserID == requesterID || booking.Accommodation.SupplierID == requesterID {
		return nil
	}
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}
	if !requester.IsAdmin() {
		return models.NewForbiddenError("You do not have access to this booking")
	}
	return nil
}

func (s *BookingService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]*models.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *BookingService) ListForSupplier(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Booking, error) {
	return s.bookingRepo.ListBySupplier(ctx, supplierID, limit, offset)
}

// Availability returns the blocked ranges of a listing for the next year,
// for the booking calendar.
func (s *BookingService) Availability(ctx context.Context, accommodationID uint) ([]*models.Booking, error) {
	if _, err := s.accRepo.GetByID(ctx, accommodationID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.bookingRepo.BookedRanges(ctx, accommodationID, now, now.AddDate(1, 0, 0))
}

// Confirm moves a pending booking to CONFIRMED. Only the listing's supplier
// may confirm.
func (s *BookingService) Confirm(ctx context.Context, bookingID, supplierID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Accommodation.SupplierID != supplierID {
		return nil, models.NewForbiddenError("Only the supplier can confirm a booking")
	}
	if !booking.Status.CanTransitionTo(models.BookingConfirmed) {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot confirm a %s booking", booking.Status))
	}

	now := time.Now().UTC()
	booking.Status = models.BookingConfirmed
	booking.ConfirmedAt = &now
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.TypeBookingConfirmed, fmt.Sprintf("booking:%d", booking.ID), booking)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, booking.UserID, models.NotifyBookingConfirmed,
			"Booking confirmed",
			fmt.Sprintf("Your booking for %q is confirmed", booking.Accommodation.Title),
			booking.ID)
	}
	return booking, nil
}

// Cancel cancels a booking. Travelers cancel their own stays before check-in;
// the supplier or an admin can cancel any stay of theirs.
func (s *BookingService) Cancel(ctx context.Context, in CancelBookingInput) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	isTraveler := booking.UserID == in.RequesterID
	isSupplier := booking.Accommodation.SupplierID == in.RequesterID
	if !isTraveler && !isSupplier {
		requester, err := s.userRepo.GetByID(ctx, in.RequesterID)
		if err != nil {
			return nil, err
		}
		if !requester.IsAdmin() {
			return nil, models.NewForbiddenError("You do not have access to this booking")
		}
	}

	if !booking.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot cancel a %s booking", booking.Status))
	}
	if isTraveler && !isSupplier && !time.Now().UTC().Before(booking.CheckIn) {
		return nil, models.NewConflictError("Bookings cannot be cancelled after check-in")
	}

	now := time.Now().UTC()
	booking.Status = models.BookingCancelled
	booking.CancellationReason = in.Reason
	booking.CancelledAt = &now
	booking.CancelledBy = &in.RequesterID
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.TypeBookingCancelled, fmt.Sprintf("booking:%d", booking.ID), booking)
	}
	if s.notifier != nil {
		notifyUserID := booking.UserID
		if isTraveler {
			notifyUserID = booking.Accommodation.SupplierID
		}
		s.notifier.Notify(ctx, notifyUserID, models.NotifyBookingCancelled,
			"Booking cancelled",
			fmt.Sprintf("Booking for %q was cancelled", booking.Accommodation.Title),
			booking.ID)
	}
	return booking, nil
}

// MarkCompleted closes out a confirmed stay ahead of the periodic sweeper.
// Only the listing's supplier or an admin may do this.
func (s *BookingService) MarkCompleted(ctx context.Context, bookingID, requesterID uint) (*models.Booking, error) {
	return s.supplierTransition(ctx, bookingID, requesterID, models.BookingCompleted)
}

// MarkNoShow records that the guest never arrived. The dates are freed.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID, requesterID uint) (*models.Booking, error) {
	return s.supplierTransition(ctx, bookingID, requesterID, models.BookingNoShow)
}

func (s *BookingService) supplierTransition(ctx context.Context, bookingID, requesterID uint, next models.BookingStatus) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Accommodation.SupplierID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !requester.IsAdmin() {
			return nil, models.NewForbiddenError("You do not have access to this booking")
		}
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot mark a %s booking %s", booking.Status, next))
	}
	if time.Now().UTC().Before(booking.CheckIn) {
		return nil, models.NewConflictError("Stay has not started yet")
	}

	booking.Status = next
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// CompleteElapsedStays is the periodic sweeper transition for finished stays.
func (s *BookingService) CompleteElapsedStays(ctx context.Context) (int64, error) {
	return s.bookingRepo.CompleteElapsed(ctx, time.Now().UTC())
}

// ActiveFeeConfig returns the fee schedule currently applied to new bookings.
func (s *BookingService) ActiveFeeConfig(ctx context.Context) (*models.BookingFeeConfig, error) {
	return s.feeRepo.GetActive(ctx)
}

func (s *BookingService) ListFeeConfigs(ctx context.Context, limit, offset int) ([]models.BookingFeeConfig, error) {
	return s.feeRepo.List(ctx, limit, offset)
}

// ActivateFeeConfig installs a new fee schedule and retires the previous one.
// Existing bookings keep the prices they were quoted.
func (s *BookingService) ActivateFeeConfig(ctx context.Context, cfg *models.BookingFeeConfig) error {
	if cfg.ServiceFeePercent < 0 || cfg.ServiceFeePercent > 50 {
		return models.NewValidationError("Service fee percent must be between 0 and 50")
	}
	if cfg.CleaningFeePercent < 0 || cfg.CleaningFeePercent > 50 {
		return models.NewValidationError("Cleaning fee percent must be between 0 and 50")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate > 50 {
		return models.NewValidationError("Tax rate must be between 0 and 50")
	}
	if cfg.ServiceFeeMinCents < 0 || cfg.ServiceFeeMaxCents < 0 {
		return models.NewValidationError("Fee bounds cannot be negative")
	}
	if cfg.ServiceFeeMaxCents > 0 && cfg.ServiceFeeMinCents > cfg.ServiceFeeMaxCents {
		return models.NewValidationError("Minimum service fee cannot exceed the maximum")
	}
	return s.feeRepo.Activate(ctx, cfg)
}

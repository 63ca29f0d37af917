package server

import (
	"time"

	"wayfare/internal/models"
	"wayfare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateBooking handles POST /api/bookings
func (s *Server) CreateBooking(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		AccommodationID uint   `json:"accommodation_id"`
		CheckIn         string `json:"check_in"`
		CheckOut        string `json:"check_out"`
		Adults          int    `json:"adults"`
		Children        int    `json:"children"`
		Infants         int    `json:"infants"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid check_in date (YYYY-MM-DD)"))
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid check_out date (YYYY-MM-DD)"))
	}

	booking, err := s.bookingSvc.Create(c.Context(), service.CreateBookingInput{
		UserID:          userID,
		AccommodationID: req.AccommodationID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          req.Adults,
		Children:        req.Children,
		Infants:         req.Infants,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(booking)
}

// GetBooking handles GET /api/bookings/:id
// Access is limited to the traveler, the listing's supplier, and admins.
func (s *Server) GetBooking(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	booking, err := s.bookingSvc.Get(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(booking)
}

// GetMyBookings handles GET /api/bookings/me
func (s *Server) GetMyBookings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	bookings, err := s.bookingSvc.ListMine(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(bookings)
}

// GetSupplierBookings handles GET /api/bookings/supplier
// Lists bookings across all of the caller's listings.
func (s *Server) GetSupplierBookings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	bookings, err := s.bookingSvc.ListForSupplier(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(bookings)
}

// ConfirmBooking handles POST /api/bookings/:id/confirm
func (s *Server) ConfirmBooking(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	booking, err := s.bookingSvc.Confirm(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(booking)
}

// CancelBooking handles POST /api/bookings/:id/cancel
func (s *Server) CancelBooking(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// A missing body is fine; cancellation reason is optional.
	_ = c.BodyParser(&req)

	booking, err := s.bookingSvc.Cancel(c.Context(), service.CancelBookingInput{
		BookingID:   id,
		RequesterID: userID,
		Reason:      req.Reason,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(booking)
}

// CompleteBooking handles POST /api/bookings/:id/complete
func (s *Server) CompleteBooking(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	booking, err := s.bookingSvc.MarkCompleted(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(booking)
}

// MarkBookingNoShow handles POST /api/bookings/:id/no-show
func (s *Server) MarkBookingNoShow(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	booking, err := s.bookingSvc.MarkNoShow(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(booking)
}

// GetActiveFeeConfig handles GET /api/admin/fees/active
func (s *Server) GetActiveFeeConfig(c *fiber.Ctx) error {
	cfg, err := s.bookingSvc.ActiveFeeConfig(c.Context())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(cfg)
}

// ListFeeConfigs handles GET /api/admin/fees
func (s *Server) ListFeeConfigs(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	configs, err := s.bookingSvc.ListFeeConfigs(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(configs)
}

// ActivateFeeConfig handles POST /api/admin/fees
// Creates a new fee schedule and makes it the active one.
func (s *Server) ActivateFeeConfig(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(uint)

	var req struct {
		ServiceFeePercent  float64 `json:"service_fee_percent"`
		ServiceFeeMinCents int64   `json:"service_fee_min_cents"`
		ServiceFeeMaxCents int64   `json:"service_fee_max_cents"`
		CleaningFeePercent float64 `json:"cleaning_fee_percent"`
		TaxRate            float64 `json:"tax_rate"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	cfg := &models.BookingFeeConfig{
		ServiceFeePercent:  req.ServiceFeePercent,
		ServiceFeeMinCents: req.ServiceFeeMinCents,
		ServiceFeeMaxCents: req.ServiceFeeMaxCents,
		CleaningFeePercent: req.CleaningFeePercent,
		TaxRate:            req.TaxRate,
		Active:             true,
	}
	if err := s.bookingSvc.ActivateFeeConfig(c.Context(), cfg); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.modSvc.Audit(c.UserContext(), actorID, "fee_config.activate", "fee_config", cfg.ID, "", c.IP())

	return c.Status(fiber.StatusCreated).JSON(cfg)
}

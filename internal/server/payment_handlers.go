package server

import (
	"wayfare/internal/models"
	"wayfare/internal/payment"
	"wayfare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// webhookSignatureHeader carries the hex HMAC-SHA256 of the raw body.
const webhookSignatureHeader = "X-Webhook-Signature"

// Checkout handles POST /api/bookings/:id/checkout
// Creates (or refreshes) a payment intent for the booking.
func (s *Server) Checkout(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.paymentSvc.Checkout(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(result)
}

// GetPayment handles GET /api/payments/:id
func (s *Server) GetPayment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	pmt, err := s.paymentSvc.Get(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(pmt)
}

// PaymentWebhook handles POST /api/payments/webhook
// The gateway authenticates with an HMAC signature over the raw body, not a
// JWT, so this endpoint stays outside AuthRequired.
func (s *Server) PaymentWebhook(c *fiber.Ctx) error {
	signature := c.Get(webhookSignatureHeader)
	if signature == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Missing webhook signature"))
	}

	event, ok := payment.ParseWebhook(s.config.PaymentWebhookSecret, c.Body(), signature)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid webhook signature"))
	}

	if err := s.paymentSvc.HandleWebhook(c.Context(), event); err != nil {
		// Unknown intents return 200 so the gateway stops retrying; real
		// failures surface as 500 and get retried.
		if status := mapServiceError(err); status != fiber.StatusNotFound {
			return models.RespondWithError(c, status, err)
		}
		return c.JSON(fiber.Map{"received": true, "matched": false})
	}

	return c.JSON(fiber.Map{"received": true})
}

// RefundPayment handles POST /api/admin/payments/:id/refund
func (s *Server) RefundPayment(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		AmountCents int64  `json:"amount_cents"`
		Reason      string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	pmt, err := s.paymentSvc.Refund(c.Context(), service.RefundInput{
		PaymentID:   id,
		RequesterID: actorID,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.modSvc.Audit(c.UserContext(), actorID, "payment.refund", "payment", id, req.Reason, c.IP())

	return c.JSON(pmt)
}

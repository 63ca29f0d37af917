package server

import (
	"strings"

	"wayfare/internal/models"
	"wayfare/internal/repository"
	"wayfare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitReport handles POST /api/reports
// Any authenticated user can flag content for moderator review.
func (s *Server) SubmitReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		TargetType string `json:"target_type"`
		TargetID   uint   `json:"target_id"`
		Reason     string `json:"reason"`
		Details    string `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.modSvc.SubmitReport(c.Context(), service.SubmitReportInput{
		ReporterID: userID,
		TargetType: models.ReportTarget(strings.ToLower(req.TargetType)),
		TargetID:   req.TargetID,
		Reason:     models.ReportReason(strings.ToUpper(req.Reason)),
		Details:    req.Details,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetApprovalQueue handles GET /api/admin/queue/:type
// Lists content awaiting review. Defaults to PENDING; pass ?status=FLAGGED
// for the escalation queue.
func (s *Server) GetApprovalQueue(c *fiber.Ctx) error {
	targetType := models.ReportTarget(strings.ToLower(c.Params("type")))
	page := parsePagination(c, 20)

	status := models.ApprovalPending
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = models.ApprovalStatus(strings.ToUpper(raw))
	}

	queue, err := s.modSvc.PendingQueue(c.Context(), targetType, status, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(queue)
}

// ApproveContent handles POST /api/admin/content/:type/:id/approve
func (s *Server) ApproveContent(c *fiber.Ctx) error {
	return s.reviewContent(c, true)
}

// RejectContent handles POST /api/admin/content/:type/:id/reject
func (s *Server) RejectContent(c *fiber.Ctx) error {
	return s.reviewContent(c, false)
}

func (s *Server) reviewContent(c *fiber.Ctx, approve bool) error {
	actorID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Note string `json:"note"`
	}
	// Note is optional on approval. Rejections require one, which the
	// service enforces.
	_ = c.BodyParser(&req)

	err = s.modSvc.ReviewContent(c.Context(), service.ReviewContentInput{
		ReviewerID: actorID,
		TargetType: models.ReportTarget(strings.ToLower(c.Params("type"))),
		TargetID:   id,
		Approve:    approve,
		Note:       req.Note,
		IP:         c.IP(),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	decision := "rejected"
	if approve {
		decision = "approved"
	}
	return c.JSON(fiber.Map{
		"message": "Content " + decision,
	})
}

// GetReports handles GET /api/admin/reports
func (s *Server) GetReports(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	status := models.ReportOpen
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = models.ReportStatus(strings.ToUpper(raw))
	}

	reports, err := s.modSvc.ListReports(c.Context(), status, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(reports)
}

// GetReport handles GET /api/admin/reports/:id
func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.modSvc.GetReport(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(report)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
// Pass {"dismiss": true} to close the report without action.
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Dismiss    bool   `json:"dismiss"`
		Resolution string `json:"resolution"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err = s.modSvc.ResolveReport(c.Context(), service.ResolveReportInput{
		ReviewerID: actorID,
		ReportID:   id,
		Dismiss:    req.Dismiss,
		Resolution: req.Resolution,
		IP:         c.IP(),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Report resolved",
	})
}

// GetPlatformStats handles GET /api/admin/stats
func (s *Server) GetPlatformStats(c *fiber.Ctx) error {
	stats, err := s.analyticsSvc.PlatformStats(c.Context())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(stats)
}

// GetRevenueSeries handles GET /api/admin/stats/revenue
// Defaults to the last 30 days when no range is given.
func (s *Server) GetRevenueSeries(c *fiber.Ctx) error {
	to := parseDateQuery(c, "to")
	if to.IsZero() {
		to = nowUTC()
	}
	from := parseDateQuery(c, "from")
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("from must be before to"))
	}

	series, err := s.analyticsSvc.RevenueSeries(c.Context(), from, to)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(series)
}

// GetUserGrowth handles GET /api/admin/stats/user-growth
func (s *Server) GetUserGrowth(c *fiber.Ctx) error {
	series, err := s.analyticsSvc.UserGrowth(c.Context(),
		parseDateQuery(c, "from"), parseDateQuery(c, "to"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(series)
}

// GetOccupancy handles GET /api/admin/stats/occupancy
func (s *Server) GetOccupancy(c *fiber.Ctx) error {
	rows, err := s.analyticsSvc.Occupancy(c.Context(),
		parseDateQuery(c, "from"), parseDateQuery(c, "to"), c.QueryInt("limit", 20))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(rows)
}

// GetReelEngagement handles GET /api/admin/stats/reels
func (s *Server) GetReelEngagement(c *fiber.Ctx) error {
	stats, err := s.analyticsSvc.ReelEngagement(c.Context())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(stats)
}

// TopAccommodations handles GET /api/accommodations/top
func (s *Server) TopAccommodations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	accs, err := s.analyticsSvc.TopAccommodations(c.Context(), limit)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(accs)
}

// ListCurrencies handles GET /api/currencies
func (s *Server) ListCurrencies(c *fiber.Ctx) error {
	currencies, err := s.analyticsSvc.ListCurrencies(c.Context())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(currencies)
}

// ConvertCurrency handles GET /api/currencies/convert?amount=..&from=..&to=..
func (s *Server) ConvertCurrency(c *fiber.Ctx) error {
	amount := int64(c.QueryInt("amount", 0))
	from := strings.ToUpper(strings.TrimSpace(c.Query("from")))
	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	if from == "" || to == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("from and to currency codes are required"))
	}

	converted, err := s.analyticsSvc.ConvertAmount(c.Context(), amount, from, to)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"amount_cents":    amount,
		"from":            from,
		"to":              to,
		"converted_cents": converted,
	})
}

// UpsertCurrency handles PUT /api/admin/currencies/:code
func (s *Server) UpsertCurrency(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(uint)
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))

	var req struct {
		Name      string  `json:"name"`
		Symbol    string  `json:"symbol"`
		RateToEUR float64 `json:"rate_to_eur"`
		Enabled   *bool   `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	currency := &models.Currency{
		Code:      code,
		Name:      req.Name,
		Symbol:    req.Symbol,
		RateToEUR: req.RateToEUR,
		Enabled:   enabled,
	}
	if err := s.analyticsSvc.UpsertCurrency(c.Context(), currency); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.modSvc.Audit(c.UserContext(), actorID, "currency.upsert", "currency", 0, code, c.IP())

	return c.JSON(currency)
}

// GetAuditLog handles GET /api/admin/audit
// Optional filters: actor_id, action, target_type.
func (s *Server) GetAuditLog(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	filter := repository.AuditFilter{
		ActorID:    uint(c.QueryInt("actor_id", 0)),
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
	}

	entries, err := s.modSvc.ListAuditLog(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(entries)
}

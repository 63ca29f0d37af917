package service

import (
	"context"
	"fmt"
	"strings"

	"wayfare/internal/cache"
	"wayfare/internal/events"
	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/observability"
	"wayfare/internal/repository"
)

// flagThreshold is how many open reports auto-flag a piece of content.
const flagThreshold = 3

const maxReportDetailsLen = 2000

// Audit action names.
const (
	ActionApproveContent = "content.approve"
	ActionRejectContent  = "content.reject"
	ActionResolveReport  = "report.resolve"
	ActionSuspendUser    = "user.suspend"
	ActionChangeRole     = "user.change_role"
	ActionActivateFees   = "fees.activate"
	ActionIssueRefund    = "payment.refund"
)

type ModerationService struct {
	reportRepo repository.ReportRepository
	auditRepo  repository.AuditRepository
	accRepo    repository.AccommodationRepository
	reviewRepo repository.ReviewRepository
	eventRepo  repository.EventRepository
	reelRepo   repository.ReelRepository
	userRepo   repository.UserRepository
	notifier   Notify
	publisher  events.Publisher
}

type SubmitReportInput struct {
	ReporterID uint
	TargetType models.ReportTarget
	TargetID   uint
	Reason     models.ReportReason
	Details    string
}

type ReviewContentInput struct {
	ReviewerID uint
	TargetType models.ReportTarget
	TargetID   uint
	Approve    bool
	Note       string
	IP         string
}

type ResolveReportInput struct {
	ReviewerID uint
	ReportID   uint
	Dismiss    bool
	Resolution string
	IP         string
}

func NewModerationService(
	reportRepo repository.ReportRepository,
	auditRepo repository.AuditRepository,
	accRepo repository.AccommodationRepository,
	reviewRepo repository.ReviewRepository,
	eventRepo repository.EventRepository,
	reelRepo repository.ReelRepository,
	userRepo repository.UserRepository,
	notifier Notify,
	publisher events.Publisher,
) *ModerationService {
	return &ModerationService{
		reportRepo: reportRepo,
		auditRepo:  auditRepo,
		accRepo:    accRepo,
		reviewRepo: reviewRepo,
		eventRepo:  eventRepo,
		reelRepo:   reelRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		publisher:  publisher,
	}
}

// SubmitReport files a trust and safety report. Crossing the open-report
// threshold flags the target for priority review.
func (s *ModerationService) SubmitReport(ctx context.Context, in SubmitReportInput) (*models.ModerationReport, error) {
	if !in.Reason.Valid() {
		return nil, models.NewValidationError("Invalid report reason")
	}
	if len(in.Details) > maxReportDetailsLen {
		return nil, models.NewValidationError(fmt.Sprintf("Details must be at most %d characters", maxReportDetailsLen))
	}
	status, err := s.targetStatus(ctx, in.TargetType, in.TargetID)
	if err != nil {
		return nil, err
	}

	report := &models.ModerationReport{
		ReporterID: in.ReporterID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Reason:     in.Reason,
		Details:    strings.TrimSpace(in.Details),
		Status:     models.ReportOpen,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	observability.ReportsSubmitted.WithLabelValues(string(in.TargetType)).Inc()

	open, err := s.reportRepo.CountOpenForTarget(ctx, in.TargetType, in.TargetID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to count open reports", "error", err)
		return report, nil
	}
	if open >= flagThreshold && status != nil && status.CanTransitionTo(models.ApprovalFlagged) {
		if err := s.setTargetStatus(ctx, in.TargetType, in.TargetID, models.ApprovalFlagged, 0); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to flag reported content",
				"target_type", in.TargetType, "target_id", in.TargetID, "error", err)
		}
	}
	return report, nil
}

// targetStatus resolves the approval status of reportable content. User
// targets have no approval status and return nil.
func (s *ModerationService) targetStatus(ctx context.Context, targetType models.ReportTarget, targetID uint) (*models.ApprovalStatus, error) {
	switch targetType {
	case models.TargetAccommodation:
		acc, err := s.accRepo.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		return &acc.Status, nil
	case models.TargetReview:
		review, err := s.reviewRepo.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		return &review.Status, nil
	case models.TargetEvent:
		event, err := s.eventRepo.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		return &event.Status, nil
	case models.TargetReel:
		reel, err := s.reelRepo.GetByID(ctx, targetID, 0)
		if err != nil {
			return nil, err
		}
		return &reel.Status, nil
	case models.TargetUser:
		if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, models.NewValidationError("Invalid report target")
	}
}

func (s *ModerationService) setTargetStatus(ctx context.Context, targetType models.ReportTarget, targetID uint, status models.ApprovalStatus, reviewerID uint) error {
	switch targetType {
	case models.TargetAccommodation:
		return s.accRepo.UpdateStatus(ctx, targetID, status, reviewerID)
	case models.TargetReview:
		return s.reviewRepo.UpdateStatus(ctx, targetID, status)
	case models.TargetEvent:
		return s.eventRepo.UpdateStatus(ctx, targetID, status, reviewerID)
	case models.TargetReel:
		return s.reelRepo.UpdateStatus(ctx, targetID, status, reviewerID)
	default:
		return models.NewValidationError("Invalid report target")
	}
}

// PendingQueue lists the moderation queue for one content type, oldest
// first. Pass status PENDING or FLAGGED.
func (s *ModerationService) PendingQueue(ctx context.Context, targetType models.ReportTarget, status models.ApprovalStatus, limit, offset int) (interface{}, error) {
	if status != models.ApprovalPending && status != models.ApprovalFlagged {
		return nil, models.NewValidationError("Queue status must be PENDING or FLAGGED")
	}
	switch targetType {
	case models.TargetAccommodation:
		return s.accRepo.ListByStatus(ctx, status, limit, offset)
	case models.TargetReview:
		return s.reviewRepo.ListByStatus(ctx, status, limit, offset)
	case models.TargetEvent:
		return s.eventRepo.ListByStatus(ctx, status, limit, offset)
	case models.TargetReel:
		return s.reelRepo.ListByStatus(ctx, status, limit, offset)
	default:
		return nil, models.NewValidationError("Invalid queue target")
	}
}

// ReviewContent approves or rejects a queued item, audits the decision, and
// notifies the owner.
func (s *ModerationService) ReviewContent(ctx context.Context, in ReviewContentInput) error {
	status, err := s.targetStatus(ctx, in.TargetType, in.TargetID)
	if err != nil {
		return err
	}
	if status == nil {
		return models.NewValidationError("User accounts are managed through suspension, not content review")
	}

	in.Note = strings.TrimSpace(in.Note)

	next := models.ApprovalRejected
	action := ActionRejectContent
	if in.Approve {
		next = models.ApprovalApproved
		action = ActionApproveContent
	} else if in.Note == "" {
		return models.NewValidationError("A rejection must include a reason")
	}
	if !status.CanTransitionTo(next) {
		return models.NewConflictError(fmt.Sprintf("Cannot move %s content to %s", *status, next))
	}

	if err := s.setTargetStatus(ctx, in.TargetType, in.TargetID, next, in.ReviewerID); err != nil {
		return err
	}
	observability.ApprovalDecisions.WithLabelValues(string(in.TargetType), string(next)).Inc()
	s.invalidateTarget(ctx, in.TargetType, in.TargetID)

	s.audit(ctx, in.ReviewerID, action, string(in.TargetType), in.TargetID, in.Note, in.IP)
	s.notifyOwner(ctx, in.TargetType, in.TargetID, in.Approve, in.Note)
	s.publishDecision(ctx, in.TargetType, in.TargetID, in.Approve)
	return nil
}

func (s *ModerationService) publishDecision(ctx context.Context, targetType models.ReportTarget, targetID uint, approved bool) {
	if s.publisher == nil || targetType != models.TargetAccommodation {
		return
	}
	eventType := events.TypeAccommodationRejected
	if approved {
		eventType = events.TypeAccommodationApproved
	}
	_ = s.publisher.Publish(ctx, eventType, fmt.Sprintf("accommodation:%d", targetID), map[string]uint{"id": targetID})
}

func (s *ModerationService) notifyOwner(ctx context.Context, targetType models.ReportTarget, targetID uint, approved bool, note string) {
	if s.notifier == nil {
		return
	}
	var ownerID uint
	var kind models.NotificationType
	var title string

	switch targetType {
	case models.TargetAccommodation:
		acc, err := s.accRepo.GetByID(ctx, targetID)
		if err != nil {
			return
		}
		ownerID = acc.SupplierID
		if approved {
			kind, title = models.NotifyAccommodationApproved, fmt.Sprintf("Listing %q approved", acc.Title)
		} else {
			kind, title = models.NotifyAccommodationRejected, fmt.Sprintf("Listing %q rejected", acc.Title)
		}
	case models.TargetReel:
		reel, err := s.reelRepo.GetByID(ctx, targetID, 0)
		if err != nil || !approved {
			return
		}
		ownerID, kind, title = reel.CreatorID, models.NotifyReelApproved, "Your reel is live"
	default:
		return
	}
	s.notifier.Notify(ctx, ownerID, kind, title, note, targetID)
}

// ListReports lists reports in a queue state, oldest first.
func (s *ModerationService) ListReports(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.ModerationReport, error) {
	return s.reportRepo.ListByStatus(ctx, status, limit, offset)
}

func (s *ModerationService) GetReport(ctx context.Context, reportID uint) (*models.ModerationReport, error) {
	return s.reportRepo.GetByID(ctx, reportID)
}

// ResolveReport closes an open report as resolved or dismissed.
func (s *ModerationService) ResolveReport(ctx context.Context, in ResolveReportInput) error {
	status := models.ReportResolved
	if in.Dismiss {
		status = models.ReportDismissed
	}
	if err := s.reportRepo.Resolve(ctx, in.ReportID, status, in.ReviewerID, in.Resolution); err != nil {
		return err
	}
	s.audit(ctx, in.ReviewerID, ActionResolveReport, "report", in.ReportID, in.Resolution, in.IP)
	return nil
}

// Audit writes a back-office audit entry. Exposed so handlers can audit
// actions that live in other services.
func (s *ModerationService) Audit(ctx context.Context, actorID uint, action, targetType string, targetID uint, detail, ip string) {
	s.audit(ctx, actorID, action, targetType, targetID, detail, ip)
}

func (s *ModerationService) audit(ctx context.Context, actorID uint, action, targetType string, targetID uint, detail, ip string) {
	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		IP:         ip,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to write audit log",
			"action", action, "actor_id", actorID, "error", err)
	}
}

func (s *ModerationService) ListAuditLog(ctx context.Context, filter repository.AuditFilter, limit, offset int) ([]*models.AuditLog, error) {
	return s.auditRepo.List(ctx, filter, limit, offset)
}

// invalidateTarget clears cached copies after a moderation decision.
func (s *ModerationService) invalidateTarget(ctx context.Context, targetType models.ReportTarget, targetID uint) {
	if targetType == models.TargetAccommodation {
		cache.InvalidateAccommodation(ctx, targetID)
	}
}

package service

import (
	"context"
	"testing"

	"wayfare/internal/models"
	"wayfare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportRepoStub is a stub for repository.ReportRepository.
type reportRepoStub struct {
	createFn             func(context.Context, *models.ModerationReport) error
	getByIDFn            func(context.Context, uint) (*models.ModerationReport, error)
	listByStatusFn       func(context.Context, models.ReportStatus, int, int) ([]*models.ModerationReport, error)
	countOpenForTargetFn func(context.Context, models.ReportTarget, uint) (int64, error)
	resolveFn            func(context.Context, uint, models.ReportStatus, uint, string) error
}

func (s *reportRepoStub) Create(ctx context.Context, report *models.ModerationReport) error {
	return s.createFn(ctx, report)
}
func (s *reportRepoStub) GetByID(ctx context.Context, id uint) (*models.ModerationReport, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reportRepoStub) ListByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.ModerationReport, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *reportRepoStub) CountOpenForTarget(ctx context.Context, targetType models.ReportTarget, targetID uint) (int64, error) {
	return s.countOpenForTargetFn(ctx, targetType, targetID)
}
func (s *reportRepoStub) Resolve(ctx context.Context, id uint, status models.ReportStatus, resolverID uint, resolution string) error {
	return s.resolveFn(ctx, id, status, resolverID, resolution)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createFn: func(_ context.Context, r *models.ModerationReport) error {
			r.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.ModerationReport, error) {
			return &models.ModerationReport{ID: id, Status: models.ReportOpen}, nil
		},
		listByStatusFn: func(_ context.Context, _ models.ReportStatus, _, _ int) ([]*models.ModerationReport, error) {
			return nil, nil
		},
		countOpenForTargetFn: func(_ context.Context, _ models.ReportTarget, _ uint) (int64, error) { return 1, nil },
		resolveFn:            func(_ context.Context, _ uint, _ models.ReportStatus, _ uint, _ string) error { return nil },
	}
}

// auditRepoStub is a stub for repository.AuditRepository.
type auditRepoStub struct {
	createFn func(context.Context, *models.AuditLog) error
	listFn   func(context.Context, repository.AuditFilter, int, int) ([]*models.AuditLog, error)
}

func (s *auditRepoStub) Create(ctx context.Context, entry *models.AuditLog) error {
	return s.createFn(ctx, entry)
}
func (s *auditRepoStub) List(ctx context.Context, filter repository.AuditFilter, limit, offset int) ([]*models.AuditLog, error) {
	return s.listFn(ctx, filter, limit, offset)
}

func noopAuditRepo() *auditRepoStub {
	return &auditRepoStub{
		createFn: func(_ context.Context, _ *models.AuditLog) error { return nil },
		listFn: func(_ context.Context, _ repository.AuditFilter, _, _ int) ([]*models.AuditLog, error) {
			return nil, nil
		},
	}
}

func moderationSvcWith(reportRepo *reportRepoStub, auditRepo *auditRepoStub, accRepo *accRepoStub, notifier Notify) *ModerationService {
	return NewModerationService(
		reportRepo,
		auditRepo,
		accRepo,
		noopReviewRepo(),
		noopEventRepo(),
		noopReelRepo(),
		noopUserRepo(),
		notifier,
		nil,
	)
}

func TestModerationService_SubmitReport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("invalid reason", func(t *testing.T) {
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), noopAccRepo(), nil)
		_, err := svc.SubmitReport(ctx, SubmitReportInput{
			ReporterID: 1, TargetType: models.TargetReel, TargetID: 3, Reason: "BORING",
		})
		assertValidationError(t, err)
	})

	t.Run("stores open report", func(t *testing.T) {
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), noopAccRepo(), nil)
		report, err := svc.SubmitReport(ctx, SubmitReportInput{
			ReporterID: 1, TargetType: models.TargetAccommodation, TargetID: 3,
			Reason: models.ReasonMisleading, Details: "Photos do not match the place",
		})
		require.NoError(t, err)
		assert.Equal(t, models.ReportOpen, report.Status)
	})

	t.Run("threshold flags target", func(t *testing.T) {
		reportRepo := noopReportRepo()
		reportRepo.countOpenForTargetFn = func(_ context.Context, _ models.ReportTarget, _ uint) (int64, error) {
			return 3, nil
		}
		accRepo := noopAccRepo()
		var flagged models.ApprovalStatus
		accRepo.updateStatusFn = func(_ context.Context, _ uint, status models.ApprovalStatus, _ uint) error {
			flagged = status
			return nil
		}
		svc := moderationSvcWith(reportRepo, noopAuditRepo(), accRepo, nil)

		_, err := svc.SubmitReport(ctx, SubmitReportInput{
			ReporterID: 1, TargetType: models.TargetAccommodation, TargetID: 3, Reason: models.ReasonSpam,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalFlagged, flagged)
	})

	t.Run("below threshold leaves status alone", func(t *testing.T) {
		accRepo := noopAccRepo()
		touched := false
		accRepo.updateStatusFn = func(_ context.Context, _ uint, _ models.ApprovalStatus, _ uint) error {
			touched = true
			return nil
		}
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), accRepo, nil)

		_, err := svc.SubmitReport(ctx, SubmitReportInput{
			ReporterID: 1, TargetType: models.TargetAccommodation, TargetID: 3, Reason: models.ReasonSpam,
		})
		require.NoError(t, err)
		assert.False(t, touched)
	})
}

func TestModerationService_ReviewContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pendingListing := func(accRepo *accRepoStub) {
		accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
			return &models.Accommodation{ID: id, SupplierID: 7, Title: "Harbor loft", Status: models.ApprovalPending}, nil
		}
	}

	t.Run("approve audits and notifies owner", func(t *testing.T) {
		accRepo := noopAccRepo()
		pendingListing(accRepo)
		var decided models.ApprovalStatus
		accRepo.updateStatusFn = func(_ context.Context, _ uint, status models.ApprovalStatus, reviewerID uint) error {
			decided = status
			assert.Equal(t, uint(2), reviewerID)
			return nil
		}
		var audited *models.AuditLog
		auditRepo := noopAuditRepo()
		auditRepo.createFn = func(_ context.Context, entry *models.AuditLog) error {
			audited = entry
			return nil
		}
		recorder := &notifyRecorder{}
		svc := moderationSvcWith(noopReportRepo(), auditRepo, accRepo, recorder)

		err := svc.ReviewContent(ctx, ReviewContentInput{
			ReviewerID: 2, TargetType: models.TargetAccommodation, TargetID: 3, Approve: true,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, decided)
		require.NotNil(t, audited)
		assert.Equal(t, ActionApproveContent, audited.Action)
		assert.Equal(t, []models.NotificationType{models.NotifyAccommodationApproved}, recorder.sent)
	})

	t.Run("approved content cannot be re-reviewed", func(t *testing.T) {
		accRepo := noopAccRepo()
		accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
			return &models.Accommodation{ID: id, Status: models.ApprovalApproved}, nil
		}
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), accRepo, nil)

		err := svc.ReviewContent(ctx, ReviewContentInput{
			ReviewerID: 2, TargetType: models.TargetAccommodation, TargetID: 3, Approve: true,
		})
		assertConflictError(t, err)
	})

	t.Run("flagged content can be resolved", func(t *testing.T) {
		accRepo := noopAccRepo()
		accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
			return &models.Accommodation{ID: id, SupplierID: 7, Status: models.ApprovalFlagged}, nil
		}
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), accRepo, nil)

		err := svc.ReviewContent(ctx, ReviewContentInput{
			ReviewerID: 2, TargetType: models.TargetAccommodation, TargetID: 3, Approve: false,
			Note: "Stock photos, no real listing",
		})
		assert.NoError(t, err)
	})

	t.Run("rejection without a reason refused", func(t *testing.T) {
		accRepo := noopAccRepo()
		pendingListing(accRepo)
		var decided bool
		accRepo.updateStatusFn = func(context.Context, uint, models.ApprovalStatus, uint) error {
			decided = true
			return nil
		}
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), accRepo, nil)

		for _, note := range []string{"", "   \t"} {
			err := svc.ReviewContent(ctx, ReviewContentInput{
				ReviewerID: 2, TargetType: models.TargetAccommodation, TargetID: 3, Approve: false,
				Note: note,
			})
			assertValidationError(t, err)
		}
		assert.False(t, decided)
	})

	t.Run("rejection reason is trimmed into the audit entry", func(t *testing.T) {
		accRepo := noopAccRepo()
		pendingListing(accRepo)
		var audited *models.AuditLog
		auditRepo := noopAuditRepo()
		auditRepo.createFn = func(_ context.Context, entry *models.AuditLog) error {
			audited = entry
			return nil
		}
		svc := moderationSvcWith(noopReportRepo(), auditRepo, accRepo, nil)

		err := svc.ReviewContent(ctx, ReviewContentInput{
			ReviewerID: 2, TargetType: models.TargetAccommodation, TargetID: 3, Approve: false,
			Note: "  Misleading photos  ",
		})
		require.NoError(t, err)
		require.NotNil(t, audited)
		assert.Equal(t, ActionRejectContent, audited.Action)
		assert.Equal(t, "Misleading photos", audited.Detail)
	})

	t.Run("user target rejected", func(t *testing.T) {
		svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), noopAccRepo(), nil)
		err := svc.ReviewContent(ctx, ReviewContentInput{
			ReviewerID: 2, TargetType: models.TargetUser, TargetID: 3, Approve: false,
		})
		assertValidationError(t, err)
	})
}

func TestModerationService_ResolveReport_Audits(t *testing.T) {
	t.Parallel()

	var audited *models.AuditLog
	auditRepo := noopAuditRepo()
	auditRepo.createFn = func(_ context.Context, entry *models.AuditLog) error {
		audited = entry
		return nil
	}
	svc := moderationSvcWith(noopReportRepo(), auditRepo, noopAccRepo(), nil)

	err := svc.ResolveReport(context.Background(), ResolveReportInput{
		ReviewerID: 2, ReportID: 5, Resolution: "Listing rejected",
	})
	require.NoError(t, err)
	require.NotNil(t, audited)
	assert.Equal(t, ActionResolveReport, audited.Action)
	assert.Equal(t, uint(2), audited.ActorID)
}

func TestModerationService_PendingQueue_StatusGuard(t *testing.T) {
	t.Parallel()

	svc := moderationSvcWith(noopReportRepo(), noopAuditRepo(), noopAccRepo(), nil)

	_, err := svc.PendingQueue(context.Background(), models.TargetAccommodation, models.ApprovalApproved, 20, 0)
	assertValidationError(t, err)

	_, err = svc.PendingQueue(context.Background(), models.TargetAccommodation, models.ApprovalPending, 20, 0)
	assert.NoError(t, err)
}

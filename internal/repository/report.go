package repository

import (
	"context"
	"errors"
	"time"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.ModerationReport) error
	GetByID(ctx context.Context, id uint) (*models.ModerationReport, error)
	ListByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.ModerationReport, error)
	CountOpenForTarget(ctx context.Context, targetType models.ReportTarget, targetID uint) (int64, error)
	Resolve(ctx context.Context, id uint, status models.ReportStatus, resolverID uint, resolution string) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.ModerationReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.ModerationReport, error) {
	var report models.ModerationReport
	if err := readDB(r.db).WithContext(ctx).Preload("Reporter").First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) ListByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.ModerationReport, error) {
	var reports []*models.ModerationReport
	if err := readDB(r.db).WithContext(ctx).
		Preload("Reporter").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) CountOpenForTarget(ctx context.Context, targetType models.ReportTarget, targetID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.ModerationReport{}).
		Where("target_type = ? AND target_id = ? AND status = ?", targetType, targetID, models.ReportOpen).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *reportRepository) Resolve(ctx context.Context, id uint, status models.ReportStatus, resolverID uint, resolution string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.ModerationReport{}).
		Where("id = ? AND status = ?", id, models.ReportOpen).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": resolverID,
			"resolved_at": &now,
			"resolution":  resolution,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Report is not open")
	}
	return nil
}

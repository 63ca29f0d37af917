package repository

import (
	"context"
	"errors"
	"time"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// ReelRepository defines persistence operations for reels.
type ReelRepository interface {
	Create(ctx context.Context, reel *models.Reel) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Reel, error)
	Feed(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Reel, error)
	ListByCreator(ctx context.Context, creatorID uint, limit, offset int, currentUserID uint) ([]*models.Reel, error)
	ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Reel, error)
	Update(ctx context.Context, reel *models.Reel) error
	UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error
	Delete(ctx context.Context, id uint) error
	Engage(ctx context.Context, reelID, userID uint, kind models.EngagementType) error
	Disengage(ctx context.Context, reelID, userID uint, kind models.EngagementType) error
	IncrementViews(ctx context.Context, reelID uint) error
	IncrementShares(ctx context.Context, reelID uint) error
	CreateComment(ctx context.Context, comment *models.ReelComment) error
	GetComment(ctx context.Context, reelID, commentID uint) (*models.ReelComment, error)
	ListComments(ctx context.Context, reelID uint, limit, offset int) ([]*models.ReelComment, error)
	DeleteComment(ctx context.Context, reelID, commentID uint) error
}

type reelRepository struct {
	db *gorm.DB
}

// NewReelRepository returns a new ReelRepository implementation.
func NewReelRepository(db *gorm.DB) ReelRepository {
	return &reelRepository{db: db}
}

// applyReelDetails adds subqueries to fetch engagement counts and liked
// status in a single query.
func (r *reelRepository) applyReelDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "reels.*, " +
		"(SELECT COUNT(*) FROM reel_engagements WHERE reel_engagements.reel_id = reels.id AND reel_engagements.type = 'LIKE') as like_count, " +
		"(SELECT COUNT(*) FROM reel_comments WHERE reel_comments.reel_id = reels.id AND reel_comments.deleted_at IS NULL) as comment_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM reel_engagements WHERE reel_engagements.reel_id = reels.id AND reel_engagements.user_id = ? AND reel_engagements.type = 'LIKE') as liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func (r *reelRepository) Create(ctx context.Context, reel *models.Reel) error {
	if err := r.db.WithContext(ctx).Create(reel).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reelRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Reel, error) {
	var reel models.Reel
	err := r.applyReelDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Preload("Creator").
		First(&reel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Reel", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &reel, nil
}

// Feed returns approved public reels, newest first.
func (r *reelRepository) Feed(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Reel, error) {
	var reels []*models.Reel
	err := r.applyReelDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Preload("Creator").
		Where("reels.status = ? AND reels.visibility = ?", models.ApprovalApproved, models.VisibilityPublic).
		Order("reels.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reels).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reels, nil
}

func (r *reelRepository) ListByCreator(ctx context.Context, creatorID uint, limit, offset int, currentUserID uint) ([]*models.Reel, error) {
	var reels []*models.Reel
	err := r.applyReelDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Where("reels.creator_id = ?", creatorID).
		Order("reels.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reels).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reels, nil
}

func (r *reelRepository) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Reel, error) {
	var reels []*models.Reel
	err := readDB(r.db).WithContext(ctx).
		Preload("Creator").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&reels).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reels, nil
}

func (r *reelRepository) Update(ctx context.Context, reel *models.Reel) error {
	if err := r.db.WithContext(ctx).Save(reel).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reelRepository) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error {
	updates := map[string]interface{}{"status": status}
	if status == models.ApprovalApproved {
		now := time.Now().UTC()
		updates["approved_at"] = &now
		updates["approved_by"] = reviewerID
	}
	res := r.db.WithContext(ctx).Model(&models.Reel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reel", id)
	}
	return nil
}

func (r *reelRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Reel{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reelRepository) Engage(ctx context.Context, reelID, userID uint, kind models.EngagementType) error {
	// INSERT ... ON CONFLICT DO NOTHING keeps repeated engagement idempotent
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO reel_engagements (reel_id, user_id, type, created_at)
		 VALUES (?, ?, ?, NOW())
		 ON CONFLICT (reel_id, user_id, type) DO NOTHING`,
		reelID, userID, kind,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reelRepository) Disengage(ctx context.Context, reelID, userID uint, kind models.EngagementType) error {
	err := r.db.WithContext(ctx).
		Where("reel_id = ? AND user_id = ? AND type = ?", reelID, userID, kind).
		Delete(&models.ReelEngagement{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reelRepository) IncrementViews(ctx context.Context, reelID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Reel{}).
		Where("id = ?", reelID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *reelRepository) IncrementShares(ctx context.Context, reelID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Reel{}).
		Where("id = ?", reelID).
		UpdateColumn("share_count", gorm.Expr("share_count + 1")).Error
}

func (r *reelRepository) CreateComment(ctx context.Context, comment *models.ReelComment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reelRepository) GetComment(ctx context.Context, reelID, commentID uint) (*models.ReelComment, error) {
	var comment models.ReelComment
	err := readDB(r.db).WithContext(ctx).
		Where("id = ? AND reel_id = ?", commentID, reelID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *reelRepository) ListComments(ctx context.Context, reelID uint, limit, offset int) ([]*models.ReelComment, error) {
	var comments []*models.ReelComment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("reel_id = ?", reelID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *reelRepository) DeleteComment(ctx context.Context, reelID, commentID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND reel_id = ?", commentID, reelID).
		Delete(&models.ReelComment{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

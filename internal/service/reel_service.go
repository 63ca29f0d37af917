package service

import (
	"context"
	"fmt"
	"strings"

	"wayfare/internal/events"
	"wayfare/internal/models"
	"wayfare/internal/repository"
	"wayfare/internal/validation"
)

const maxReelCommentLen = 1000

type ReelService struct {
	reelRepo  repository.ReelRepository
	userRepo  repository.UserRepository
	notifier  Notify
	publisher events.Publisher
}

type CreateReelInput struct {
	CreatorID    uint
	VideoURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Duration     int
	LocationName string
	Promotional  bool
	Visibility   models.VisibilityScope
}

func NewReelService(reelRepo repository.ReelRepository, userRepo repository.UserRepository, notifier Notify, publisher events.Publisher) *ReelService {
	return &ReelService{reelRepo: reelRepo, userRepo: userRepo, notifier: notifier, publisher: publisher}
}

// Create submits a reel for moderation. Promotional reels are reserved for
// suppliers and admins.
func (s *ReelService) Create(ctx context.Context, in CreateReelInput) (*models.Reel, error) {
	if strings.TrimSpace(in.VideoURL) == "" {
		return nil, models.NewValidationError("Video URL is required")
	}
	if err := validation.ValidateReelDuration(in.Duration); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityPrivate {
		return nil, models.NewValidationError("Invalid visibility")
	}

	if in.Promotional {
		creator, err := s.userRepo.GetByID(ctx, in.CreatorID)
		if err != nil {
			return nil, err
		}
		if !creator.CanSupply() {
			return nil, models.NewForbiddenError("Only suppliers can post promotional reels")
		}
	}

	reel := &models.Reel{
		CreatorID:    in.CreatorID,
		VideoURL:     in.VideoURL,
		ThumbnailURL: in.ThumbnailURL,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Duration:     in.Duration,
		LocationName: in.LocationName,
		Promotional:  in.Promotional,
		Visibility:   visibility,
		Status:       models.ApprovalPending,
	}
	if err := s.reelRepo.Create(ctx, reel); err != nil {
		return nil, err
	}
	return reel, nil
}

// Get returns a reel. Unapproved or private reels are visible only to the
// creator and admins. A public view counts toward ViewCount.
func (s *ReelService) Get(ctx context.Context, reelID, viewerID uint) (*models.Reel, error) {
	reel, err := s.reelRepo.GetByID(ctx, reelID, viewerID)
	if err != nil {
		return nil, err
	}
	if reel.Status == models.ApprovalApproved && reel.Visibility == models.VisibilityPublic {
		if err := s.reelRepo.IncrementViews(ctx, reelID); err == nil {
			reel.ViewCount++
		}
		return reel, nil
	}
	if viewerID == reel.CreatorID {
		return reel, nil
	}
	if viewerID != 0 {
		viewer, err := s.userRepo.GetByID(ctx, viewerID)
		if err == nil && viewer.IsAdmin() {
			return reel, nil
		}
	}
	return nil, models.NewNotFoundError("Reel", reelID)
}

func (s *ReelService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Reel, error) {
	return s.reelRepo.Feed(ctx, limit, offset, viewerID)
}

func (s *ReelService) ListByCreator(ctx context.Context, creatorID, viewerID uint, limit, offset int) ([]*models.Reel, error) {
	return s.reelRepo.ListByCreator(ctx, creatorID, limit, offset, viewerID)
}

func (s *ReelService) Delete(ctx context.Context, reelID, requesterID uint) error {
	reel, err := s.reelRepo.GetByID(ctx, reelID, 0)
	if err != nil {
		return err
	}
	if reel.CreatorID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsAdmin() {
			return models.NewForbiddenError("You can only delete your own reels")
		}
	}
	return s.reelRepo.Delete(ctx, reelID)
}

// Like records a like. Liking twice is a no-op.
func (s *ReelService) Like(ctx context.Context, reelID, userID uint) error {
	reel, err := s.visibleReel(ctx, reelID, userID)
	if err != nil {
		return err
	}
	if err := s.reelRepo.Engage(ctx, reelID, userID, models.EngagementLike); err != nil {
		return err
	}
	if s.notifier != nil && reel.CreatorID != userID {
		s.notifier.Notify(ctx, reel.CreatorID, models.NotifyReelLiked,
			"Your reel got a like",
			fmt.Sprintf("Someone liked your reel %q", reel.Title),
			reel.ID)
	}
	return nil
}

func (s *ReelService) Unlike(ctx context.Context, reelID, userID uint) error {
	return s.reelRepo.Disengage(ctx, reelID, userID, models.EngagementLike)
}

func (s *ReelService) Bookmark(ctx context.Context, reelID, userID uint) error {
	if _, err := s.visibleReel(ctx, reelID, userID); err != nil {
		return err
	}
	return s.reelRepo.Engage(ctx, reelID, userID, models.EngagementBookmark)
}

func (s *ReelService) Unbookmark(ctx context.Context, reelID, userID uint) error {
	return s.reelRepo.Disengage(ctx, reelID, userID, models.EngagementBookmark)
}

// Share records a share. The share counter counts every share, the
// engagement row only the first.
func (s *ReelService) Share(ctx context.Context, reelID, userID uint) error {
	if _, err := s.visibleReel(ctx, reelID, userID); err != nil {
		return err
	}
	if err := s.reelRepo.Engage(ctx, reelID, userID, models.EngagementShare); err != nil {
		return err
	}
	return s.reelRepo.IncrementShares(ctx, reelID)
}

func (s *ReelService) Comment(ctx context.Context, reelID, userID uint, content string) (*models.ReelComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if len(content) > maxReelCommentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Comment must be at most %d characters", maxReelCommentLen))
	}

	reel, err := s.visibleReel(ctx, reelID, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.ReelComment{ReelID: reelID, UserID: userID, Content: content}
	if err := s.reelRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	if s.notifier != nil && reel.CreatorID != userID {
		s.notifier.Notify(ctx, reel.CreatorID, models.NotifyNewComment,
			"New comment on your reel",
			fmt.Sprintf("Someone commented on your reel %q", reel.Title),
			reel.ID)
	}
	return comment, nil
}

func (s *ReelService) ListComments(ctx context.Context, reelID uint, limit, offset int) ([]*models.ReelComment, error) {
	return s.reelRepo.ListComments(ctx, reelID, limit, offset)
}

// DeleteComment removes a comment by its author, the reel's creator, or an
// admin.
func (s *ReelService) DeleteComment(ctx context.Context, reelID, commentID, requesterID uint) error {
	reel, err := s.reelRepo.GetByID(ctx, reelID, 0)
	if err != nil {
		return err
	}
	comment, err := s.reelRepo.GetComment(ctx, reelID, commentID)
	if err != nil {
		return err
	}
	if requesterID != comment.UserID && requesterID != reel.CreatorID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsAdmin() {
			return models.NewForbiddenError("You cannot delete this comment")
		}
	}
	return s.reelRepo.DeleteComment(ctx, reelID, commentID)
}

// visibleReel resolves a reel that the user is allowed to interact with.
func (s *ReelService) visibleReel(ctx context.Context, reelID, userID uint) (*models.Reel, error) {
	reel, err := s.reelRepo.GetByID(ctx, reelID, userID)
	if err != nil {
		return nil, err
	}
	if reel.Status != models.ApprovalApproved || reel.Visibility != models.VisibilityPublic {
		if reel.CreatorID != userID {
			return nil, models.NewNotFoundError("Reel", reelID)
		}
	}
	return reel, nil
}

package server

import (
	"context"
	"strings"

	"wayfare/internal/models"
	"wayfare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetReelFeed handles GET /api/reels
func (s *Server) GetReelFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	reels, err := s.reelSvc.Feed(c.Context(), viewerID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(reels)
}

// GetReel handles GET /api/reels/:id
func (s *Server) GetReel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID, _ := s.optionalUserID(c)

	reel, err := s.reelSvc.Get(c.Context(), id, viewerID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(reel)
}

// ListUserReels handles GET /api/users/:id/reels
func (s *Server) ListUserReels(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	creatorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	reels, err := s.reelSvc.ListByCreator(c.Context(), creatorID, viewerID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(reels)
}

// CreateReel handles POST /api/reels
func (s *Server) CreateReel(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		VideoURL     string `json:"video_url"`
		ThumbnailURL string `json:"thumbnail_url"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Duration     int    `json:"duration"`
		LocationName string `json:"location_name"`
		Promotional  bool   `json:"promotional"`
		Visibility   string `json:"visibility"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	visibility := models.VisibilityPublic
	if req.Visibility != "" {
		visibility = models.VisibilityScope(strings.ToUpper(req.Visibility))
	}

	reel, err := s.reelSvc.Create(c.Context(), service.CreateReelInput{
		CreatorID:    userID,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		LocationName: req.LocationName,
		Promotional:  req.Promotional,
		Visibility:   visibility,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(reel)
}

// DeleteReel handles DELETE /api/reels/:id
func (s *Server) DeleteReel(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reelSvc.Delete(c.Context(), id, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Reel deleted",
	})
}

// LikeReel handles POST /api/reels/:id/like
func (s *Server) LikeReel(c *fiber.Ctx) error {
	return s.reelEngagement(c, s.reelSvc.Like, "Liked")
}

// UnlikeReel handles DELETE /api/reels/:id/like
func (s *Server) UnlikeReel(c *fiber.Ctx) error {
	return s.reelEngagement(c, s.reelSvc.Unlike, "Like removed")
}

// BookmarkReel handles POST /api/reels/:id/bookmark
func (s *Server) BookmarkReel(c *fiber.Ctx) error {
	return s.reelEngagement(c, s.reelSvc.Bookmark, "Bookmarked")
}

// UnbookmarkReel handles DELETE /api/reels/:id/bookmark
func (s *Server) UnbookmarkReel(c *fiber.Ctx) error {
	return s.reelEngagement(c, s.reelSvc.Unbookmark, "Bookmark removed")
}

// ShareReel handles POST /api/reels/:id/share
func (s *Server) ShareReel(c *fiber.Ctx) error {
	return s.reelEngagement(c, s.reelSvc.Share, "Shared")
}

// reelEngagement factors the shared shape of like/bookmark/share toggles.
func (s *Server) reelEngagement(c *fiber.Ctx, op func(ctx context.Context, reelID, userID uint) error, message string) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := op(c.UserContext(), id, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": message,
	})
}

// ListReelComments handles GET /api/reels/:id/comments
func (s *Server) ListReelComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	comments, err := s.reelSvc.ListComments(c.Context(), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(comments)
}

// CommentOnReel handles POST /api/reels/:id/comments
func (s *Server) CommentOnReel(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.reelSvc.Comment(c.Context(), id, userID, req.Content)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteReelComment handles DELETE /api/reels/:id/comments/:commentId
func (s *Server) DeleteReelComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.reelSvc.DeleteComment(c.Context(), id, commentID, userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Comment deleted",
	})
}

package service

import (
	"bytes"
	"context"
	"strings"

	"wayfare/internal/media"
	"wayfare/internal/models"
	"wayfare/internal/repository"
	"wayfare/internal/storage"
	"wayfare/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	uploader storage.Uploader
}

type UpdateProfileInput struct {
	UserID    uint
	Username  string
	FirstName *string
	LastName  *string
	Bio       *string
	Country   *string
	Phone     *string
}

func NewUserService(userRepo repository.UserRepository, uploader storage.Uploader) *UserService {
	return &UserService{userRepo: userRepo, uploader: uploader}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int, role models.UserRole) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset, role)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxNameLen = 60

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewConflictError("Username is already taken")
		}
		user.Username = in.Username
	}
	if in.FirstName != nil {
		if len(*in.FirstName) > maxNameLen {
			return nil, models.NewValidationError("First name too long (max 60 characters)")
		}
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if len(*in.LastName) > maxNameLen {
			return nil, models.NewValidationError("Last name too long (max 60 characters)")
		}
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = *in.Bio
	}
	if in.Country != nil {
		user.Country = *in.Country
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar processes and stores a profile picture, then updates the user.
func (s *UserService) UploadAvatar(ctx context.Context, userID uint, content []byte, contentType string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	processed, err := media.Process(content, contentType, media.ThumbnailMaxSize)
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.Upload(ctx, media.ObjectKey("avatars", processed.Hash, "webp"), bytes.NewReader(processed.WebP), "image/webp")
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user.Avatar = url
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole changes a user's role. Super admin only; demoting the last super
// admin is rejected.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID uint, role models.UserRole) (*models.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators can change roles")
	}
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleSuperAdmin && role != models.RoleSuperAdmin {
		counts, err := s.userRepo.CountByRole(ctx)
		if err != nil {
			return nil, err
		}
		if counts[models.RoleSuperAdmin] <= 1 {
			return nil, models.NewConflictError("Cannot demote the last administrator")
		}
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetStatus suspends or reinstates an account. Admins cannot suspend
// themselves.
func (s *UserService) SetStatus(ctx context.Context, actorID, targetID uint, status models.UserStatus) (*models.User, error) {
	if actorID == targetID {
		return nil, models.NewValidationError("You cannot change your own account status")
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators can change account status")
	}
	if status != models.UserActive && status != models.UserSuspended {
		return nil, models.NewValidationError("Invalid account status")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

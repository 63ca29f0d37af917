package service

import (
	"context"
	"strings"
	"testing"

	"wayfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("bio too long", func(t *testing.T) {
		svc := NewUserService(noopUserRepo(), noopUploader())
		long := strings.Repeat("x", 501)
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Bio: &long})
		assertValidationError(t, err)
	})

	t.Run("invalid username", func(t *testing.T) {
		svc := NewUserService(noopUserRepo(), noopUploader())
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Username: "x"})
		assertValidationError(t, err)
	})

	t.Run("taken username", func(t *testing.T) {
		userRepo := noopUserRepo()
		userRepo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 99, Username: username}, nil
		}
		svc := NewUserService(userRepo, noopUploader())
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Username: "wanderer"})
		assertConflictError(t, err)
	})

	t.Run("updates fields", func(t *testing.T) {
		var saved *models.User
		userRepo := noopUserRepo()
		userRepo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(userRepo, noopUploader())

		first := " Maya "
		country := "Portugal"
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			UserID: 1, Username: "wanderer", FirstName: &first, Country: &country,
		})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "wanderer", saved.Username)
		assert.Equal(t, "Maya", saved.FirstName)
		assert.Equal(t, "Portugal", saved.Country)
	})
}

func TestUserService_SetRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("non-admin forbidden", func(t *testing.T) {
		svc := NewUserService(userRepoWithRole(models.RoleTraveler), noopUploader())
		_, err := svc.SetRole(ctx, 1, 2, models.RoleSupplier)
		assertForbiddenError(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc := NewUserService(userRepoWithRole(models.RoleSuperAdmin), noopUploader())
		_, err := svc.SetRole(ctx, 1, 2, "WIZARD")
		assertValidationError(t, err)
	})

	t.Run("last admin protected", func(t *testing.T) {
		userRepo := userRepoWithRole(models.RoleSuperAdmin)
		userRepo.countByRoleFn = func(_ context.Context) (map[models.UserRole]int64, error) {
			return map[models.UserRole]int64{models.RoleSuperAdmin: 1}, nil
		}
		svc := NewUserService(userRepo, noopUploader())
		_, err := svc.SetRole(ctx, 1, 2, models.RoleTraveler)
		assertConflictError(t, err)
	})

	t.Run("promotes traveler to supplier", func(t *testing.T) {
		userRepo := noopUserRepo()
		userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			if id == 1 {
				return &models.User{ID: id, Role: models.RoleSuperAdmin}, nil
			}
			return &models.User{ID: id, Role: models.RoleTraveler}, nil
		}
		svc := NewUserService(userRepo, noopUploader())

		user, err := svc.SetRole(ctx, 1, 2, models.RoleSupplier)
		require.NoError(t, err)
		assert.Equal(t, models.RoleSupplier, user.Role)
	})
}

func TestUserService_SetStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("self suspension rejected", func(t *testing.T) {
		svc := NewUserService(userRepoWithRole(models.RoleSuperAdmin), noopUploader())
		_, err := svc.SetStatus(ctx, 1, 1, models.UserSuspended)
		assertValidationError(t, err)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		svc := NewUserService(userRepoWithRole(models.RoleSupplier), noopUploader())
		_, err := svc.SetStatus(ctx, 1, 2, models.UserSuspended)
		assertForbiddenError(t, err)
	})

	t.Run("deleted is not a settable status", func(t *testing.T) {
		svc := NewUserService(userRepoWithRole(models.RoleSuperAdmin), noopUploader())
		_, err := svc.SetStatus(ctx, 1, 2, models.UserDeleted)
		assertValidationError(t, err)
	})

	t.Run("suspends account", func(t *testing.T) {
		svc := NewUserService(userRepoWithRole(models.RoleSuperAdmin), noopUploader())
		user, err := svc.SetStatus(ctx, 1, 2, models.UserSuspended)
		require.NoError(t, err)
		assert.Equal(t, models.UserSuspended, user.Status)
	})
}

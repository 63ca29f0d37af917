package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"wayfare/internal/models"
	"wayfare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accRepoStub is a stub for repository.AccommodationRepository.
type accRepoStub struct {
	createFn             func(context.Context, *models.Accommodation) error
	getByIDFn            func(context.Context, uint) (*models.Accommodation, error)
	listFn               func(context.Context, repository.AccommodationFilter, int, int) ([]*models.Accommodation, error)
	listBySupplierFn     func(context.Context, uint, int, int) ([]*models.Accommodation, error)
	listByStatusFn       func(context.Context, models.ApprovalStatus, int, int) ([]*models.Accommodation, error)
	updateFn             func(context.Context, *models.Accommodation) error
	updateStatusFn       func(context.Context, uint, models.ApprovalStatus, uint) error
	deleteFn             func(context.Context, uint) error
	incrementViewCountFn func(context.Context, uint) error
	addImageFn           func(context.Context, *models.AccommodationImage) error
	deleteImageFn        func(context.Context, uint, uint) error
	replaceAmenitiesFn   func(context.Context, uint, []string) error
}

func (s *accRepoStub) Create(ctx context.Context, acc *models.Accommodation) error {
	return s.createFn(ctx, acc)
}
func (s *accRepoStub) GetByID(ctx context.Context, id uint) (*models.Accommodation, error) {
	return s.getByIDFn(ctx, id)
}
func (s *accRepoStub) List(ctx context.Context, filter repository.AccommodationFilter, limit, offset int) ([]*models.Accommodation, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *accRepoStub) ListBySupplier(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Accommodation, error) {
	return s.listBySupplierFn(ctx, supplierID, limit, offset)
}
func (s *accRepoStub) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Accommodation, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *accRepoStub) Update(ctx context.Context, acc *models.Accommodation) error {
	return s.updateFn(ctx, acc)
}
func (s *accRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error {
	return s.updateStatusFn(ctx, id, status, reviewerID)
}
func (s *accRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *accRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementViewCountFn(ctx, id)
}
func (s *accRepoStub) AddImage(ctx context.Context, img *models.AccommodationImage) error {
	return s.addImageFn(ctx, img)
}
func (s *accRepoStub) DeleteImage(ctx context.Context, accommodationID, imageID uint) error {
	return s.deleteImageFn(ctx, accommodationID, imageID)
}
func (s *accRepoStub) ReplaceAmenities(ctx context.Context, accommodationID uint, names []string) error {
	return s.replaceAmenitiesFn(ctx, accommodationID, names)
}

func noopAccRepo() *accRepoStub {
	return &accRepoStub{
		createFn: func(_ context.Context, _ *models.Accommodation) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Accommodation, error) {
			return &models.Accommodation{ID: id, Status: models.ApprovalApproved}, nil
		},
		listFn: func(_ context.Context, _ repository.AccommodationFilter, _, _ int) ([]*models.Accommodation, error) {
			return nil, nil
		},
		listBySupplierFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Accommodation, error) { return nil, nil },
		listByStatusFn: func(_ context.Context, _ models.ApprovalStatus, _, _ int) ([]*models.Accommodation, error) {
			return nil, nil
		},
		updateFn:             func(_ context.Context, _ *models.Accommodation) error { return nil },
		updateStatusFn:       func(_ context.Context, _ uint, _ models.ApprovalStatus, _ uint) error { return nil },
		deleteFn:             func(_ context.Context, _ uint) error { return nil },
		incrementViewCountFn: func(_ context.Context, _ uint) error { return nil },
		addImageFn:           func(_ context.Context, _ *models.AccommodationImage) error { return nil },
		deleteImageFn:        func(_ context.Context, _, _ uint) error { return nil },
		replaceAmenitiesFn:   func(_ context.Context, _ uint, _ []string) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, int, int, models.UserRole) ([]models.User, error)
	countByRoleFn   func(context.Context) (map[models.UserRole]int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int, role models.UserRole) ([]models.User, error) {
	return s.listFn(ctx, limit, offset, role)
}
func (s *userRepoStub) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	return s.countByRoleFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleTraveler, Status: models.UserActive}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		listFn:          func(_ context.Context, _, _ int, _ models.UserRole) ([]models.User, error) { return nil, nil },
		countByRoleFn:   func(_ context.Context) (map[models.UserRole]int64, error) { return nil, nil },
	}
}

// userRepoWithRole returns a stub whose GetByID yields the given role.
func userRepoWithRole(role models.UserRole) *userRepoStub {
	stub := noopUserRepo()
	stub.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Role: role, Status: models.UserActive}, nil
	}
	return stub
}

// uploaderStub is a stub for storage.Uploader.
type uploaderStub struct {
	uploadFn func(context.Context, string, io.Reader, string) (string, error)
}

func (s *uploaderStub) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	return s.uploadFn(ctx, key, r, contentType)
}

func noopUploader() *uploaderStub {
	return &uploaderStub{
		uploadFn: func(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
			return "https://cdn.test/" + key, nil
		},
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

// assertConflictError asserts that err is an AppError with code CONFLICT.
func assertConflictError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func validCreateListingInput() CreateAccommodationInput {
	return CreateAccommodationInput{
		SupplierID:     1,
		Type:           models.TypeApartment,
		Title:          "Canal view apartment",
		Description:    "Two rooms near the center",
		Country:        "Netherlands",
		City:           "Amsterdam",
		BasePriceCents: 12500,
		MaxGuests:      4,
		MinimumNights:  2,
	}
}

func TestAccommodationService_Create_Validation(t *testing.T) {
	t.Parallel()

	svc := NewAccommodationService(noopAccRepo(), userRepoWithRole(models.RoleSupplier), noopUploader())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateAccommodationInput)
	}{
		{name: "empty title", mutate: func(in *CreateAccommodationInput) { in.Title = "  " }},
		{name: "title too long", mutate: func(in *CreateAccommodationInput) { in.Title = strings.Repeat("x", 201) }},
		{name: "invalid type", mutate: func(in *CreateAccommodationInput) { in.Type = "TREEHOUSE" }},
		{name: "zero price", mutate: func(in *CreateAccommodationInput) { in.BasePriceCents = 0 }},
		{name: "negative price", mutate: func(in *CreateAccommodationInput) { in.BasePriceCents = -100 }},
		{name: "zero guests", mutate: func(in *CreateAccommodationInput) { in.MaxGuests = 0 }},
		{name: "max nights below min", mutate: func(in *CreateAccommodationInput) {
			in.MinimumNights = 7
			in.MaximumNights = 3
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateListingInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assertValidationError(t, err)
		})
	}
}

func TestAccommodationService_Create_RequiresSupplierRole(t *testing.T) {
	t.Parallel()

	svc := NewAccommodationService(noopAccRepo(), userRepoWithRole(models.RoleTraveler), noopUploader())

	_, err := svc.Create(context.Background(), validCreateListingInput())
	assertForbiddenError(t, err)
}

func TestAccommodationService_Create_StartsPending(t *testing.T) {
	t.Parallel()

	var created *models.Accommodation
	accRepo := noopAccRepo()
	accRepo.createFn = func(_ context.Context, acc *models.Accommodation) error {
		acc.ID = 42
		created = acc
		return nil
	}
	accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
		require.NotNil(t, created)
		return created, nil
	}

	svc := NewAccommodationService(accRepo, userRepoWithRole(models.RoleSupplier), noopUploader())

	in := validCreateListingInput()
	in.MinimumNights = 0
	acc, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, acc.Status)
	assert.Equal(t, 1, acc.MinimumNights, "minimum nights should default to 1")
	assert.Equal(t, "EUR", acc.Currency)
}

func nowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}

func TestAccommodationService_Get_HidesUnapprovedFromPublic(t *testing.T) {
	t.Parallel()

	accRepo := noopAccRepo()
	accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
		return &models.Accommodation{ID: id, SupplierID: 7, Status: models.ApprovalPending}, nil
	}
	svc := NewAccommodationService(accRepo, noopUserRepo(), noopUploader())
	ctx := context.Background()

	_, err := svc.Get(ctx, 5, 0)
	assertNotFoundError(t, err)

	_, err = svc.Get(ctx, 5, 99)
	assertNotFoundError(t, err)

	// The owner still sees it.
	acc, err := svc.Get(ctx, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, acc.Status)
}

func TestAccommodationService_Get_CountsPublicViews(t *testing.T) {
	t.Parallel()

	views := 0
	accRepo := noopAccRepo()
	accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
		return &models.Accommodation{ID: id, SupplierID: 7, Status: models.ApprovalApproved}, nil
	}
	accRepo.incrementViewCountFn = func(_ context.Context, _ uint) error {
		views++
		return nil
	}
	svc := NewAccommodationService(accRepo, noopUserRepo(), noopUploader())

	_, err := svc.Get(context.Background(), 5, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, views)
}

func TestAccommodationService_Update_OwnershipRequired(t *testing.T) {
	t.Parallel()

	accRepo := noopAccRepo()
	accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
		return &models.Accommodation{ID: id, SupplierID: 7, Status: models.ApprovalApproved}, nil
	}
	svc := NewAccommodationService(accRepo, noopUserRepo(), noopUploader())

	_, err := svc.Update(context.Background(), UpdateAccommodationInput{
		AccommodationID: 5,
		SupplierID:      99,
		Title:           "New title",
	})
	assertForbiddenError(t, err)
}

func TestAccommodationService_Update_ContentEditResetsApproval(t *testing.T) {
	t.Parallel()

	approvedAt := nowPtr()
	accRepo := noopAccRepo()
	accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
		return &models.Accommodation{
			ID:         id,
			SupplierID: 7,
			Status:     models.ApprovalApproved,
			ApprovedAt: approvedAt,
			Title:      "Old title",
		}, nil
	}
	var saved *models.Accommodation
	accRepo.updateFn = func(_ context.Context, acc *models.Accommodation) error {
		saved = acc
		return nil
	}
	svc := NewAccommodationService(accRepo, noopUserRepo(), noopUploader())

	_, err := svc.Update(context.Background(), UpdateAccommodationInput{
		AccommodationID: 5,
		SupplierID:      7,
		Title:           "Fresh title",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.ApprovalPending, saved.Status)
	assert.Nil(t, saved.ApprovedAt)
}

func TestAccommodationService_Delete_AdminOverride(t *testing.T) {
	t.Parallel()

	accRepo := noopAccRepo()
	accRepo.getByIDFn = func(_ context.Context, id uint) (*models.Accommodation, error) {
		return &models.Accommodation{ID: id, SupplierID: 7}, nil
	}

	svc := NewAccommodationService(accRepo, userRepoWithRole(models.RoleTraveler), noopUploader())
	assertForbiddenError(t, svc.Delete(context.Background(), 5, 99))

	svc = NewAccommodationService(accRepo, userRepoWithRole(models.RoleSuperAdmin), noopUploader())
	require.NoError(t, svc.Delete(context.Background(), 5, 99))
}

// Package service implements the business logic between handlers and
// repositories.
package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"wayfare/internal/media"
	"wayfare/internal/models"
	"wayfare/internal/repository"
	"wayfare/internal/storage"
)

type AccommodationService struct {
	accRepo  repository.AccommodationRepository
	userRepo repository.UserRepository
	uploader storage.Uploader
}

type CreateAccommodationInput struct {
	SupplierID     uint
	Type           models.AccommodationType
	Title          string
	Description    string
	Country        string
	City           string
	Address        string
	Latitude       float64
	Longitude      float64
	BasePriceCents int64
	Currency       string
	MaxGuests      int
	Bedrooms       int
	Beds           int
	MinimumNights  int
	MaximumNights  int
	InstantBook    bool
	Amenities      []string
}

type UpdateAccommodationInput struct {
	AccommodationID uint
	SupplierID      uint
	Title           string
	Description     string
	Address         string
	BasePriceCents  int64
	MaxGuests       int
	MinimumNights   int
	MaximumNights   int
	InstantBook     *bool
	Amenities       []string
}

type UploadAccommodationPhotoInput struct {
	AccommodationID uint
	SupplierID      uint
	Filename        string
	ContentType     string
	Content         []byte
	Caption         string
	Position        int
}

func NewAccommodationService(
	accRepo repository.AccommodationRepository,
	userRepo repository.UserRepository,
	uploader storage.Uploader,
) *AccommodationService {
	return &AccommodationService{
		accRepo:  accRepo,
		userRepo: userRepo,
		uploader: uploader,
	}
}

const maxListingTitleLen = 200

func (s *AccommodationService) Create(ctx context.Context, in CreateAccommodationInput) (*models.Accommodation, error) {
	user, err := s.userRepo.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if !user.CanSupply() {
		return nil, models.NewForbiddenError("Only suppliers can create listings")
	}

	if !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid accommodation type")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxListingTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if in.BasePriceCents <= 0 {
		return nil, models.NewValidationError("Base price must be positive")
	}
	if in.MaxGuests < 1 {
		return nil, models.NewValidationError("Max guests must be at least 1")
	}
	if in.MinimumNights < 1 {
		in.MinimumNights = 1
	}
	if in.MaximumNights != 0 && in.MaximumNights < in.MinimumNights {
		return nil, models.NewValidationError("Maximum nights cannot be below minimum nights")
	}
	if in.Currency == "" {
		in.Currency = "EUR"
	}

	acc := &models.Accommodation{
		SupplierID:     in.SupplierID,
		Type:           in.Type,
		Title:          in.Title,
		Description:    in.Description,
		Country:        in.Country,
		City:           in.City,
		Address:        in.Address,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		BasePriceCents: in.BasePriceCents,
		Currency:       in.Currency,
		MaxGuests:      in.MaxGuests,
		Bedrooms:       in.Bedrooms,
		Beds:           in.Beds,
		MinimumNights:  in.MinimumNights,
		MaximumNights:  in.MaximumNights,
		InstantBook:    in.InstantBook,
		Status:         models.ApprovalPending,
	}
	if err := s.accRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	if len(in.Amenities) > 0 {
		if err := s.accRepo.ReplaceAmenities(ctx, acc.ID, in.Amenities); err != nil {
			return nil, err
		}
	}

	return s.accRepo.GetByID(ctx, acc.ID)
}

// Get returns a listing. Unapproved listings are visible only to their owner
// and to admins.
func (s *AccommodationService) Get(ctx context.Context, id uint, viewerID uint) (*models.Accommodation, error) {
	acc, err := s.accRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if acc.Status != models.ApprovalApproved {
		if viewerID == 0 {
			return nil, models.NewNotFoundError("Accommodation", id)
		}
		if viewerID != acc.SupplierID {
			viewer, err := s.userRepo.GetByID(ctx, viewerID)
			if err != nil {
				return nil, err
			}
			if !viewer.IsAdmin() {
				return nil, models.NewNotFoundError("Accommodation", id)
			}
		}
	} else {
		// View counting only on the public path.
		_ = s.accRepo.IncrementViewCount(ctx, id)
	}

	return acc, nil
}

func (s *AccommodationService) List(ctx context.Context, filter repository.AccommodationFilter, limit, offset int) ([]*models.Accommodation, error) {
	if !filter.CheckIn.IsZero() || !filter.CheckOut.IsZero() {
		if filter.CheckIn.IsZero() || filter.CheckOut.IsZero() {
			return nil, models.NewValidationError("Both check_in and check_out are required for availability filtering")
		}
		if !filter.CheckIn.Before(filter.CheckOut) {
			return nil, models.NewValidationError("check_out must be after check_in")
		}
	}
	return s.accRepo.List(ctx, filter, limit, offset)
}

func (s *AccommodationService) ListMine(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Accommodation, error) {
	return s.accRepo.ListBySupplier(ctx, supplierID, limit, offset)
}

func (s *AccommodationService) Update(ctx context.Context, in UpdateAccommodationInput) (*models.Accommodation, error) {
	acc, err := s.accRepo.GetByID(ctx, in.AccommodationID)
	if err != nil {
		return nil, err
	}
	if acc.SupplierID != in.SupplierID {
		return nil, models.NewForbiddenError("You can only update your own listings")
	}

	if in.Title != "" {
		if len(in.Title) > maxListingTitleLen {
			return nil, models.NewValidationError("Title too long (max 200 characters)")
		}
		acc.Title = in.Title
	}
	if in.Description != "" {
		acc.Description = in.Description
	}
	if in.Address != "" {
		acc.Address = in.Address
	}
	if in.BasePriceCents > 0 {
		acc.BasePriceCents = in.BasePriceCents
	}
	if in.MaxGuests > 0 {
		acc.MaxGuests = in.MaxGuests
	}
	if in.MinimumNights > 0 {
		acc.MinimumNights = in.MinimumNights
	}
	if in.MaximumNights > 0 {
		acc.MaximumNights = in.MaximumNights
	}
	if in.InstantBook != nil {
		acc.InstantBook = *in.InstantBook
	}

	// Content edits on an approved listing go back through review.
	if acc.Status == models.ApprovalApproved && (in.Title != "" || in.Description != "") {
		acc.Status = models.ApprovalPending
		acc.ApprovedAt = nil
		acc.ApprovedBy = nil
	}

	if err := s.accRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	if in.Amenities != nil {
		if err := s.accRepo.ReplaceAmenities(ctx, acc.ID, in.Amenities); err != nil {
			return nil, err
		}
	}

	return s.accRepo.GetByID(ctx, acc.ID)
}

func (s *AccommodationService) Delete(ctx context.Context, accommodationID, requesterID uint) error {
	acc, err := s.accRepo.GetByID(ctx, accommodationID)
	if err != nil {
		return err
	}
	if acc.SupplierID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsAdmin() {
			return models.NewForbiddenError("You can only delete your own listings")
		}
	}
	return s.accRepo.Delete(ctx, accommodationID)
}

func (s *AccommodationService) UploadPhoto(ctx context.Context, in UploadAccommodationPhotoInput) (*models.AccommodationImage, error) {
	acc, err := s.accRepo.GetByID(ctx, in.AccommodationID)
	if err != nil {
		return nil, err
	}
	if acc.SupplierID != in.SupplierID {
		return nil, models.NewForbiddenError("You can only upload photos to your own listings")
	}

	processed, err := media.Process(in.Content, in.ContentType, media.PhotoMaxSize)
	if err != nil {
		return nil, err
	}

	key := media.ObjectKey(fmt.Sprintf("accommodations/%d", acc.ID), processed.Hash, "jpg")
	url, err := s.uploader.Upload(ctx, key, bytes.NewReader(processed.JPEG), "image/jpeg")
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	img := &models.AccommodationImage{
		AccommodationID: acc.ID,
		URL:             url,
		Caption:         in.Caption,
		Position:        in.Position,
	}
	if err := s.accRepo.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *AccommodationService) DeletePhoto(ctx context.Context, accommodationID, imageID, supplierID uint) error {
	acc, err := s.accRepo.GetByID(ctx, accommodationID)
	if err != nil {
		return err
	}
	if acc.SupplierID != supplierID {
		return models.NewForbiddenError("You can only manage photos on your own listings")
	}
	return s.accRepo.DeleteImage(ctx, accommodationID, imageID)
}

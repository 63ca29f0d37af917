package repository

import (
	"context"
	"errors"
	"time"

	"wayfare/internal/cache"
	"wayfare/internal/models"

	"gorm.io/gorm"
)

// AccommodationFilter narrows the public listing query. Zero values are
// ignored.
type AccommodationFilter struct {
	Country   string
	City      string
	Type      models.AccommodationType
	MinPrice  int64
	MaxPrice  int64
	Guests    int
	CheckIn   time.Time
	CheckOut  time.Time
	Sort      string
	Search    string
}

// AccommodationRepository defines persistence operations for listings.
type AccommodationRepository interface {
	Create(ctx context.Context, acc *models.Accommodation) error
	GetByID(ctx context.Context, id uint) (*models.Accommodation, error)
	List(ctx context.Context, filter AccommodationFilter, limit, offset int) ([]*models.Accommodation, error)
	ListBySupplier(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Accommodation, error)
	ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Accommodation, error)
	Update(ctx context.Context, acc *models.Accommodation) error
	UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
	AddImage(ctx context.Context, img *models.AccommodationImage) error
	DeleteImage(ctx context.Context, accommodationID, imageID uint) error
	ReplaceAmenities(ctx context.Context, accommodationID uint, names []string) error
}

type accommodationRepository struct {
	db *gorm.DB
}

// NewAccommodationRepository returns a new AccommodationRepository implementation.
func NewAccommodationRepository(db *gorm.DB) AccommodationRepository {
	return &accommodationRepository{db: db}
}

// applyListingDetails adds subqueries for ratings and booking volume in a
// single query.
func (r *accommodationRepository) applyListingDetails(db *gorm.DB) *gorm.DB {
	return db.Select("accommodations.*, " +
		"COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.accommodation_id = accommodations.id AND reviews.status = 'APPROVED' AND reviews.deleted_at IS NULL), 0) as average_rating, " +
		"(SELECT COUNT(*) FROM reviews WHERE reviews.accommodation_id = accommodations.id AND reviews.status = 'APPROVED' AND reviews.deleted_at IS NULL) as review_count, " +
		"(SELECT COUNT(*) FROM bookings WHERE bookings.accommodation_id = accommodations.id AND bookings.deleted_at IS NULL) as booking_count")
}

func (r *accommodationRepository) Create(ctx context.Context, acc *models.Accommodation) error {
	if err := r.db.WithContext(ctx).Create(acc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *accommodationRepository) GetByID(ctx context.Context, id uint) (*models.Accommodation, error) {
	var acc models.Accommodation
	fetch := func() error {
		err := r.applyListingDetails(readDB(r.db).WithContext(ctx)).
			Preload("Supplier").
			Preload("Images", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Amenities").
			First(&acc, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Accommodation", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	if err := cache.Aside(ctx, cache.AccommodationKey(id), &acc, cache.AccommodationTTL, fetch); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accommodationRepository) List(ctx context.Context, filter AccommodationFilter, limit, offset int) ([]*models.Accommodation, error) {
	var accs []*models.Accommodation

	q := r.applyListingDetails(readDB(r.db).WithContext(ctx)).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("accommodations.status = ?", models.ApprovalApproved)

	if filter.Country != "" {
		q = q.Where("accommodations.country = ?", filter.Country)
	}
	if filter.City != "" {
		q = q.Where("accommodations.city ILIKE ?", filter.City)
	}
	if filter.Type != "" {
		q = q.Where("accommodations.type = ?", filter.Type)
	}
	if filter.MinPrice > 0 {
		q = q.Where("accommodations.base_price_cents >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		q = q.Where("accommodations.base_price_cents <= ?", filter.MaxPrice)
	}
	if filter.Guests > 0 {
		q = q.Where("accommodations.max_guests >= ?", filter.Guests)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("accommodations.title ILIKE ? OR accommodations.description ILIKE ?", like, like)
	}

	// Exclude listings with a blocking booking over the requested dates.
	if !filter.CheckIn.IsZero() && !filter.CheckOut.IsZero() {
		q = q.Where(
			"NOT EXISTS (SELECT 1 FROM bookings WHERE bookings.accommodation_id = accommodations.id"+
				" AND bookings.deleted_at IS NULL"+
				" AND bookings.status NOT IN ('CANCELLED', 'NO_SHOW')"+
				" AND bookings.check_in < ? AND ? < bookings.check_out)",
			filter.CheckOut, filter.CheckIn,
		)
	}

	switch filter.Sort {
	case "price_asc":
		q = q.Order("accommodations.base_price_cents ASC")
	case "price_desc":
		q = q.Order("accommodations.base_price_cents DESC")
	case "rating":
		q = q.Order("average_rating DESC, review_count DESC")
	case "popular":
		q = q.Order("booking_count DESC, accommodations.view_count DESC")
	default:
		q = q.Order("accommodations.created_at DESC")
	}

	if err := q.Limit(limit).Offset(offset).Find(&accs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accs, nil
}

func (r *accommodationRepository) ListBySupplier(ctx context.Context, supplierID uint, limit, offset int) ([]*models.Accommodation, error) {
	var accs []*models.Accommodation
	err := r.applyListingDetails(readDB(r.db).WithContext(ctx)).
		Preload("Images").
		Where("accommodations.supplier_id = ?", supplierID).
		Order("accommodations.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&accs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accs, nil
}

func (r *accommodationRepository) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Accommodation, error) {
	var accs []*models.Accommodation
	err := readDB(r.db).WithContext(ctx).
		Preload("Supplier").
		Preload("Images").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&accs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accs, nil
}

func (r *accommodationRepository) Update(ctx context.Context, acc *models.Accommodation) error {
	if err := r.db.WithContext(ctx).Save(acc).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAccommodation(ctx, acc.ID)
	return nil
}

func (r *accommodationRepository) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error {
	updates := map[string]interface{}{"status": status}
	if status == models.ApprovalApproved {
		now := time.Now().UTC()
		updates["approved_at"] = &now
		updates["approved_by"] = reviewerID
	}
	res := r.db.WithContext(ctx).Model(&models.Accommodation{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Accommodation", id)
	}
	cache.InvalidateAccommodation(ctx, id)
	return nil
}

func (r *accommodationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Accommodation{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAccommodation(ctx, id)
	return nil
}

func (r *accommodationRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Accommodation{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *accommodationRepository) AddImage(ctx context.Context, img *models.AccommodationImage) error {
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAccommodation(ctx, img.AccommodationID)
	return nil
}

func (r *accommodationRepository) DeleteImage(ctx context.Context, accommodationID, imageID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND accommodation_id = ?", imageID, accommodationID).
		Delete(&models.AccommodationImage{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Image", imageID)
	}
	cache.InvalidateAccommodation(ctx, accommodationID)
	return nil
}

func (r *accommodationRepository) ReplaceAmenities(ctx context.Context, accommodationID uint, names []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("accommodation_id = ?", accommodationID).
			Delete(&models.AccommodationAmenity{}).Error; err != nil {
			return err
		}
		for _, name := range names {
			amenity := models.AccommodationAmenity{AccommodationID: accommodationID, Name: name}
			if err := tx.Create(&amenity).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAccommodation(ctx, accommodationID)
	return nil
}

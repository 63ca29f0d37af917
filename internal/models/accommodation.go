package models

import (
	"time"

	"gorm.io/gorm"
)

// AccommodationType classifies a bookable listing.
type AccommodationType string

const (
	TypeHostel    AccommodationType = "HOSTEL"
	TypeHotel     AccommodationType = "HOTEL"
	TypeApartment AccommodationType = "APARTMENT"
	TypeHouse     AccommodationType = "HOUSE"
	TypeVilla     AccommodationType = "VILLA"
	TypeResort    AccommodationType = "RESORT"
)

// Valid reports whether t is a known accommodation type.
func (t AccommodationType) Valid() bool {
	switch t {
	case TypeHostel, TypeHotel, TypeApartment, TypeHouse, TypeVilla, TypeResort:
		return true
	}
	return false
}

// Accommodation is a bookable listing owned by a supplier user.
// Monetary amounts are stored as integer cents.
type Accommodation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	SupplierID  uint              `gorm:"not null;index" json:"supplier_id"`
	Supplier    User              `gorm:"foreignKey:SupplierID" json:"supplier"`
	Type        AccommodationType `gorm:"type:varchar(16);not null" json:"type"`
	Title       string            `gorm:"not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Country     string            `gorm:"index" json:"country"`
	City        string            `gorm:"index" json:"city"`
	Address     string            `json:"address"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`

	BasePriceCents int64  `gorm:"not null" json:"base_price_cents"`
	Currency       string `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	MaxGuests      int    `gorm:"not null" json:"max_guests"`
	Bedrooms       int    `json:"bedrooms"`
	Beds           int    `json:"beds"`
	MinimumNights  int    `gorm:"default:1" json:"minimum_nights"`
	MaximumNights  int    `json:"maximum_nights"`
	InstantBook    bool   `json:"instant_book"`

	Status     ApprovalStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ApprovedAt *time.Time     `json:"approved_at,omitempty"`
	ApprovedBy *uint          `json:"approved_by,omitempty"`

	Images    []AccommodationImage   `gorm:"foreignKey:AccommodationID" json:"images,omitempty"`
	Amenities []AccommodationAmenity `gorm:"foreignKey:AccommodationID" json:"amenities,omitempty"`

	// Computed at query time, not persisted.
	AverageRating float64 `gorm:"->" json:"average_rating"`
	ReviewCount   int     `gorm:"->" json:"review_count"`
	BookingCount  int     `gorm:"->" json:"booking_count"`

	ViewCount int64          `gorm:"default:0" json:"view_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AccommodationImage is a photo attached to a listing.
type AccommodationImage struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AccommodationID uint      `gorm:"not null;index" json:"accommodation_id"`
	URL             string    `gorm:"not null" json:"url"`
	Caption         string    `json:"caption"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"created_at"`
}

// AccommodationAmenity is a single amenity flag on a listing.
type AccommodationAmenity struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	AccommodationID uint   `gorm:"not null;index" json:"accommodation_id"`
	Name            string `gorm:"not null" json:"name"`
}

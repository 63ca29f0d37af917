// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"wayfare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tune how the factory generates data.
type SeedOptions struct {
	// SkipBcrypt stores plaintext passwords for faster dev seeding.
	SkipBcrypt bool
	// MaxDays bounds how far in the past generated records are spread.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 180
	}
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var seedCities = []struct {
	Country string
	City    string
}{
	{"Portugal", "Lisbon"},
	{"Portugal", "Porto"},
	{"Spain", "Barcelona"},
	{"Spain", "Sevilla"},
	{"Italy", "Rome"},
	{"Italy", "Florence"},
	{"France", "Paris"},
	{"Greece", "Athens"},
	{"Netherlands", "Amsterdam"},
	{"Germany", "Berlin"},
	{"Japan", "Tokyo"},
	{"Thailand", "Bangkok"},
}

var accommodationTypes = []models.AccommodationType{
	models.TypeHostel, models.TypeHotel, models.TypeApartment,
	models.TypeHouse, models.TypeVilla, models.TypeResort,
}

var amenityPool = []string{
	"wifi", "kitchen", "washer", "air_conditioning", "heating", "pool",
	"free_parking", "breakfast", "workspace", "balcony", "sea_view", "gym",
}

// pastTime returns a timestamp spread over the configured history window.
func (f *Factory) pastTime() time.Time {
	daysBack := f.rng.Intn(f.opts.MaxDays)
	return time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(f.rng.Intn(24))*time.Hour)
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Bio:       gofakeit.Sentence(10),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Country:   gofakeit.Country(),
		Role:      models.RoleTraveler,
		Status:    models.UserActive,
		CreatedAt: f.pastTime(),
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAccommodation persists a sample listing for the supplier. Most seeded
// listings come out approved so the browse surface is populated.
func (f *Factory) CreateAccommodation(supplier *models.User, overrides ...func(*models.Accommodation)) (*models.Accommodation, error) {
	place := seedCities[f.rng.Intn(len(seedCities))]
	accType := accommodationTypes[f.rng.Intn(len(accommodationTypes))]

	acc := &models.Accommodation{
		SupplierID:     supplier.ID,
		Type:           accType,
		Title:          fmt.Sprintf("%s %s in %s", gofakeit.AdjectiveDescriptive(), string(accType), place.City),
		Description:    gofakeit.Paragraph(2, 4, 8, "\n"),
		Country:        place.Country,
		City:           place.City,
		Address:        gofakeit.Street(),
		Latitude:       gofakeit.Latitude(),
		Longitude:      gofakeit.Longitude(),
		BasePriceCents: int64(gofakeit.Number(25, 450)) * 100,
		Currency:       "EUR",
		MaxGuests:      gofakeit.Number(1, 8),
		Bedrooms:       gofakeit.Number(1, 4),
		Beds:           gofakeit.Number(1, 6),
		MinimumNights:  1,
		MaximumNights:  30,
		InstantBook:    f.rng.Intn(3) == 0,
		Status:         models.ApprovalApproved,
		CreatedAt:      f.pastTime(),
	}

	for _, override := range overrides {
		override(acc)
	}

	if err := f.db.Create(acc).Error; err != nil {
		return nil, err
	}

	for i := 0; i < 3; i++ {
		img := models.AccommodationImage{
			AccommodationID: acc.ID,
			URL:             fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", gofakeit.UUID()),
			Position:        i,
		}
		if err := f.db.Create(&img).Error; err != nil {
			return nil, err
		}
	}

	f.rng.Shuffle(len(amenityPool), func(i, j int) {
		amenityPool[i], amenityPool[j] = amenityPool[j], amenityPool[i]
	})
	for _, name := range amenityPool[:f.rng.Intn(6)+3] {
		amenity := models.AccommodationAmenity{AccommodationID: acc.ID, Name: name}
		if err := f.db.Create(&amenity).Error; err != nil {
			return nil, err
		}
	}

	return acc, nil
}

// CreateBooking persists a completed past stay so reviews have something to
// hang off.
func (f *Factory) CreateBooking(traveler *models.User, acc *models.Accommodation, overrides ...func(*models.Booking)) (*models.Booking, error) {
	nights := f.rng.Intn(6) + 1
	checkIn := time.Now().AddDate(0, 0, -(f.rng.Intn(f.opts.MaxDays) + nights + 1)).Truncate(24 * time.Hour)
	checkOut := checkIn.AddDate(0, 0, nights)

	base := acc.BasePriceCents * int64(nights)
	serviceFee := base * 12 / 100
	cleaningFee := base * 5 / 100
	tax := base * 10 / 100

	booking := &models.Booking{
		UserID:          traveler.ID,
		AccommodationID: acc.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Nights:          nights,
		Guests:          2,
		Adults:          2,
		BasePriceCents:  base,
		ServiceFee:      serviceFee,
		CleaningFee:     cleaningFee,
		TaxAmount:       tax,
		TotalPrice:      base + serviceFee + cleaningFee + tax,
		Currency:        acc.Currency,
		Status:          models.BookingCompleted,
		PaymentStatus:   models.PaymentPaid,
		CreatedAt:       checkIn.AddDate(0, 0, -f.rng.Intn(20)-1),
	}

	for _, override := range overrides {
		override(booking)
	}

	if err := f.db.Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// CreateReview persists an approved review against a completed booking.
func (f *Factory) CreateReview(booking *models.Booking) (*models.Review, error) {
	review := &models.Review{
		UserID:          booking.UserID,
		AccommodationID: booking.AccommodationID,
		BookingID:       booking.ID,
		Rating:          f.rng.Intn(3) + 3,
		Title:           gofakeit.Sentence(4),
		Comment:         gofakeit.Paragraph(1, 3, 8, " "),
		Status:          models.ApprovalApproved,
		CreatedAt:       booking.CheckOut.AddDate(0, 0, f.rng.Intn(5)+1),
	}
	if err := f.db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// CreateEvent persists an upcoming approved event run by the organizer.
func (f *Factory) CreateEvent(organizer *models.User, overrides ...func(*models.Event)) (*models.Event, error) {
	place := seedCities[f.rng.Intn(len(seedCities))]
	startsAt := time.Now().AddDate(0, 0, f.rng.Intn(60)+1).Truncate(time.Hour)

	event := &models.Event{
		OrganizerID: organizer.ID,
		Title:       fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), gofakeit.HackerNoun()),
		Description: gofakeit.Paragraph(1, 3, 10, "\n"),
		Country:     place.Country,
		City:        place.City,
		Venue:       gofakeit.Company(),
		StartsAt:    startsAt,
		EndsAt:      startsAt.Add(time.Duration(f.rng.Intn(6)+2) * time.Hour),
		Capacity:    f.rng.Intn(180) + 20,
		PriceCents:  int64(f.rng.Intn(50)) * 100,
		Status:      models.ApprovalApproved,
	}

	for _, override := range overrides {
		override(event)
	}

	if err := f.db.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// CreateReel persists an approved public reel by the creator.
func (f *Factory) CreateReel(creator *models.User, overrides ...func(*models.Reel)) (*models.Reel, error) {
	place := seedCities[f.rng.Intn(len(seedCities))]

	reel := &models.Reel{
		CreatorID:    creator.ID,
		VideoURL:     fmt.Sprintf("https://media.wayfare.local/reels/%s.mp4", gofakeit.UUID()),
		ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/720/1280", gofakeit.UUID()),
		Title:        gofakeit.Sentence(5),
		Description:  gofakeit.Sentence(12),
		Duration:     f.rng.Intn(80) + 10,
		LocationName: place.City,
		Visibility:   models.VisibilityPublic,
		Status:       models.ApprovalApproved,
		ViewCount:    int64(f.rng.Intn(5000)),
		CreatedAt:    f.pastTime(),
	}

	for _, override := range overrides {
		override(reel)
	}

	if err := f.db.Create(reel).Error; err != nil {
		return nil, err
	}
	return reel, nil
}

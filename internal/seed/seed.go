package seed

import (
	"fmt"
	"log"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// Seeder populates the database with a realistic demo marketplace.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts SeedOptions) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll truncates every domain table, preserving the dev root admin
// (user ID 1) and built-in reference data.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.AuditLog{},
		&models.ModerationReport{},
		&models.Notification{},
		&models.Message{},
		&models.ConversationParticipant{},
		&models.Conversation{},
		&models.ReelEngagement{},
		&models.ReelComment{},
		&models.Reel{},
		&models.EventParticipant{},
		&models.Event{},
		&models.ReviewHelpful{},
		&models.Review{},
		&models.Payment{},
		&models.Booking{},
		&models.AccommodationAmenity{},
		&models.AccommodationImage{},
		&models.Accommodation{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("clear table %T: %w", table, err)
		}
	}
	if err := s.db.Unscoped().Where("id > 1").Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	log.Println("database cleared")
	return nil
}

// SeedMarketplace builds a connected demo dataset: suppliers with approved
// listings, travelers with completed stays and reviews, association managers
// with events, and a reel feed.
func (s *Seeder) SeedMarketplace(numTravelers, numSuppliers int) error {
	if numSuppliers <= 0 {
		numSuppliers = 10
	}
	if numTravelers <= 0 {
		numTravelers = 40
	}

	suppliers := make([]*models.User, 0, numSuppliers)
	for i := 0; i < numSuppliers; i++ {
		supplier, err := s.factory.CreateUser(func(u *models.User) {
			u.Role = models.RoleSupplier
		})
		if err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}

	accommodations := make([]*models.Accommodation, 0, numSuppliers*3)
	for _, supplier := range suppliers {
		for i := 0; i < 3; i++ {
			acc, err := s.factory.CreateAccommodation(supplier)
			if err != nil {
				return fmt.Errorf("create accommodation: %w", err)
			}
			accommodations = append(accommodations, acc)
		}
	}

	travelers := make([]*models.User, 0, numTravelers)
	for i := 0; i < numTravelers; i++ {
		traveler, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("create traveler: %w", err)
		}
		travelers = append(travelers, traveler)
	}

	// Roughly two past stays per traveler, most of them reviewed.
	for i, traveler := range travelers {
		for j := 0; j < 2; j++ {
			acc := accommodations[(i*2+j)%len(accommodations)]
			booking, err := s.factory.CreateBooking(traveler, acc)
			if err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
			if (i+j)%3 != 0 {
				if _, err := s.factory.CreateReview(booking); err != nil {
					return fmt.Errorf("create review: %w", err)
				}
			}
		}
	}

	// A couple of association managers with upcoming events.
	for i := 0; i < 3; i++ {
		manager, err := s.factory.CreateUser(func(u *models.User) {
			u.Role = models.RoleAssociationManager
		})
		if err != nil {
			return fmt.Errorf("create association manager: %w", err)
		}
		for j := 0; j < 4; j++ {
			if _, err := s.factory.CreateEvent(manager); err != nil {
				return fmt.Errorf("create event: %w", err)
			}
		}
	}

	// Suppliers promote their listings with reels; travelers post trip clips.
	for _, supplier := range suppliers[:numSuppliers/2+1] {
		if _, err := s.factory.CreateReel(supplier, func(r *models.Reel) {
			r.Promotional = true
		}); err != nil {
			return fmt.Errorf("create promo reel: %w", err)
		}
	}
	for i := 0; i < numTravelers/4; i++ {
		if _, err := s.factory.CreateReel(travelers[i]); err != nil {
			return fmt.Errorf("create reel: %w", err)
		}
	}

	log.Printf("seeded %d suppliers, %d listings, %d travelers",
		len(suppliers), len(accommodations), len(travelers))
	return nil
}

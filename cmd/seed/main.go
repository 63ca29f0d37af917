// Command seed populates the database with demo marketplace data.
package main

import (
	"flag"
	"log"

	"wayfare/internal/bootstrap"
	"wayfare/internal/config"
	"wayfare/internal/seed"
)

func main() {
	numTravelers := flag.Int("travelers", 40, "Number of traveler accounts to create")
	numSuppliers := flag.Int("suppliers", 10, "Number of supplier accounts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Skip bcrypt hashing for faster seeding (dev only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedBuiltIns: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db, seed.SeedOptions{SkipBcrypt: *skipBcrypt})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.SeedMarketplace(*numTravelers, *numSuppliers); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}

// Command migrate applies the database schema. Production deploys run this
// explicitly; development relies on auto-migration at server start.
package main

import (
	"fmt"
	"log"

	"wayfare/internal/config"
	"wayfare/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.Println("schema migration applied")
	return nil
}

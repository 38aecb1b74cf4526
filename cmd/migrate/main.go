package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"meduhub/internal/config"
	"meduhub/internal/database"
	"meduhub/internal/domain"
)

// migrate prepares the configured store ahead of a deploy: SQL backends get
// their table, MongoDB gets its indexes. Both are idempotent.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(&cfg.App)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := database.Open(ctx, &cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	_, total, err := st.FindMany(ctx, domain.Filter{}, domain.Page{Number: 1, Size: 1})
	if err != nil {
		log.Fatalf("Failed to read registrations: %v", err)
	}

	fmt.Printf("Store ready (%s)\n", cfg.Database.Driver())
	fmt.Printf("Registrations on record: %d\n", total)
}

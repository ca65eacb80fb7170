package main

import (
	"context"
	"crew-route-service/internal/adapters/repositories"
	"crew-route-service/internal/config"
	"crew-route-service/internal/platform/db"
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dbtool initializes the Postgres schema and loads a seed snapshot.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/demo.yaml")
	if err := initAndSeed(ctx, conn, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Printf("Seeding database from %s...", seedPath)
	s, err := repositories.LoadSeed(seedPath)
	if err != nil {
		return err
	}
	if err := repositories.SeedDatabase(ctx, conn, s); err != nil {
		return err
	}
	log.Printf("Seeding complete: companies=%d customers=%d crews=%d", len(s.Companies), len(s.Customers), len(s.Crews))

	return nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sos-alert-service/internal/adapters/repositories"
	"sos-alert-service/internal/config"
	"sos-alert-service/internal/platform/db"
	"sos-alert-service/internal/platform/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	logger, err := logging.New(config.Get("LOG_LEVEL", config.DefaultLogLevel))
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/contacts.json")
	if err := initAndSeed(ctx, logger, sqlDB, seedPath); err != nil {
		logger.Fatal("init and seed", zap.Error(err))
	}
}

func initAndSeed(ctx context.Context, logger *zap.Logger, sqlDB *sql.DB, seedPath string) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Info("schema ready")

	logger.Info("seeding emergency contacts", zap.String("path", seedPath))
	n, err := repositories.SeedFromJSON(ctx, sqlDB, seedPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info("seeding complete", zap.Int("contacts", n))

	return nil
}

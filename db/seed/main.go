package main

import (
	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/pkg/database"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

func main() {
	logger.Init()
	cfg := environments.Load()

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedTestData(db); err != nil {
		logger.Fatalf("Failed to seed test data: %v", err)
	}

	logger.Infof("Seed completed: projects, leads and pending IVR calls are in place")
}

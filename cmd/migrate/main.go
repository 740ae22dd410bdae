package main

import (
	"github.com/plateshare/backend/config"
	"github.com/plateshare/backend/internal/database"
	"github.com/plateshare/backend/pkg/logger"
)

func main() {
	logger.Init("plateshare-migrate", config.IsDevelopment())
	log := logger.Logger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("migrations applied")
}

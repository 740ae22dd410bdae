package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plateshare/backend/config"
	"github.com/plateshare/backend/internal/api"
	"github.com/plateshare/backend/internal/database"
	"github.com/plateshare/backend/internal/middleware"
	"github.com/plateshare/backend/internal/router"
	"github.com/plateshare/backend/internal/server"
	"github.com/plateshare/backend/internal/service"
	"github.com/plateshare/backend/pkg/logger"
)

func main() {
	logger.Init("plateshare-api", config.IsDevelopment())
	log := logger.Logger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.HealthCheck(pingCtx, cfg); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("database is not reachable")
	}
	cancel()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	var rateLimiter *middleware.RateLimiter
	if redisClient, err := database.NewRedisClient(cfg); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
	} else {
		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Window:    time.Minute,
			Limit:     60,
			KeyPrefix: "ratelimit",
		})
	}

	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure image storage")
	}
	if err := s3cfg.SetupBucketPolicy(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to apply image bucket policy")
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	imageService := service.NewImageService(s3cfg, log)
	relationService := service.NewRelationService(db)
	recipeService := service.NewRecipeService(db, imageService)
	shoppingService := service.NewShoppingListService(db)
	catalogService := service.NewCatalogService(db)

	engine := router.SetupRouter(router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Users:   api.NewUserHandler(authService, relationService),
		Recipes: api.NewRecipeHandler(recipeService, relationService, shoppingService),
		Catalog: api.NewCatalogHandler(catalogService),
	}, authService, rateLimiter, nil)

	srv := server.New(engine, cfg.ServerHost+":"+cfg.ServerPort, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("received signal")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

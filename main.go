package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/logging"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/server"
	"recipebox/internal/services"
	"recipebox/internal/storage"
	"recipebox/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet; the zerolog default still writes to stderr.
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN, cfg.DBConnectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	// --- Image storage ---
	images, mediaRoot, err := newImageStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize image storage")
	}

	// --- RabbitMQ (optional) ---
	// events stays a nil interface when disabled so the service can skip publishing.
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		events = mqClient
	}

	// --- Repositories and services ---
	tagRepo := repositories.NewTagRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)

	accounts := services.NewAccountService(repositories.NewGORMUserRepository(db))
	tokens := services.NewTokenService(accounts, repositories.NewGORMTokenRepository(db), cfg.TokenTTL)
	recipes := services.NewRecipeService(repositories.NewGORMRecipeRepository(db), tagRepo, ingredientRepo, images, events)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := accounts.EnsureSuperuser(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed superuser")
		}
	}

	// --- HTTP server ---
	app := server.New(server.Deps{
		DB:             db,
		Accounts:       accounts,
		Tokens:         tokens,
		Tags:           services.NewLabelService[models.Tag](tagRepo, "tag"),
		Ingredients:    services.NewLabelService[models.Ingredient](ingredientRepo, "ingredient"),
		Recipes:        recipes,
		MediaRoot:      mediaRoot,
		MediaURL:       cfg.MediaURL,
		TokenRateLimit: cfg.TokenRateLimit,
		TokenRateBurst: cfg.TokenRateBurst,
		AccessLog:      cfg.AppEnv != "production",
	})

	// --- Recipe event consumer ---
	if mqClient != nil {
		if err := mqClient.ConsumeRecipeEvents(rabbitmq.LogRecipeEvent); err != nil {
			log.Error().Err(err).Msg("failed to start recipe event consumer")
		}
	}

	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("env", cfg.AppEnv).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error during fiber shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server gracefully stopped")
}

// newImageStore builds the configured image store. For the local driver it
// also returns the directory to serve under MEDIA_URL.
func newImageStore(ctx context.Context, cfg config.Config) (storage.ImageStore, string, error) {
	if cfg.StorageDriver == "s3" {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}

	store, err := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.Root(), nil
}

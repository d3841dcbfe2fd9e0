// Package server assembles the Fiber application: middleware, routes, health and metrics endpoints.
package server

import (
	"context"
	"time"

	"recipebox/internal/database"
	"recipebox/internal/handlers"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// bodyLimit caps request bodies, image uploads included.
const bodyLimit = 10 * 1024 * 1024

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB          *gorm.DB
	Accounts    *services.AccountService
	Tokens      *services.TokenService
	Tags        *services.LabelService[models.Tag, *models.Tag]
	Ingredients *services.LabelService[models.Ingredient, *models.Ingredient]
	Recipes     *services.RecipeService

	// MediaRoot, when set, is served as static files under MediaURL.
	MediaRoot string
	MediaURL  string

	TokenRateLimit float64
	TokenRateBurst int

	// AccessLog enables the Fiber request logger.
	AccessLog bool
}

// New builds the Fiber app with every route mounted under /api.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "recipebox",
		ErrorHandler:          handlers.ErrorHandler,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.Metrics())
	if deps.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if deps.MediaRoot != "" && deps.MediaURL != "" {
		app.Static(deps.MediaURL, deps.MediaRoot)
	}

	auth := middleware.TokenAuth(deps.Tokens)
	api := app.Group("/api")

	handlers.NewUserHandler(deps.Accounts, deps.Tokens).
		RegisterRoutes(api, auth, middleware.RateLimit(deps.TokenRateLimit, deps.TokenRateBurst))

	recipeRoutes := api.Group("/recipe", auth)
	handlers.NewLabelHandler(deps.Tags, "tag").RegisterRoutes(recipeRoutes.Group("/tags"))
	handlers.NewLabelHandler(deps.Ingredients, "ingredient").RegisterRoutes(recipeRoutes.Group("/ingredients"))
	handlers.NewRecipeHandler(deps.Recipes).RegisterRoutes(recipeRoutes.Group("/recipes"))

	return app
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "connected",
		})
	}
}

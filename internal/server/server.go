package server

import (
	"errors"
	"slices"
	"strings"
	"time"

	"waiterfm/internal/config"
	"waiterfm/internal/handlers"
	"waiterfm/internal/middleware"
	"waiterfm/internal/repositories"
	"waiterfm/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Services bundles the business services behind the HTTP API.
type Services struct {
	Auth           *services.AuthService
	Competition    *services.CompetitionService
	Waiter         *services.WaiterService
	Recommendation *services.RecommendationService
}

// NewServices wires the GORM repositories into the services. publisher may be nil.
func NewServices(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher) *Services {
	userRepo := repositories.NewGORMUserRepository(db)
	competitionRepo := repositories.NewGORMCompetitionRepository(db)
	waiterRepo := repositories.NewGORMWaiterRepository(db)

	return &Services{
		Auth:           services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL),
		Competition:    services.NewCompetitionService(competitionRepo, publisher),
		Waiter:         services.NewWaiterService(waiterRepo),
		Recommendation: services.NewRecommendationService(0),
	}
}

// New builds the Fiber app with the middleware stack and every route.
func New(cfg *config.Config, svc *Services) *fiber.App {
	responder := handlers.ErrorResponder{ShowDetails: !cfg.IsProduction()}

	app := fiber.New(fiber.Config{
		AppName:      "Waiter FM API",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: errorHandler(responder),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests from this IP, please try again later.",
				})
			},
		}))
	}
	// Credentials cannot be combined with a wildcard origin.
	corsConfig := cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}
	if len(cfg.AllowedOrigins) > 0 && !slices.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowOrigins = strings.Join(cfg.AllowedOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	app.Use(cors.New(corsConfig))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"time":        time.Now().Format(time.RFC3339),
			"environment": cfg.Environment,
		})
	})

	requireAuth := middleware.AuthRequired(svc.Auth)
	api := app.Group("/api")
	handlers.NewAuthHandler(svc.Auth, responder).RegisterRoutes(api, requireAuth)
	handlers.NewCompetitionHandler(svc.Competition, responder).RegisterRoutes(api, requireAuth)
	handlers.NewWaiterHandler(svc.Waiter, responder).RegisterRoutes(api, requireAuth)
	handlers.NewRecommendationHandler(svc.Recommendation, responder).RegisterRoutes(api, requireAuth)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Route not found"})
	})
	return app
}

func errorHandler(responder handlers.ErrorResponder) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		return responder.Respond(c, err)
	}
}

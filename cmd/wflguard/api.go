package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/wflguard/pkg/services"
	"github.com/dukex/wflguard/pkg/web"
	playvalidator "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	logger     *slog.Logger
	validation *services.Validation
	registry   *prometheus.Registry
	validate   *playvalidator.Validate
}

func NewAPI(logger *slog.Logger, validation *services.Validation, registry *prometheus.Registry) *API {
	return &API{
		logger:     logger,
		validation: validation,
		registry:   registry,
		validate:   playvalidator.New(playvalidator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.validation, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("wflguard API")
	})

	app.Post("/validate", handlers.ValidateWorkflow)
	app.Post("/extract", handlers.ExtractWorkflow)
	app.Get("/catalog", handlers.GetCatalog)
	app.Get("/health", handlers.HealthCheck)

	if a.registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

// Package main provides the Leadpipe API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/getleadpipe/leadpipe/pkg/eventbus"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/registry"
	"github.com/getleadpipe/leadpipe/pkg/services"
	"github.com/getleadpipe/leadpipe/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	campaignService := services.NewCampaign(a.persistence, a.registry, a.eventBus)
	leadService := services.NewLead(a.persistence)

	handlers := web.NewAPIHandlers(campaignService, leadService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Leadpipe API")
	})

	campaigns := app.Group("/campaigns")
	campaigns.Get("/", handlers.GetCampaigns)
	campaigns.Post("/", handlers.CreateCampaign)
	campaigns.Get("/:id", handlers.GetCampaign)
	campaigns.Delete("/:id", handlers.DeleteCampaign)
	campaigns.Post("/:id/leads", handlers.AttachLead)
	campaigns.Get("/:id/leads", handlers.GetCampaignLeads)
	campaigns.Get("/:id/results", handlers.GetCampaignResults)
	campaigns.Post("/:id/compile", handlers.CompileCampaignGraph)
	campaigns.Post("/:id/start", handlers.StartCampaign)
	campaigns.Post("/:id/pause", handlers.PauseCampaign)
	campaigns.Post("/:id/resume", handlers.ResumeCampaign)

	leads := app.Group("/leads")
	leads.Get("/", handlers.GetLeads)
	leads.Post("/", handlers.CreateLead)
	leads.Get("/:id", handlers.GetLead)
	leads.Patch("/:id", handlers.UpdateLead)
	leads.Delete("/:id", handlers.DeleteLead)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

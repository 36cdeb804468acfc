// Package main provides the erp-core API server implementation.
package main

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/leduxro-prog/erp-core/pkg/clock"
	"github.com/leduxro-prog/erp-core/pkg/eventbus"
	"github.com/leduxro-prog/erp-core/pkg/inventory"
	"github.com/leduxro-prog/erp-core/pkg/notification"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
	"github.com/leduxro-prog/erp-core/pkg/reservation"
	"github.com/leduxro-prog/erp-core/pkg/services"
	"github.com/leduxro-prog/erp-core/pkg/web"
	"github.com/leduxro-prog/erp-core/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	inventory   inventory.AvailabilityChecker
	eventBus    eventbus.EventBus
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	inventory inventory.AvailabilityChecker,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		inventory:   inventory,
		eventBus:    eventBus,
	}
}

func (a *API) App() *fiber.App {
	clk := clock.Real{}
	notifier := notification.NewEventBusNotifier(a.eventBus, a.logger)

	manager := reservation.NewManager(reservation.Config{
		Persistence: a.persistence,
		Inventory:   a.inventory,
		Clock:       clk,
		EventBus:    a.eventBus,
		Notifier:    notifier,
		Logger:      a.logger,
	})

	engine := workflow.NewEngine(workflow.Config{
		Persistence: a.persistence,
		Clock:       clk,
		Notifier:    notifier,
		EventBus:    a.eventBus,
		Logger:      a.logger,
	})

	reservationService := services.NewReservation(manager)
	workflowService := services.NewWorkflow(engine)

	handlers := web.NewAPIHandlers(reservationService, workflowService)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ERP Core API")
	})

	r := app.Group("/reservations")
	r.Post("/", handlers.CreateReservation)
	r.Get("/:id", handlers.GetReservation)
	r.Post("/:id/fulfill", handlers.FulfillReservation)
	r.Post("/:id/release", handlers.ReleaseReservation)

	t := app.Group("/workflow-templates")
	t.Post("/", handlers.CreateTemplate)
	t.Post("/:id/versions", handlers.CreateTemplateVersion)
	t.Get("/", handlers.ListTemplates)
	t.Get("/:id", handlers.GetTemplate)
	t.Get("/:id/analytics", handlers.GetTemplateAnalytics)

	w := app.Group("/workflow-instances")
	w.Post("/", handlers.StartInstance)
	w.Get("/:id", handlers.GetInstance)
	w.Post("/:id/decisions", handlers.RecordDecision)
	w.Post("/:id/delegations", handlers.Delegate)
	w.Get("/:id/delegations/:stepId", handlers.GetActiveDelegate)
	w.Post("/:id/cancel", handlers.CancelInstance)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(fmt.Sprintf(":%d", port))
}

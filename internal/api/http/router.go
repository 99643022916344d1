package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/hvac-workflow/internal/api/http/handlers"
	"github.com/spec-kit/hvac-workflow/internal/auth"
	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Tickets         *handlers.TicketsHandler
	Technicians     *handlers.TechniciansHandler
	WorkflowMetrics *handlers.WorkflowMetricsHandler
	AuthMiddleware  *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/workflow", cfg.Tickets.GetWorkflowState)
	tickets.Post("/:id/transition", cfg.Tickets.TransitionStatus)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTechnician)
	tickets.Post("/:id/escalate", cfg.Tickets.EscalateTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	technicians := app.Group("/technicians", cfg.AuthMiddleware.Handle)
	technicians.Get("", cfg.Technicians.ListTechnicians)
	technicians.Get("/:id", cfg.Technicians.GetTechnician)
	technicians.Post("", auth.RequireRole(domain.AccountRoleAdmin, domain.AccountRoleDispatcher), cfg.Technicians.CreateTechnician)

	app.Get("/metrics/workflow", cfg.AuthMiddleware.Handle, cfg.WorkflowMetrics.GetWorkflowMetrics)
}

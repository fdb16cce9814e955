package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resolveiq/internal/api/http/handlers"
	"github.com/spec-kit/resolveiq/internal/auth"
	"github.com/spec-kit/resolveiq/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Analysis       *handlers.AnalysisHandler
	Roster         *handlers.RosterHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)
	staffOnly := auth.RequireSubject(domain.SubjectTypeStaff)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/sla", cfg.Tickets.SLA)
	tickets.Patch("/:id/status", staffOnly, cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", staffOnly, cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/auto-assign", staffOnly, cfg.Tickets.AutoAssign)
	tickets.Post("/:id/assign", staffOnly, cfg.Tickets.Assign)
	tickets.Post("/:id/analyze", staffOnly, cfg.Analysis.Analyze)
	tickets.Get("/:id/analysis", staffOnly, cfg.Analysis.GetAnalysis)

	scoring := api.Group("/scoring")
	scoring.Post("/preview", cfg.Analysis.Preview)
	scoring.Post("/quick", cfg.Analysis.QuickScore)

	// Roster routes take the staff guard per route; a prefix-less group would
	// guard every /api/v1 route.
	api.Get("/departments", staffOnly, cfg.Roster.ListDepartments)
	api.Post("/departments", staffOnly, cfg.Roster.CreateDepartment)
	api.Patch("/departments/:id", staffOnly, cfg.Roster.SetDepartmentActive)
	api.Get("/departments/:id/teams", staffOnly, cfg.Roster.ListTeams)
	api.Post("/departments/:id/teams", staffOnly, cfg.Roster.CreateTeam)
	api.Get("/departments/:id/workloads", staffOnly, cfg.Roster.Workloads)
	api.Post("/teams/:id/members", staffOnly, cfg.Roster.AddTeamMember)
	api.Get("/staff", staffOnly, cfg.Roster.ListStaff)
	api.Post("/staff", staffOnly, cfg.Roster.CreateStaff)
	api.Patch("/staff/:id", staffOnly, cfg.Roster.SetStaffActive)
	api.Post("/ticket-types", staffOnly, cfg.Roster.CreateTicketType)
	api.Get("/ticket-types/:id/policies", staffOnly, cfg.Roster.ListPolicies)
	api.Put("/ticket-types/:id/policies", staffOnly, cfg.Roster.UpsertPolicy)
}

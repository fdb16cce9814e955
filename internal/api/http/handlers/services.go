package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resolveiq/internal/auth"
	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/repository"
	"github.com/spec-kit/resolveiq/internal/scoring"
	"github.com/spec-kit/resolveiq/internal/service"
)

// TicketService is the ticket lifecycle used by the handlers.
type TicketService interface {
	CreateTicket(ctx context.Context, actor events.Actor, input service.TicketCreateInput) (*domain.Ticket, error)
	GetTicket(ctx context.Context, idOrKey string) (*domain.Ticket, error)
	ListTickets(ctx context.Context, filter service.TicketListFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, actor events.Actor, ticketID string, status domain.TicketStatus, comment string) (*domain.Ticket, error)
	UpdatePriority(ctx context.Context, actor events.Actor, ticketID string, priority domain.TicketPriority, reason string) (*domain.Ticket, error)
}

// AnalysisService runs and reads risk analyses.
type AnalysisService interface {
	Analyze(ctx context.Context, ticketID string) (*service.AnalysisResult, error)
	GetAnalysis(ctx context.Context, ticketID string) (*domain.TicketAnalysis, error)
	ScoreText(ctx context.Context, title, description string) (*scoring.Outcome, error)
	QuickScore(ctx context.Context, title, description string) *scoring.Outcome
}

// SLAService reports ticket deadlines.
type SLAService interface {
	Status(ctx context.Context, ticketID string) (*service.TicketSLA, error)
}

// AssignmentService routes tickets.
type AssignmentService interface {
	AutoAssignTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	AssignTicketToStaff(ctx context.Context, actor events.Actor, ticketID, staffID string) (*domain.Ticket, error)
	DepartmentWorkloads(ctx context.Context, departmentID string) ([]service.TeamLoad, error)
}

// RosterService manages the organization.
type RosterService interface {
	CreateDepartment(ctx context.Context, name, description string) (*domain.Department, error)
	ListDepartments(ctx context.Context, includeInactive bool) ([]domain.Department, error)
	SetDepartmentActive(ctx context.Context, id string, active bool) error
	CreateTeam(ctx context.Context, departmentID, name, description string) (*domain.Team, error)
	ListTeams(ctx context.Context, departmentID string) ([]domain.Team, error)
	CreateStaff(ctx context.Context, input service.StaffCreateInput) (*domain.StaffMember, error)
	SetStaffActive(ctx context.Context, id string, active bool) (*domain.StaffMember, error)
	ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error)
	AddTeamMember(ctx context.Context, teamID, staffID string) error
	CreateTicketType(ctx context.Context, name string) (*domain.TicketType, error)
	UpsertPolicy(ctx context.Context, policy domain.SLAPolicy) (*domain.SLAPolicy, error)
	ListPolicies(ctx context.Context, typeID string) ([]domain.SLAPolicy, error)
}

func actorFrom(c *fiber.Ctx) events.Actor {
	principal, _ := auth.PrincipalFromContext(c)
	return principal.Actor()
}

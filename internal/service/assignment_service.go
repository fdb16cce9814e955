package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/assignment"
	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/repository"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

// AssignmentService routes tickets to the least loaded team and agent.
type AssignmentService struct {
	tickets repository.TicketRepository
	teams   repository.TeamRepository
	staff   repository.StaffRepository
	logger  *zap.Logger
	events  publisher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	TeamRepo   repository.TeamRepository
	StaffRepo  repository.StaffRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := loggerOrNop(deps.Logger)
	return &AssignmentService{
		tickets: deps.TicketRepo,
		teams:   deps.TeamRepo,
		staff:   deps.StaffRepo,
		logger:  logger,
		events:  publisher{dispatcher: deps.Dispatcher, logger: logger, now: clockOrNow(deps.Clock)},
	}
}

// AgentWorkload is the weighted count of the agent's active tickets.
func (s *AssignmentService) AgentWorkload(ctx context.Context, staffID string) (int, error) {
	counts, err := s.tickets.CountActiveByPriority(ctx, staffID)
	if err != nil {
		return 0, err
	}
	return assignment.AgentWorkload(counts), nil
}

// TeamWorkload sums the workloads of every team member, including members that
// cannot take new tickets.
func (s *AssignmentService) TeamWorkload(ctx context.Context, teamID string) (int, error) {
	members, err := s.staff.ListByTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	loads := make([]int, 0, len(members))
	for _, m := range members {
		load, err := s.AgentWorkload(ctx, m.ID)
		if err != nil {
			return 0, err
		}
		loads = append(loads, load)
	}
	return assignment.TeamWorkload(loads), nil
}

// TeamLoad is one row of a department workload report.
type TeamLoad struct {
	Team     domain.Team `json:"team"`
	Workload int         `json:"workload"`
}

// DepartmentWorkloads reports the workload of each active team of a department.
func (s *AssignmentService) DepartmentWorkloads(ctx context.Context, departmentID string) ([]TeamLoad, error) {
	teams, err := s.teams.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]TeamLoad, 0, len(teams))
	for _, t := range teams {
		load, err := s.TeamWorkload(ctx, t.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		out = append(out, TeamLoad{Team: t, Workload: load})
	}
	return out, nil
}

// assignNew picks a team within the ticket's department, then an agent within
// that team. It only mutates the ticket; callers persist it. The returned bool
// reports whether an agent was found.
func (s *AssignmentService) assignNew(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	teams, err := s.teams.ListActiveByDepartment(ctx, ticket.DepartmentID)
	if err != nil {
		return false, err
	}
	teamPick, err := assignment.AssignTeam(ctx, assignment.Teams(teams), s.TeamWorkload)
	if err != nil {
		return false, err
	}
	if teamPick.ID == nil {
		s.logger.Info("no active team for department",
			zap.String("department_id", ticket.DepartmentID))
		return false, nil
	}
	ticket.TeamID = teamPick.ID

	members, err := s.staff.ListByTeam(ctx, *teamPick.ID)
	if err != nil {
		return false, err
	}
	agentPick, err := assignment.AssignAgent(ctx, assignment.Agents(members), s.AgentWorkload)
	if err != nil {
		return false, err
	}
	if agentPick.ID == nil {
		s.logger.Info("no available agent in team", zap.String("team_id", *teamPick.ID))
		return false, nil
	}
	ticket.AssigneeID = agentPick.ID
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusAssigned
	}
	return true, nil
}

// AutoAssignTicket runs team and agent selection for an existing ticket. A
// ticket without candidates stays as it is and the event flags it for manual
// assignment.
func (s *AssignmentService) AutoAssignTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}
	assigned, err := s.assignNew(ctx, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assigned || ticket.TeamID != nil {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.publishAssigned(ctx, events.SystemActor, ticket, !assigned)
	return ticket, nil
}

// AssignTicketToStaff assigns a ticket to a specific agent.
func (s *AssignmentService) AssignTicketToStaff(ctx context.Context, actor events.Actor, ticketID, staffID string) (*domain.Ticket, error) {
	assignee, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, notFoundOr(err, "staff", map[string]any{"staff_id": staffID})
	}
	if !assignee.CanTakeTickets() {
		return nil, apperrors.NewConflict("staff member cannot take tickets", map[string]any{"staff_id": staffID})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}
	ticket.AssigneeID = &assignee.ID
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusAssigned
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssigned(ctx, actor, ticket, false)
	return ticket, nil
}

func (s *AssignmentService) publishAssigned(ctx context.Context, actor events.Actor, ticket *domain.Ticket, needsManual bool) {
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			AssigneeID:  ticket.AssigneeID,
			TeamID:      ticket.TeamID,
			NeedsManual: needsManual,
		},
	})
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/observability"
	"github.com/spec-kit/resolveiq/internal/repository"
	"github.com/spec-kit/resolveiq/internal/scoring"
	"github.com/spec-kit/resolveiq/internal/sla"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

const defaultSweepBatch = 100

// SLAService attaches deadlines to tickets and watches them.
type SLAService struct {
	tickets  repository.TicketRepository
	policies sla.PolicyLookup
	workload func(ctx context.Context, staffID string) (int, error)
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      Clock
	batch    int
	events   publisher
}

// SLADependencies bundles collaborators. Workload may be nil, in which case
// the live risk treats every assignee as idle.
type SLADependencies struct {
	TicketRepo repository.TicketRepository
	Policies   sla.PolicyLookup
	Workload   func(ctx context.Context, staffID string) (int, error)
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
	SweepBatch int
}

// NewSLAService creates the service.
func NewSLAService(deps SLADependencies) *SLAService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	batch := deps.SweepBatch
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &SLAService{
		tickets:  deps.TicketRepo,
		policies: deps.Policies,
		workload: deps.Workload,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      now,
		batch:    batch,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
	}
}

// ApplyDeadlines sets the ticket's deadlines for the strategy that scored it.
// The quick heuristic uses flat hours. Full analysis uses the policy table and,
// when no policy matches, leaves the current deadlines untouched and reports
// the gap.
func (s *SLAService) ApplyDeadlines(ctx context.Context, ticket *domain.Ticket, strategy string) (bool, error) {
	if strategy == scoring.StrategyQuickHeuristic {
		due, hours := sla.FlatDeadline(ticket.Priority, ticket.CreatedAt)
		ticket.ResolutionDueAt = &due
		ticket.SLAHours = &hours
		return false, nil
	}

	typeID := ""
	if ticket.TypeID != nil {
		typeID = *ticket.TypeID
	}
	deadlines, err := sla.ComputeDeadlines(ctx, typeID, ticket.Priority, ticket.CreatedAt, s.policies)
	if err != nil {
		return false, err
	}
	if deadlines.PolicyMissing {
		s.logger.Warn("no sla policy for ticket type and priority",
			zap.String("ticket_id", ticket.ID),
			zap.String("type_id", typeID),
			zap.String("priority", string(ticket.Priority)))
		return true, nil
	}
	ticket.ResponseDueAt = deadlines.ResponseDue
	ticket.ResolutionDueAt = deadlines.ResolutionDue
	ticket.SLAHours = nil
	return false, nil
}

// TicketSLA is the SLA view of one ticket.
type TicketSLA struct {
	TicketID string        `json:"ticket_id"`
	Priority string        `json:"priority"`
	Status   string        `json:"status"`
	SLA      sla.Status    `json:"sla"`
	LiveRisk *sla.LiveRisk `json:"live_risk,omitempty"`
	Computed time.Time     `json:"computed_at"`
}

// Status reports deadlines, breach flags and, for unfinished tickets, the live
// breach risk.
func (s *SLAService) Status(ctx context.Context, ticketID string) (*TicketSLA, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	now := s.now()
	out := &TicketSLA{
		TicketID: ticket.ID,
		Priority: string(ticket.Priority),
		Status:   string(ticket.Status),
		SLA:      sla.StatusOf(ticket, now),
		Computed: now,
	}
	if ticket.Status.IsTerminal() {
		return out, nil
	}

	avg, err := s.tickets.AvgResolutionMinutes(ctx, ticket.TypeID, ticket.Priority)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	load := 0
	if ticket.AssigneeID != nil && s.workload != nil {
		load, err = s.workload(ctx, *ticket.AssigneeID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	risk := sla.EvaluateLiveRisk(sla.LiveRiskInput{
		Priority:             ticket.Priority,
		Status:               ticket.Status,
		Assigned:             ticket.AssigneeID != nil,
		ResolutionDue:        ticket.ResolutionDueAt,
		AgentWorkload:        load,
		AvgResolutionMinutes: avg,
		Now:                  now,
	})
	out.LiveRisk = &risk
	return out, nil
}

// SweepBreaches escalates unfinished tickets whose resolution deadline has
// passed and returns how many were escalated.
func (s *SLAService) SweepBreaches(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.tickets.ListOverdue(ctx, now, s.batch)
	if err != nil {
		return 0, err
	}
	escalated := 0
	for i := range overdue {
		ticket := &overdue[i]
		previous := ticket.Status
		ticket.Status = domain.TicketStatusEscalated
		ticket.EscalationRequired = true
		if err := s.tickets.Update(ctx, ticket); err != nil {
			s.logger.Error("failed to escalate breached ticket",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		escalated++
		overdueBy := 0
		if remaining := sla.TimeRemaining(ticket.ResolutionDueAt, now); remaining != nil {
			overdueBy = -*remaining
		}
		s.events.publish(ctx, events.Event{
			Type:     events.EventSLABreached,
			TicketID: ticket.ID,
			Actor:    events.SystemActor,
			Payload: events.SLABreachedPayload{
				Priority:        ticket.Priority,
				ResolutionDueAt: *ticket.ResolutionDueAt,
				MinutesOverdue:  overdueBy,
				AssigneeID:      ticket.AssigneeID,
				PreviousStatus:  previous,
			},
		})
	}
	if s.metrics != nil && escalated > 0 {
		s.metrics.RecordSLABreaches(escalated)
	}
	return escalated, nil
}

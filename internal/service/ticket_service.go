package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/repository"
	"github.com/spec-kit/resolveiq/internal/scoring"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

const (
	maxTitleLength = 200
	defaultLimit   = 50
	maxLimit       = 200
)

// IntakeScorer scores a ticket before it is stored.
type IntakeScorer interface {
	ScoreForCreation(ctx context.Context, title, description string) (*scoring.Outcome, error)
}

// TicketService coordinates ticket intake and lifecycle.
type TicketService struct {
	tickets     repository.TicketRepository
	departments repository.DepartmentRepository
	scorer      IntakeScorer
	slas        *SLAService
	assigner    *AssignmentService
	logger      *zap.Logger
	now         Clock
	events      publisher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	DepartmentRepo repository.DepartmentRepository
	Scorer         IntakeScorer
	SLA            *SLAService
	Assignment     *AssignmentService
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Clock          Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequesterID  string
	DepartmentID string
	TypeID       *string
	Title        string
	Description  string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	RequesterID  *string
	DepartmentID *string
	TeamID       *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	scorer := deps.Scorer
	if scorer == nil {
		scorer = quickIntake{}
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		departments: deps.DepartmentRepo,
		scorer:      scorer,
		slas:        deps.SLA,
		assigner:    deps.Assignment,
		logger:      logger,
		now:         now,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
	}
}

// CreateTicket scores, schedules and routes a new ticket, then stores it.
// Routing happens before the insert so the new ticket never counts towards the
// workload it is routed by.
func (s *TicketService) CreateTicket(ctx context.Context, actor events.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" && description == "" {
		return nil, apperrors.NewValidationError("title or description required", nil)
	}
	if len(title) > maxTitleLength {
		return nil, apperrors.NewValidationError("title too long", map[string]any{"max": maxTitleLength})
	}
	if input.DepartmentID == "" {
		return nil, apperrors.NewValidationError("department_id required", nil)
	}
	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, notFoundOr(err, "department", map[string]any{"department_id": input.DepartmentID})
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
	}

	outcome, err := s.scorer.ScoreForCreation(ctx, title, description)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	ticket := &domain.Ticket{
		ExternalKey:        generateTicketKey(now),
		RequesterID:        input.RequesterID,
		DepartmentID:       dept.ID,
		TypeID:             input.TypeID,
		Title:              title,
		Description:        description,
		Status:             domain.TicketStatusOpen,
		Priority:           outcome.Priority,
		AIScore:            outcome.Score,
		BreachRisk:         outcome.BreachRisk,
		EscalationRequired: outcome.Escalation,
		CreatedAt:          now,
	}
	if s.slas != nil {
		if _, err := s.slas.ApplyDeadlines(ctx, ticket, outcome.Strategy); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	assigned := false
	if s.assigner != nil {
		if assigned, err = s.assigner.assignNew(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("key", ticket.ExternalKey),
		zap.String("priority", string(ticket.Priority)),
		zap.String("strategy", outcome.Strategy),
		zap.Bool("assigned", assigned))

	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			DepartmentID: ticket.DepartmentID,
			TeamID:       ticket.TeamID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
			Strategy:     outcome.Strategy,
			Score:        outcome.Score,
		},
	})
	if s.assigner != nil {
		s.assigner.publishAssigned(ctx, events.SystemActor, ticket, !assigned)
	}
	return ticket, nil
}

// GetTicket fetches a ticket by id or external key.
func (s *TicketService) GetTicket(ctx context.Context, idOrKey string) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		err    error
	)
	if _, parseErr := uuid.Parse(idOrKey); parseErr == nil {
		ticket, err = s.tickets.GetByID(ctx, idOrKey)
	} else {
		ticket, err = s.tickets.GetByExternalKey(ctx, idOrKey)
	}
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": idOrKey})
	}
	return ticket, nil
}

// ListTickets returns tickets matching filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID:  filter.RequesterID,
		DepartmentID: filter.DepartmentID,
		TeamID:       filter.TeamID,
		AssigneeID:   filter.AssigneeID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        limit,
		Offset:       filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateStatus moves a ticket through its lifecycle. Resolving stamps
// resolved_at, which makes the ticket part of the historical corpus; reopening
// clears it.
func (s *TicketService) UpdateStatus(ctx context.Context, actor events.Actor, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}
	oldStatus := ticket.Status
	now := s.now()
	switch newStatus {
	case domain.TicketStatusResolved:
		ticket.ResolvedAt = &now
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
	case domain.TicketStatusInProgress:
		ticket.ResolvedAt = nil
	}
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// UpdatePriority overrides the scored priority and reschedules the ticket.
// Typed tickets follow the policy table, untyped ones the flat hours.
func (s *TicketService) UpdatePriority(ctx context.Context, actor events.Actor, ticketID string, newPriority domain.TicketPriority, reason string) (*domain.Ticket, error) {
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": newPriority})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}
	oldPriority := ticket.Priority
	if oldPriority == newPriority {
		return ticket, nil
	}
	ticket.Priority = newPriority
	ticket.EscalationRequired = newPriority == domain.PriorityP1 || newPriority == domain.PriorityP2
	if s.slas != nil {
		strategy := scoring.StrategyQuickHeuristic
		if ticket.TypeID != nil {
			strategy = scoring.StrategyFullAnalysis
		}
		if _, err := s.slas.ApplyDeadlines(ctx, ticket, strategy); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if reason == "" {
		reason = "manual"
	}
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
			Reason:      reason,
		},
	})
	return ticket, nil
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen: {
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusAssigned: {
		domain.TicketStatusInProgress,
		domain.TicketStatusPendingUser,
		domain.TicketStatusResolved,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusPendingUser,
		domain.TicketStatusResolved,
		domain.TicketStatusEscalated,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusPendingUser: {
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusEscalated: {
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusResolved: {
		domain.TicketStatusClosed,
		domain.TicketStatusInProgress,
	},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func generateTicketKey(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RIQ-%d-%s", now.Year(), suffix)
}

type quickIntake struct{}

func (quickIntake) ScoreForCreation(ctx context.Context, title, description string) (*scoring.Outcome, error) {
	return scoring.QuickHeuristic{}.Score(ctx, scoring.TicketText{Title: title, Description: description})
}

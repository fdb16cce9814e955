package events

import (
	"time"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketAnalyzed        EventType = "ticket_analyzed"
	EventSLABreached           EventType = "sla_breached"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.SubjectType `json:"type"`
	SubjectID *string            `json:"subject_id,omitempty"`
}

// SystemActor is used for automated changes (scoring, assignment, sweeps).
var SystemActor = Actor{Type: domain.SubjectTypeSystem}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID string                `json:"department_id"`
	TeamID       *string               `json:"team_id,omitempty"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
	Strategy     string                `json:"strategy"`
	Score        int                   `json:"score"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	Reason      string                `json:"reason"`
}

// TicketAssignedPayload payload. A nil assignee with NeedsManual set means the
// roster was empty.
type TicketAssignedPayload struct {
	AssigneeID  *string `json:"assignee_id,omitempty"`
	TeamID      *string `json:"team_id,omitempty"`
	NeedsManual bool    `json:"needs_manual_assignment"`
}

// TicketAnalyzedPayload payload.
type TicketAnalyzedPayload struct {
	Strategy         string                `json:"strategy"`
	Category         string                `json:"category,omitempty"`
	FinalRisk        int                   `json:"final_risk"`
	Priority         domain.TicketPriority `json:"priority"`
	SLAPolicyMissing bool                  `json:"sla_policy_missing"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Priority        domain.TicketPriority `json:"priority"`
	ResolutionDueAt time.Time             `json:"resolution_due_at"`
	MinutesOverdue  int                   `json:"minutes_overdue"`
	AssigneeID      *string               `json:"assignee_id,omitempty"`
	PreviousStatus  domain.TicketStatus   `json:"previous_status"`
}

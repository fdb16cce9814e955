package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusAssigned    TicketStatus = "ASSIGNED"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusEscalated   TicketStatus = "ESCALATED"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// ActiveStatuses are the states that count towards an agent's workload.
var ActiveStatuses = []TicketStatus{
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusPendingUser,
}

// IsActive reports whether the status counts as assigned, unfinished work.
func (s TicketStatus) IsActive() bool {
	for _, st := range ActiveStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the ticket no longer runs against its SLA.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed || s == TicketStatusCancelled
}

// TicketPriority enumerates SLA tiers, P1 being the most critical.
type TicketPriority string

const (
	PriorityP1 TicketPriority = "P1"
	PriorityP2 TicketPriority = "P2"
	PriorityP3 TicketPriority = "P3"
	PriorityP4 TicketPriority = "P4"
)

// Priorities lists tiers from most to least critical.
var Priorities = []TicketPriority{PriorityP1, PriorityP2, PriorityP3, PriorityP4}

// Valid reports whether p is one of the known tiers.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3, PriorityP4:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                 string
	ExternalKey        string
	RequesterID        string
	DepartmentID       string
	TypeID             *string
	TeamID             *string
	AssigneeID         *string
	Title              string
	Description        string
	Status             TicketStatus
	Priority           TicketPriority
	AIScore            int
	BreachRisk         float64
	EscalationRequired bool
	SLAHours           *int
	ResponseDueAt      *time.Time
	ResolutionDueAt    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
	ClosedAt           *time.Time
}

// Breached reports whether a resolved ticket missed its resolution deadline.
func (t *Ticket) Breached() bool {
	if t.ResolvedAt == nil || t.ResolutionDueAt == nil {
		return false
	}
	return t.ResolvedAt.After(*t.ResolutionDueAt)
}

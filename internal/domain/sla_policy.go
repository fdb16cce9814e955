package domain

import "time"

// TicketType classifies tickets for SLA policy selection.
type TicketType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// SLAPolicy maps a ticket type and priority to response and resolution budgets.
type SLAPolicy struct {
	ID                string         `json:"id"`
	TypeID            string         `json:"type_id"`
	Priority          TicketPriority `json:"priority"`
	ResponseMinutes   int            `json:"response_minutes"`
	ResolutionMinutes int            `json:"resolution_minutes"`
	CreatedAt         time.Time      `json:"created_at"`
}

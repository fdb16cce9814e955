package dto

import "github.com/spec-kit/resolveiq/internal/domain"

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateStaffRequest payload.
type CreateStaffRequest struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Role         domain.StaffRole `json:"role"`
	DepartmentID *string          `json:"department_id"`
}

// SetActiveRequest toggles a department or staff member.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AddMemberRequest payload.
type AddMemberRequest struct {
	StaffID string `json:"staff_id"`
}

// CreateTicketTypeRequest payload.
type CreateTicketTypeRequest struct {
	Name string `json:"name"`
}

// UpsertPolicyRequest sets the budgets of one priority of a ticket type.
type UpsertPolicyRequest struct {
	Priority          domain.TicketPriority `json:"priority"`
	ResponseMinutes   int                   `json:"response_minutes"`
	ResolutionMinutes int                   `json:"resolution_minutes"`
}

package domain

import "time"

// Team represents a sub-group under a department.
type Team struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TeamMember links a staff member to a team. A member may belong to several teams.
type TeamMember struct {
	TeamID    string    `json:"team_id"`
	StaffID   string    `json:"staff_id"`
	CreatedAt time.Time `json:"created_at"`
}

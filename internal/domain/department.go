package domain

import "time"

// Department is the routing root: every ticket names one, and auto-assignment
// picks among its active teams. Inactive departments accept no new tickets.
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Package sla turns a priority into response and resolution deadlines and
// answers breach questions about them.
package sla

import (
	"context"
	"time"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// Deadlines is the result of a policy-based SLA computation. Both due times are
// nil when no policy matched.
type Deadlines struct {
	ResponseDue   *time.Time `json:"response_due"`
	ResolutionDue *time.Time `json:"resolution_due"`
	PolicyID      string     `json:"policy_id,omitempty"`
	PolicyMissing bool       `json:"policy_missing"`
}

// ComputeDeadlines looks up the policy for (typeID, priority) and offsets
// createdAt by its budgets. A ticket without a type, or a combination without
// a policy, yields nil deadlines; only lookup failures are errors.
func ComputeDeadlines(ctx context.Context, typeID string, priority domain.TicketPriority, createdAt time.Time, lookup PolicyLookup) (Deadlines, error) {
	if typeID == "" || lookup == nil {
		return Deadlines{PolicyMissing: true}, nil
	}
	policy, err := lookup.LookupPolicy(ctx, typeID, priority)
	if err != nil {
		return Deadlines{}, err
	}
	return DeadlinesFor(policy, createdAt), nil
}

// DeadlinesFor applies an already resolved policy. A nil policy means missing.
func DeadlinesFor(policy *domain.SLAPolicy, createdAt time.Time) Deadlines {
	if policy == nil {
		return Deadlines{PolicyMissing: true}
	}
	response := createdAt.Add(time.Duration(policy.ResponseMinutes) * time.Minute)
	resolution := createdAt.Add(time.Duration(policy.ResolutionMinutes) * time.Minute)
	return Deadlines{ResponseDue: &response, ResolutionDue: &resolution, PolicyID: policy.ID}
}

var flatHours = map[domain.TicketPriority]int{
	domain.PriorityP1: 4,
	domain.PriorityP2: 8,
	domain.PriorityP3: 16,
	domain.PriorityP4: 24,
}

// FlatHours is the fixed resolution budget paired with the creation-time
// scorer. Unknown priorities get the P4 budget.
func FlatHours(priority domain.TicketPriority) int {
	if h, ok := flatHours[priority]; ok {
		return h
	}
	return flatHours[domain.PriorityP4]
}

// FlatDeadline returns createdAt plus the flat budget and the budget in hours.
func FlatDeadline(priority domain.TicketPriority, createdAt time.Time) (time.Time, int) {
	hours := FlatHours(priority)
	return createdAt.Add(time.Duration(hours) * time.Hour), hours
}

// IsBreached reports now > deadline. A nil deadline is never breached.
func IsBreached(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return now.After(*deadline)
}

// TimeRemaining returns whole minutes until deadline, truncated toward zero and
// negative once overdue, or nil without a deadline.
func TimeRemaining(deadline *time.Time, now time.Time) *int {
	if deadline == nil {
		return nil
	}
	minutes := int(deadline.Sub(now) / time.Minute)
	return &minutes
}

// Status is a point-in-time view of a ticket's SLA.
type Status struct {
	ResponseDue      *time.Time `json:"response_due"`
	ResolutionDue    *time.Time `json:"resolution_due"`
	ResponseBreached bool       `json:"response_breached"`
	Breached         bool       `json:"breached"`
	MinutesRemaining *int       `json:"minutes_remaining"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

// StatusOf evaluates t at now. Resolved tickets are judged at their
// resolution time so the verdict stops moving once work is done.
func StatusOf(t *domain.Ticket, now time.Time) Status {
	at := now
	if t.ResolvedAt != nil {
		at = *t.ResolvedAt
	}
	return Status{
		ResponseDue:      t.ResponseDueAt,
		ResolutionDue:    t.ResolutionDueAt,
		ResponseBreached: t.Status == domain.TicketStatusOpen && IsBreached(t.ResponseDueAt, at),
		Breached:         IsBreached(t.ResolutionDueAt, at),
		MinutesRemaining: TimeRemaining(t.ResolutionDueAt, at),
		ResolvedAt:       t.ResolvedAt,
	}
}

package assignment

import (
	"context"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// Candidate is a team or agent that can receive a ticket.
type Candidate struct {
	ID   string
	Name string
}

// WorkloadFunc returns the live workload of one candidate.
type WorkloadFunc func(ctx context.Context, id string) (int, error)

// Decision records how a target was chosen.
type Decision struct {
	ID        *string        `json:"id"`
	Workloads map[string]int `json:"workloads,omitempty"`
}

// AssignTeam picks the least loaded team. It returns a nil ID for an empty
// roster, and skips the workload query when only one team exists. Ties go to
// the team listed first.
func AssignTeam(ctx context.Context, teams []Candidate, fn WorkloadFunc) (Decision, error) {
	return pickLeastLoaded(ctx, teams, fn)
}

// AssignAgent picks the least loaded agent with the same rules as AssignTeam.
// Callers filter the roster with Agents first.
func AssignAgent(ctx context.Context, agents []Candidate, fn WorkloadFunc) (Decision, error) {
	return pickLeastLoaded(ctx, agents, fn)
}

// Agents keeps the staff members that may take tickets, in roster order.
func Agents(members []domain.StaffMember) []Candidate {
	out := make([]Candidate, 0, len(members))
	for _, m := range members {
		if m.CanTakeTickets() {
			out = append(out, Candidate{ID: m.ID, Name: m.Name})
		}
	}
	return out
}

// Teams converts active teams into candidates, in roster order.
func Teams(teams []domain.Team) []Candidate {
	out := make([]Candidate, 0, len(teams))
	for _, t := range teams {
		if t.IsActive {
			out = append(out, Candidate{ID: t.ID, Name: t.Name})
		}
	}
	return out
}

func pickLeastLoaded(ctx context.Context, candidates []Candidate, fn WorkloadFunc) (Decision, error) {
	switch len(candidates) {
	case 0:
		return Decision{}, nil
	case 1:
		id := candidates[0].ID
		return Decision{ID: &id}, nil
	}

	loads := make(map[string]int, len(candidates))
	best := -1
	lowest := 0
	for i, c := range candidates {
		load, err := fn(ctx, c.ID)
		if err != nil {
			return Decision{}, err
		}
		loads[c.ID] = load
		if best < 0 || load < lowest {
			best = i
			lowest = load
		}
	}
	id := candidates[best].ID
	return Decision{ID: &id, Workloads: loads}, nil
}

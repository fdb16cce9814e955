package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// RiskLevel buckets a live breach risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskFactor is one contribution to a live breach risk score.
type RiskFactor struct {
	Factor      string `json:"factor"`
	Value       string `json:"value"`
	Score       int    `json:"score"`
	Weight      string `json:"weight"`
	Explanation string `json:"explanation"`
}

// LiveRiskInput is the state of an open ticket at evaluation time.
type LiveRiskInput struct {
	Priority      domain.TicketPriority
	Status        domain.TicketStatus
	Assigned      bool
	ResolutionDue *time.Time
	// AgentWorkload is the assignee's weighted workload; ignored when unassigned.
	AgentWorkload int
	// AvgResolutionMinutes is the historical mean for the same type and
	// priority, nil when there is no history.
	AvgResolutionMinutes *float64
	Now                  time.Time
}

// LiveRisk is the multi-factor breach risk of an open ticket.
type LiveRisk struct {
	Score   int          `json:"score"`
	Level   RiskLevel    `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

var priorityRisk = map[domain.TicketPriority]int{
	domain.PriorityP1: 30,
	domain.PriorityP2: 20,
	domain.PriorityP3: 10,
	domain.PriorityP4: 5,
}

// EvaluateLiveRisk scores how likely an open ticket is to miss its resolution
// deadline, from priority, deadline proximity, assignment, agent load and
// historical resolution times.
func EvaluateLiveRisk(in LiveRiskInput) LiveRisk {
	factors := make([]RiskFactor, 0, 5)
	total := 0

	p := priorityRisk[in.Priority]
	total += p
	factors = append(factors, RiskFactor{
		Factor:      "Priority Level",
		Value:       string(in.Priority),
		Score:       p,
		Weight:      "30%",
		Explanation: "Higher priority tickets have a higher risk baseline",
	})

	var remaining float64
	if in.ResolutionDue != nil {
		remaining = in.ResolutionDue.Sub(in.Now).Minutes()
		score, status := deadlineRisk(remaining)
		total += score
		factors = append(factors, RiskFactor{
			Factor:      "SLA Deadline Proximity",
			Value:       status,
			Score:       score,
			Weight:      "35%",
			Explanation: "Risk grows sharply as the deadline approaches",
		})
	}

	a, status := assignmentRisk(in.Assigned, in.Status)
	total += a
	factors = append(factors, RiskFactor{
		Factor:      "Assignment Status",
		Value:       status,
		Score:       a,
		Weight:      "15%",
		Explanation: "Unassigned tickets carry the highest risk",
	})

	if in.Assigned {
		w, status := workloadRisk(in.AgentWorkload)
		total += w
		factors = append(factors, RiskFactor{
			Factor:      "Agent Workload",
			Value:       status,
			Score:       w,
			Weight:      "10%",
			Explanation: "Overloaded agents resolve tickets more slowly",
		})
	}

	if in.ResolutionDue != nil {
		h, status := historyRisk(in.AvgResolutionMinutes, remaining)
		total += h
		factors = append(factors, RiskFactor{
			Factor:      "Historical Performance",
			Value:       status,
			Score:       h,
			Weight:      "10%",
			Explanation: "Past resolution times predict future performance",
		})
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return LiveRisk{Score: total, Level: LevelFor(total), Factors: factors}
}

// LevelFor buckets a score at 31, 61 and 86.
func LevelFor(score int) RiskLevel {
	switch {
	case score >= 86:
		return RiskCritical
	case score >= 61:
		return RiskHigh
	case score >= 31:
		return RiskMedium
	default:
		return RiskLow
	}
}

func deadlineRisk(remaining float64) (int, string) {
	switch {
	case remaining < 0:
		return 35, "BREACHED"
	case remaining < 30:
		return 30, fmt.Sprintf("%d min remaining - CRITICAL", int(remaining))
	case remaining < 120:
		return 20, fmt.Sprintf("%d min remaining - WARNING", int(remaining))
	case remaining < 360:
		return 10, fmt.Sprintf("%d min remaining", int(remaining))
	default:
		return 5, fmt.Sprintf("%d hours remaining", int(remaining/60))
	}
}

func assignmentRisk(assigned bool, status domain.TicketStatus) (int, string) {
	switch {
	case !assigned:
		return 15, "Unassigned - needs immediate attention"
	case status == domain.TicketStatusAssigned:
		return 10, "Assigned but not started"
	case status == domain.TicketStatusInProgress:
		return 3, "Agent actively working"
	default:
		return 0, "Being actively resolved"
	}
}

func workloadRisk(load int) (int, string) {
	switch {
	case load > 20:
		return 10, fmt.Sprintf("Very high workload (%d points)", load)
	case load > 10:
		return 5, fmt.Sprintf("High workload (%d points)", load)
	default:
		return 0, fmt.Sprintf("Manageable workload (%d points)", load)
	}
}

func historyRisk(avg *float64, remaining float64) (int, string) {
	switch {
	case avg != nil && *avg > 0 && *avg > remaining:
		return 10, fmt.Sprintf("Similar tickets avg %d min - likely to breach", int(*avg))
	case avg != nil && *avg > 0 && *avg > remaining*0.7:
		return 5, fmt.Sprintf("Similar tickets avg %d min - tight timeline", int(*avg))
	default:
		return 0, "Historical performance indicates on-time completion"
	}
}

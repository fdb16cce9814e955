package sla

import (
	"testing"
	"time"

	"github.com/spec-kit/resolveiq/internal/domain"
)

func TestEvaluateLiveRisk(t *testing.T) {
	now := created.Add(time.Hour)
	due := func(d time.Duration) *time.Time {
		at := now.Add(d)
		return &at
	}
	avg := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		in        LiveRiskInput
		wantScore int
		wantLevel RiskLevel
		factors   int
	}{
		{
			name:      "unassigned p1 already breached",
			in:        LiveRiskInput{Priority: domain.PriorityP1, Status: domain.TicketStatusOpen, ResolutionDue: due(-time.Minute), Now: now},
			wantScore: 80, // 30 + 35 + 15 + 0
			wantLevel: RiskHigh,
			factors:   4,
		},
		{
			name: "busy agent near deadline with slow history",
			in: LiveRiskInput{
				Priority: domain.PriorityP1, Status: domain.TicketStatusAssigned, Assigned: true,
				ResolutionDue: due(20 * time.Minute), AgentWorkload: 25, AvgResolutionMinutes: avg(45), Now: now,
			},
			wantScore: 90, // 30 + 30 + 10 + 10 + 10
			wantLevel: RiskCritical,
			factors:   5,
		},
		{
			name: "in progress with comfortable deadline",
			in: LiveRiskInput{
				Priority: domain.PriorityP3, Status: domain.TicketStatusInProgress, Assigned: true,
				ResolutionDue: due(10 * time.Hour), AgentWorkload: 12, AvgResolutionMinutes: avg(450), Now: now,
			},
			wantScore: 28, // 10 + 5 + 3 + 5 + 5
			wantLevel: RiskLow,
			factors:   5,
		},
		{
			name:      "no deadline skips proximity and history",
			in:        LiveRiskInput{Priority: domain.PriorityP4, Status: domain.TicketStatusPendingUser, Assigned: true, Now: now},
			wantScore: 5,
			wantLevel: RiskLow,
			factors:   3,
		},
		{
			name: "two hour window",
			in: LiveRiskInput{
				Priority: domain.PriorityP2, Status: domain.TicketStatusAssigned, Assigned: true,
				ResolutionDue: due(100 * time.Minute), Now: now,
			},
			wantScore: 50, // 20 + 20 + 10 + 0 + 0
			wantLevel: RiskMedium,
			factors:   5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateLiveRisk(tt.in)
			if got.Score != tt.wantScore || got.Level != tt.wantLevel {
				t.Errorf("risk = %d %s, want %d %s", got.Score, got.Level, tt.wantScore, tt.wantLevel)
			}
			if len(got.Factors) != tt.factors {
				t.Errorf("factors = %d, want %d", len(got.Factors), tt.factors)
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow}, {30, RiskLow}, {31, RiskMedium}, {60, RiskMedium},
		{61, RiskHigh}, {85, RiskHigh}, {86, RiskCritical}, {100, RiskCritical},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

package scoring

import (
	"context"
	"fmt"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// Strategy names.
const (
	StrategyFullAnalysis   = "full_analysis"
	StrategyQuickHeuristic = "quick_heuristic"
)

// TicketText is the input shared by all strategies.
type TicketText struct {
	Title       string
	Description string
	History     []HistoricalTicket
}

// Outcome is the strategy-independent part of a score, with the detailed
// result of whichever strategy ran.
type Outcome struct {
	Strategy   string                `json:"strategy"`
	Score      int                   `json:"score"`
	Priority   domain.TicketPriority `json:"priority"`
	BreachRisk float64               `json:"breach_risk"`
	Escalation bool                  `json:"escalation_required"`
	Full       *ScoreResult          `json:"full,omitempty"`
	Quick      *QuickResult          `json:"quick,omitempty"`
}

// Strategy scores a ticket. Callers choose one by context: QuickHeuristic at
// creation time, FullAnalysis for on-demand re-analysis.
type Strategy interface {
	Name() string
	Score(ctx context.Context, in TicketText) (*Outcome, error)
}

// FullAnalysis adapts Analyzer to Strategy.
type FullAnalysis struct {
	Analyzer *Analyzer
}

// Name implements Strategy.
func (FullAnalysis) Name() string { return StrategyFullAnalysis }

// Score implements Strategy.
func (f FullAnalysis) Score(ctx context.Context, in TicketText) (*Outcome, error) {
	if f.Analyzer == nil {
		return nil, fmt.Errorf("full analysis: analyzer not configured")
	}
	res, err := f.Analyzer.Analyze(ctx, in.Title, in.Description, in.History)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Strategy:   StrategyFullAnalysis,
		Score:      res.FinalRisk,
		Priority:   res.Priority,
		BreachRisk: float64(res.FinalRisk) / 100.0,
		Escalation: res.Priority == domain.PriorityP1 || res.Priority == domain.PriorityP2,
		Full:       res,
	}, nil
}

// QuickHeuristic adapts QuickScore to Strategy. It never fails.
type QuickHeuristic struct{}

// Name implements Strategy.
func (QuickHeuristic) Name() string { return StrategyQuickHeuristic }

// Score implements Strategy.
func (QuickHeuristic) Score(_ context.Context, in TicketText) (*Outcome, error) {
	res := QuickScore(in.Title, in.Description)
	return &Outcome{
		Strategy:   StrategyQuickHeuristic,
		Score:      res.Score,
		Priority:   res.Priority,
		BreachRisk: res.BreachRisk,
		Escalation: res.EscalationRequired,
		Quick:      &res,
	}, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// AnalysisRepository keeps the latest analysis per ticket.
type AnalysisRepository interface {
	// Upsert replaces any previous analysis of the same ticket.
	Upsert(ctx context.Context, analysis *domain.TicketAnalysis) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.TicketAnalysis, error)
}

type analysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository builds the repository.
func NewAnalysisRepository(pool *pgxpool.Pool) AnalysisRepository {
	return &analysisRepository{pool: pool}
}

func (r *analysisRepository) Upsert(ctx context.Context, a *domain.TicketAnalysis) error {
	const query = `
        INSERT INTO ticket_analysis (ticket_id, strategy, category, urgency_score, severity_score, similarity_risk,
            final_risk, priority, sla_policy_missing, explanation, analyzed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (ticket_id) DO UPDATE SET
            strategy=EXCLUDED.strategy,
            category=EXCLUDED.category,
            urgency_score=EXCLUDED.urgency_score,
            severity_score=EXCLUDED.severity_score,
            similarity_risk=EXCLUDED.similarity_risk,
            final_risk=EXCLUDED.final_risk,
            priority=EXCLUDED.priority,
            sla_policy_missing=EXCLUDED.sla_policy_missing,
            explanation=EXCLUDED.explanation,
            analyzed_at=EXCLUDED.analyzed_at
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		a.TicketID,
		a.Strategy,
		a.Category,
		a.UrgencyScore,
		a.SeverityScore,
		a.SimilarityRisk,
		a.FinalRisk,
		a.Priority,
		a.SLAPolicyMissing,
		a.Explanation,
		a.AnalyzedAt,
	).Scan(&a.ID)
}

func (r *analysisRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.TicketAnalysis, error) {
	const query = `
        SELECT id, ticket_id, strategy, category, urgency_score, severity_score, similarity_risk,
               final_risk, priority, sla_policy_missing, explanation, analyzed_at
        FROM ticket_analysis WHERE ticket_id=$1`
	var a domain.TicketAnalysis
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&a.ID,
		&a.TicketID,
		&a.Strategy,
		&a.Category,
		&a.UrgencyScore,
		&a.SeverityScore,
		&a.SimilarityRisk,
		&a.FinalRisk,
		&a.Priority,
		&a.SLAPolicyMissing,
		&a.Explanation,
		&a.AnalyzedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// SLAPolicyRepository stores ticket types and their (type, priority) budgets.
// It satisfies sla.PolicyLookup.
type SLAPolicyRepository interface {
	LookupPolicy(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SLAPolicy, error)
	Upsert(ctx context.Context, policy *domain.SLAPolicy) error
	ListByType(ctx context.Context, typeID string) ([]domain.SLAPolicy, error)
	CreateType(ctx context.Context, t *domain.TicketType) error
	GetType(ctx context.Context, id string) (*domain.TicketType, error)
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSLAPolicyRepository builds the repository.
func NewSLAPolicyRepository(pool *pgxpool.Pool) SLAPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

// LookupPolicy returns (nil, nil) when no policy exists for the pair.
func (r *slaPolicyRepository) LookupPolicy(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	const query = `
        SELECT id, type_id, priority, response_minutes, resolution_minutes, created_at
        FROM sla_policies WHERE type_id=$1 AND priority=$2`
	var p domain.SLAPolicy
	err := r.pool.QueryRow(ctx, query, typeID, priority).Scan(
		&p.ID,
		&p.TypeID,
		&p.Priority,
		&p.ResponseMinutes,
		&p.ResolutionMinutes,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *slaPolicyRepository) Upsert(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (type_id, priority, response_minutes, resolution_minutes)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (type_id, priority)
        DO UPDATE SET response_minutes=EXCLUDED.response_minutes, resolution_minutes=EXCLUDED.resolution_minutes
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		policy.TypeID,
		policy.Priority,
		policy.ResponseMinutes,
		policy.ResolutionMinutes,
	).Scan(&policy.ID, &policy.CreatedAt)
}

func (r *slaPolicyRepository) ListByType(ctx context.Context, typeID string) ([]domain.SLAPolicy, error) {
	const query = `
        SELECT id, type_id, priority, response_minutes, resolution_minutes, created_at
        FROM sla_policies WHERE type_id=$1 ORDER BY priority`
	rows, err := r.pool.Query(ctx, query, typeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var p domain.SLAPolicy
		if err := rows.Scan(&p.ID, &p.TypeID, &p.Priority, &p.ResponseMinutes, &p.ResolutionMinutes, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *slaPolicyRepository) CreateType(ctx context.Context, t *domain.TicketType) error {
	const query = `
        INSERT INTO ticket_types (name, is_active) VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, t.Name, t.IsActive).Scan(&t.ID, &t.CreatedAt)
}

func (r *slaPolicyRepository) GetType(ctx context.Context, id string) (*domain.TicketType, error) {
	const query = `SELECT id, name, is_active, created_at FROM ticket_types WHERE id=$1`
	var t domain.TicketType
	if err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

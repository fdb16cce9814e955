package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resolveiq/internal/domain"
)

const teamColumns = `id, department_id, name, description, is_active, created_at, updated_at`

// TeamRepository manages teams and their rosters.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	// ListActiveByDepartment returns teams in a stable order (creation, then id)
	// so that workload ties always resolve to the same team.
	ListActiveByDepartment(ctx context.Context, departmentID string) ([]domain.Team, error)
	// AddMember is idempotent.
	AddMember(ctx context.Context, teamID, staffID string) error
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository builds the repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (department_id, name, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, team.DepartmentID, team.Name, team.Description, team.IsActive).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=$1`, id)
	return scanTeam(row)
}

func (r *teamRepository) ListActiveByDepartment(ctx context.Context, departmentID string) ([]domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams
        WHERE department_id=$1 AND is_active=TRUE
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *team)
	}
	return result, rows.Err()
}

func (r *teamRepository) AddMember(ctx context.Context, teamID, staffID string) error {
	const query = `
        INSERT INTO team_members (team_id, staff_id) VALUES ($1,$2)
        ON CONFLICT (team_id, staff_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, teamID, staffID)
	return err
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	if err := row.Scan(
		&team.ID,
		&team.DepartmentID,
		&team.Name,
		&team.Description,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

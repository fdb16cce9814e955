package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/repository"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

// RosterService manages the organization tickets are routed through:
// departments, teams, staff and the SLA policy table.
type RosterService struct {
	departments repository.DepartmentRepository
	teams       repository.TeamRepository
	staff       repository.StaffRepository
	policies    repository.SLAPolicyRepository
}

// RosterDependencies bundles repositories.
type RosterDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	TeamRepo       repository.TeamRepository
	StaffRepo      repository.StaffRepository
	PolicyRepo     repository.SLAPolicyRepository
}

// NewRosterService creates the service.
func NewRosterService(deps RosterDependencies) *RosterService {
	return &RosterService{
		departments: deps.DepartmentRepo,
		teams:       deps.TeamRepo,
		staff:       deps.StaffRepo,
		policies:    deps.PolicyRepo,
	}
}

// CreateDepartment adds an active department.
func (s *RosterService) CreateDepartment(ctx context.Context, name, description string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	dept := &domain.Department{Name: name, Description: strings.TrimSpace(description), IsActive: true}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments lists departments by name.
func (s *RosterService) ListDepartments(ctx context.Context, includeInactive bool) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// SetDepartmentActive toggles whether a department accepts new tickets.
func (s *RosterService) SetDepartmentActive(ctx context.Context, id string, active bool) error {
	if err := s.departments.SetActive(ctx, id, active); err != nil {
		return notFoundOr(err, "department", map[string]any{"department_id": id})
	}
	return nil
}

// CreateTeam adds an active team to an active department.
func (s *RosterService) CreateTeam(ctx context.Context, departmentID, name, description string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, notFoundOr(err, "department", map[string]any{"department_id": departmentID})
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": departmentID})
	}
	team := &domain.Team{
		DepartmentID: dept.ID,
		Name:         name,
		Description:  strings.TrimSpace(description),
		IsActive:     true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// ListTeams lists the active teams of a department in routing order.
func (s *RosterService) ListTeams(ctx context.Context, departmentID string) ([]domain.Team, error) {
	teams, err := s.teams.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// StaffCreateInput describes a new staff member.
type StaffCreateInput struct {
	Name         string
	Email        string
	Role         domain.StaffRole
	DepartmentID *string
}

// CreateStaff adds an active staff member.
func (s *RosterService) CreateStaff(ctx context.Context, input StaffCreateInput) (*domain.StaffMember, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	role := input.Role
	if role == "" {
		role = domain.StaffRoleAgent
	}
	switch role {
	case domain.StaffRoleAgent, domain.StaffRoleTeamLead, domain.StaffRoleAdmin:
	default:
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return nil, notFoundOr(err, "department", map[string]any{"department_id": *input.DepartmentID})
		}
	}
	member := &domain.StaffMember{
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		Role:         role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// SetStaffActive toggles whether a staff member receives new tickets.
func (s *RosterService) SetStaffActive(ctx context.Context, id string, active bool) (*domain.StaffMember, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "staff", map[string]any{"staff_id": id})
	}
	member.Active = active
	if err := s.staff.Update(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// ListStaff lists staff members.
func (s *RosterService) ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	members, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// AddTeamMember puts a staff member on a team. Membership is idempotent.
func (s *RosterService) AddTeamMember(ctx context.Context, teamID, staffID string) error {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return notFoundOr(err, "team", map[string]any{"team_id": teamID})
	}
	if _, err := s.staff.GetByID(ctx, staffID); err != nil {
		return notFoundOr(err, "staff", map[string]any{"staff_id": staffID})
	}
	if err := s.teams.AddMember(ctx, teamID, staffID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// CreateTicketType registers a ticket type for policy selection.
func (s *RosterService) CreateTicketType(ctx context.Context, name string) (*domain.TicketType, error) {
	if s.policies == nil {
		return nil, apperrors.NewConflict("policy table is read-only", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	t := &domain.TicketType{Name: name, IsActive: true}
	if err := s.policies.CreateType(ctx, t); err != nil {
		return nil, apperrors.MapError(err)
	}
	return t, nil
}

// UpsertPolicy sets the response and resolution budgets for a type and
// priority.
func (s *RosterService) UpsertPolicy(ctx context.Context, policy domain.SLAPolicy) (*domain.SLAPolicy, error) {
	if s.policies == nil {
		return nil, apperrors.NewConflict("policy table is read-only", nil)
	}
	policy.Priority = domain.TicketPriority(strings.ToUpper(string(policy.Priority)))
	if !policy.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": policy.Priority})
	}
	if policy.ResponseMinutes < 0 || policy.ResolutionMinutes <= 0 {
		return nil, apperrors.NewValidationError("invalid budgets", map[string]any{
			"response_minutes":   policy.ResponseMinutes,
			"resolution_minutes": policy.ResolutionMinutes,
		})
	}
	if _, err := s.policies.GetType(ctx, policy.TypeID); err != nil {
		return nil, notFoundOr(err, "ticket_type", map[string]any{"type_id": policy.TypeID})
	}
	if err := s.policies.Upsert(ctx, &policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &policy, nil
}

// ListPolicies lists the policies of a ticket type.
func (s *RosterService) ListPolicies(ctx context.Context, typeID string) ([]domain.SLAPolicy, error) {
	if s.policies == nil {
		return nil, apperrors.NewConflict("policy table is read-only", nil)
	}
	policies, err := s.policies.ListByType(ctx, typeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

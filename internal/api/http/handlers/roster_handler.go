package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resolveiq/internal/api/dto"
	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/repository"
	"github.com/spec-kit/resolveiq/internal/service"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

// RosterHandler manages departments, teams, staff and SLA policies.
type RosterHandler struct {
	roster     RosterService
	assignment AssignmentService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(roster RosterService, assignment AssignmentService) *RosterHandler {
	return &RosterHandler{roster: roster, assignment: assignment}
}

// CreateDepartment POST /departments.
func (h *RosterHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.roster.CreateDepartment(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dept})
}

// ListDepartments GET /departments.
func (h *RosterHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.roster.ListDepartments(c.UserContext(), c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": depts})
}

// SetDepartmentActive PATCH /departments/:id.
func (h *RosterHandler) SetDepartmentActive(c *fiber.Ctx) error {
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.roster.SetDepartmentActive(c.UserContext(), c.Params("id"), req.Active); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTeam POST /departments/:id/teams.
func (h *RosterHandler) CreateTeam(c *fiber.Ctx) error {
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.roster.CreateTeam(c.UserContext(), c.Params("id"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": team})
}

// ListTeams GET /departments/:id/teams.
func (h *RosterHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.roster.ListTeams(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teams})
}

// Workloads GET /departments/:id/workloads.
func (h *RosterHandler) Workloads(c *fiber.Ctx) error {
	loads, err := h.assignment.DepartmentWorkloads(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loads})
}

// AddTeamMember POST /teams/:id/members.
func (h *RosterHandler) AddTeamMember(c *fiber.Ctx) error {
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil || req.StaffID == "" {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	if err := h.roster.AddTeamMember(c.UserContext(), c.Params("id"), req.StaffID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateStaff POST /staff.
func (h *RosterHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.roster.CreateStaff(c.UserContext(), service.StaffCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": member})
}

// ListStaff GET /staff.
func (h *RosterHandler) ListStaff(c *fiber.Ctx) error {
	filter := repository.StaffFilter{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: 0,
	}
	if v := c.Query("team_id"); v != "" {
		filter.TeamID = &v
	}
	if v := c.Query("department_id"); v != "" {
		filter.DepartmentID = &v
	}
	if v := c.Query("role"); v != "" {
		role := domain.StaffRole(v)
		filter.Role = &role
	}
	if v := c.Query("active"); v != "" {
		active := c.QueryBool("active")
		filter.Active = &active
	}
	filter.Offset = (parseInt(c.Query("page"), 1) - 1) * filter.Limit
	members, err := h.roster.ListStaff(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": members})
}

// SetStaffActive PATCH /staff/:id.
func (h *RosterHandler) SetStaffActive(c *fiber.Ctx) error {
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.roster.SetStaffActive(c.UserContext(), c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": member})
}

// CreateTicketType POST /ticket-types.
func (h *RosterHandler) CreateTicketType(c *fiber.Ctx) error {
	var req dto.CreateTicketTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	t, err := h.roster.CreateTicketType(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": t})
}

// UpsertPolicy PUT /ticket-types/:id/policies.
func (h *RosterHandler) UpsertPolicy(c *fiber.Ctx) error {
	var req dto.UpsertPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	policy, err := h.roster.UpsertPolicy(c.UserContext(), domain.SLAPolicy{
		TypeID:            c.Params("id"),
		Priority:          req.Priority,
		ResponseMinutes:   req.ResponseMinutes,
		ResolutionMinutes: req.ResolutionMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policy})
}

// ListPolicies GET /ticket-types/:id/policies.
func (h *RosterHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.roster.ListPolicies(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policies})
}

package dto

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// CreateTicketRequest payload. RequesterID is honored only for staff and
// system callers filing on behalf of someone.
type CreateTicketRequest struct {
	RequesterID  string  `json:"requester_id"`
	DepartmentID string  `json:"department_id"`
	TypeID       *string `json:"type_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
	Reason   string                `json:"reason"`
}

// AssignRequest payload for manual assignment.
type AssignRequest struct {
	StaffID string `json:"staff_id"`
}

// ScoreTextRequest scores free text without creating a ticket.
type ScoreTextRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID                 string                `json:"id"`
	ExternalKey        string                `json:"external_key"`
	RequesterID        string                `json:"requester_id,omitempty"`
	DepartmentID       string                `json:"department_id"`
	TypeID             *string               `json:"type_id"`
	TeamID             *string               `json:"team_id"`
	AssigneeID         *string               `json:"assignee_id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Status             domain.TicketStatus   `json:"status"`
	Priority           domain.TicketPriority `json:"priority"`
	AIScore            int                   `json:"ai_score"`
	BreachRisk         float64               `json:"breach_risk"`
	EscalationRequired bool                  `json:"escalation_required"`
	SLAHours           *int                  `json:"sla_hours"`
	ResponseDueAt      *time.Time            `json:"response_due_at"`
	ResolutionDueAt    *time.Time            `json:"resolution_due_at"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	ResolvedAt         *time.Time            `json:"resolved_at"`
	ClosedAt           *time.Time            `json:"closed_at"`
}

// AnalysisResponse is the stored analysis of a ticket.
type AnalysisResponse struct {
	TicketID         string                `json:"ticket_id"`
	Strategy         string                `json:"strategy"`
	Category         string                `json:"category"`
	UrgencyScore     int                   `json:"urgency_score"`
	SeverityScore    int                   `json:"severity_score"`
	SimilarityRisk   int                   `json:"similarity_risk"`
	FinalRisk        int                   `json:"final_risk"`
	Priority         domain.TicketPriority `json:"priority"`
	SLAPolicyMissing bool                  `json:"sla_policy_missing"`
	Explanation      json.RawMessage       `json:"explanation"`
	AnalyzedAt       time.Time             `json:"analyzed_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                 t.ID,
		ExternalKey:        t.ExternalKey,
		RequesterID:        t.RequesterID,
		DepartmentID:       t.DepartmentID,
		TypeID:             t.TypeID,
		TeamID:             t.TeamID,
		AssigneeID:         t.AssigneeID,
		Title:              t.Title,
		Description:        t.Description,
		Status:             t.Status,
		Priority:           t.Priority,
		AIScore:            t.AIScore,
		BreachRisk:         t.BreachRisk,
		EscalationRequired: t.EscalationRequired,
		SLAHours:           t.SLAHours,
		ResponseDueAt:      t.ResponseDueAt,
		ResolutionDueAt:    t.ResolutionDueAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		ResolvedAt:         t.ResolvedAt,
		ClosedAt:           t.ClosedAt,
	}
}

// NewAnalysisResponse maps a stored analysis.
func NewAnalysisResponse(a *domain.TicketAnalysis) AnalysisResponse {
	return AnalysisResponse{
		TicketID:         a.TicketID,
		Strategy:         a.Strategy,
		Category:         a.Category,
		UrgencyScore:     a.UrgencyScore,
		SeverityScore:    a.SeverityScore,
		SimilarityRisk:   a.SimilarityRisk,
		FinalRisk:        a.FinalRisk,
		Priority:         a.Priority,
		SLAPolicyMissing: a.SLAPolicyMissing,
		Explanation:      json.RawMessage(a.Explanation),
		AnalyzedAt:       a.AnalyzedAt,
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resolveiq/internal/api/dto"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

// AnalysisHandler exposes risk scoring.
type AnalysisHandler struct {
	analysis AnalysisService
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analysis AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// Analyze POST /tickets/:id/analyze.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	res, err := h.analysis.Analyze(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"ticket":   dto.NewTicketResponse(res.Ticket),
			"analysis": dto.NewAnalysisResponse(res.Analysis),
			"outcome":  res.Outcome,
		},
	})
}

// GetAnalysis GET /tickets/:id/analysis.
func (h *AnalysisHandler) GetAnalysis(c *fiber.Ctx) error {
	analysis, err := h.analysis.GetAnalysis(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAnalysisResponse(analysis)})
}

// Preview POST /scoring/preview runs the full analysis on free text.
func (h *AnalysisHandler) Preview(c *fiber.Ctx) error {
	req, err := parseScoreText(c)
	if err != nil {
		return err
	}
	outcome, err := h.analysis.ScoreText(c.UserContext(), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcome})
}

// QuickScore POST /scoring/quick runs the keyword heuristic on free text. Empty
// text is valid and scores the baseline.
func (h *AnalysisHandler) QuickScore(c *fiber.Ctx) error {
	req, err := parseScoreText(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.analysis.QuickScore(c.UserContext(), req.Title, req.Description)})
}

func parseScoreText(c *fiber.Ctx) (dto.ScoreTextRequest, error) {
	var req dto.ScoreTextRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	return req, nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/embedding"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/observability"
	"github.com/spec-kit/resolveiq/internal/repository"
	"github.com/spec-kit/resolveiq/internal/scoring"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

const (
	defaultHistoryLimit = 200

	// CreationQuick and CreationFull select the scorer used at ticket intake.
	CreationQuick = "quick"
	CreationFull  = "full"
)

// AnalysisService runs risk analysis on tickets and stores the outcome.
type AnalysisService struct {
	tickets          repository.TicketRepository
	analyses         repository.AnalysisRepository
	full             scoring.Strategy
	quick            scoring.Strategy
	slas             *SLAService
	metrics          *observability.Metrics
	logger           *zap.Logger
	now              Clock
	historyLimit     int
	fallbackToQuick  bool
	creationStrategy string
	events           publisher
}

// AnalysisDependencies bundles collaborators. Full defaults to a
// FullAnalysis without an embedder, which fails whenever history exists.
type AnalysisDependencies struct {
	TicketRepo       repository.TicketRepository
	AnalysisRepo     repository.AnalysisRepository
	Full             scoring.Strategy
	Quick            scoring.Strategy
	SLA              *SLAService
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Clock            Clock
	HistoryLimit     int
	FallbackToQuick  bool
	CreationStrategy string
}

// NewAnalysisService creates the service.
func NewAnalysisService(deps AnalysisDependencies) *AnalysisService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	full := deps.Full
	if full == nil {
		full = scoring.FullAnalysis{Analyzer: scoring.NewAnalyzer(nil, 0)}
	}
	quick := deps.Quick
	if quick == nil {
		quick = scoring.QuickHeuristic{}
	}
	limit := deps.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	creation := strings.ToLower(deps.CreationStrategy)
	if creation != CreationFull {
		creation = CreationQuick
	}
	return &AnalysisService{
		tickets:          deps.TicketRepo,
		analyses:         deps.AnalysisRepo,
		full:             full,
		quick:            quick,
		slas:             deps.SLA,
		metrics:          deps.Metrics,
		logger:           logger,
		now:              now,
		historyLimit:     limit,
		fallbackToQuick:  deps.FallbackToQuick,
		creationStrategy: creation,
		events:           publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
	}
}

// AnalysisResult is the outcome of an on-demand analysis.
type AnalysisResult struct {
	Ticket   *domain.Ticket         `json:"ticket"`
	Analysis *domain.TicketAnalysis `json:"analysis"`
	Outcome  *scoring.Outcome       `json:"outcome"`
}

// Analyze scores a ticket against the recently resolved corpus, updates its
// priority and deadlines and stores the analysis, replacing any earlier one.
// Terminal tickets are rejected with CONFLICT.
func (s *AnalysisService) Analyze(ctx context.Context, ticketID string) (*AnalysisResult, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	// Closed tickets are history; rescoring them would rewrite their breach label.
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}
	history, err := s.loadHistory(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	in := scoring.TicketText{Title: ticket.Title, Description: ticket.Description, History: history}

	outcome, err := s.full.Score(ctx, in)
	if err != nil {
		if !errors.Is(err, embedding.ErrUnavailable) {
			s.recordAnalysis(s.full.Name(), "error")
			return nil, apperrors.MapError(err)
		}
		s.recordAnalysis(s.full.Name(), "unavailable")
		if !s.fallbackToQuick {
			return nil, apperrors.NewDependencyUnavailable("embedding", err)
		}
		s.logger.Warn("embedding unavailable, falling back to quick heuristic",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		if outcome, err = s.quick.Score(ctx, in); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	oldPriority := ticket.Priority
	ticket.Priority = outcome.Priority
	ticket.AIScore = outcome.Score
	ticket.BreachRisk = outcome.BreachRisk
	ticket.EscalationRequired = outcome.Escalation

	policyMissing := false
	if s.slas != nil {
		if policyMissing, err = s.slas.ApplyDeadlines(ctx, ticket, outcome.Strategy); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	analysis, err := s.buildAnalysis(ticket, outcome, policyMissing)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.analyses.Upsert(ctx, analysis); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAnalysis(outcome.Strategy, "ok")

	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketAnalyzed,
		TicketID: ticket.ID,
		Actor:    events.SystemActor,
		Payload: events.TicketAnalyzedPayload{
			Strategy:         outcome.Strategy,
			Category:         analysis.Category,
			FinalRisk:        outcome.Score,
			Priority:         outcome.Priority,
			SLAPolicyMissing: policyMissing,
		},
	})
	if oldPriority != ticket.Priority {
		s.events.publish(ctx, events.Event{
			Type:     events.EventTicketPriorityChanged,
			TicketID: ticket.ID,
			Actor:    events.SystemActor,
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: ticket.Priority,
				Reason:      outcome.Strategy,
			},
		})
	}
	return &AnalysisResult{Ticket: ticket, Analysis: analysis, Outcome: outcome}, nil
}

// GetAnalysis returns the stored analysis of a ticket.
func (s *AnalysisService) GetAnalysis(ctx context.Context, ticketID string) (*domain.TicketAnalysis, error) {
	analysis, err := s.analyses.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "analysis", map[string]any{"ticket_id": ticketID})
	}
	return analysis, nil
}

// ScoreText runs the full analysis on free text without touching any ticket.
func (s *AnalysisService) ScoreText(ctx context.Context, title, description string) (*scoring.Outcome, error) {
	history, err := s.loadHistory(ctx, "")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	outcome, err := s.full.Score(ctx, scoring.TicketText{Title: title, Description: description, History: history})
	if err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			return nil, apperrors.NewDependencyUnavailable("embedding", err)
		}
		return nil, apperrors.MapError(err)
	}
	return outcome, nil
}

// QuickScore runs the keyword heuristic on free text.
func (s *AnalysisService) QuickScore(ctx context.Context, title, description string) *scoring.Outcome {
	outcome, _ := s.quick.Score(ctx, scoring.TicketText{Title: title, Description: description})
	return outcome
}

// ScoreForCreation scores a ticket that does not exist yet. With the full
// creation strategy an unavailable embedding backend degrades to the quick
// heuristic so that intake never fails on it.
func (s *AnalysisService) ScoreForCreation(ctx context.Context, title, description string) (*scoring.Outcome, error) {
	in := scoring.TicketText{Title: title, Description: description}
	if s.creationStrategy == CreationQuick {
		return s.quick.Score(ctx, in)
	}
	history, err := s.loadHistory(ctx, "")
	if err != nil {
		return nil, err
	}
	in.History = history
	outcome, err := s.full.Score(ctx, in)
	if err == nil {
		return outcome, nil
	}
	if !errors.Is(err, embedding.ErrUnavailable) {
		return nil, err
	}
	s.recordAnalysis(s.full.Name(), "unavailable")
	s.logger.Warn("embedding unavailable at intake, using quick heuristic", zap.Error(err))
	return s.quick.Score(ctx, in)
}

func (s *AnalysisService) loadHistory(ctx context.Context, excludeID string) ([]scoring.HistoricalTicket, error) {
	resolved, err := s.tickets.ListRecentlyResolved(ctx, s.historyLimit+1)
	if err != nil {
		return nil, err
	}
	history := make([]scoring.HistoricalTicket, 0, len(resolved))
	for i := range resolved {
		t := &resolved[i]
		if t.ID == excludeID {
			continue
		}
		if len(history) == s.historyLimit {
			break
		}
		history = append(history, scoring.HistoricalTicket{
			ID:       t.ID,
			Text:     t.Title + " " + t.Description,
			Breached: t.Breached(),
		})
	}
	return history, nil
}

func (s *AnalysisService) buildAnalysis(ticket *domain.Ticket, outcome *scoring.Outcome, policyMissing bool) (*domain.TicketAnalysis, error) {
	analysis := &domain.TicketAnalysis{
		TicketID:         ticket.ID,
		Strategy:         outcome.Strategy,
		FinalRisk:        outcome.Score,
		Priority:         outcome.Priority,
		SLAPolicyMissing: policyMissing,
		AnalyzedAt:       s.now(),
	}
	var explanation any
	if outcome.Full != nil {
		analysis.Category = outcome.Full.Category
		analysis.UrgencyScore = outcome.Full.Urgency
		analysis.SeverityScore = outcome.Full.Severity
		analysis.SimilarityRisk = outcome.Full.SimilarityRisk
		explanation = outcome.Full.Explanation
	} else {
		analysis.Category = scoring.Classify(scoring.Normalize(ticket.Title + " " + ticket.Description)).Category
		explanation = outcome.Quick
	}
	raw, err := json.Marshal(explanation)
	if err != nil {
		return nil, err
	}
	analysis.Explanation = raw
	return analysis, nil
}

func (s *AnalysisService) recordAnalysis(strategy, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAnalysis(strategy, outcome)
	}
}

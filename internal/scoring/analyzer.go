package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/embedding"
)

// DefaultEmbedTimeout bounds the embedding call of one analysis.
const DefaultEmbedTimeout = 10 * time.Second

const reasonEmptyText = "Ticket text is empty -> similarity risk = 0"

// HistoricalTicket is a resolved ticket projected to its text and breach outcome.
type HistoricalTicket struct {
	ID       string
	Text     string
	Breached bool
}

// ScoreResult is the output of one full analysis. It is plain data; callers
// persist or discard it.
type ScoreResult struct {
	Category        string                `json:"category"`
	CategoryKeyword string                `json:"category_keyword,omitempty"`
	Urgency         int                   `json:"urgency"`
	Severity        int                   `json:"severity"`
	SimilarityRisk  int                   `json:"similarity_risk"`
	FinalRisk       int                   `json:"final_risk"`
	Priority        domain.TicketPriority `json:"priority"`
	Neighbors       []Neighbor            `json:"neighbors"`
	Explanation     Explanation           `json:"explanation"`
}

// Analyzer runs the full pipeline: normalize, classify, keyword scores,
// similarity against history, fusion and priority.
type Analyzer struct {
	embedder embedding.Embedder
	timeout  time.Duration
}

// NewAnalyzer builds an Analyzer. The embedder is shared and must be safe for
// concurrent use.
func NewAnalyzer(embedder embedding.Embedder, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	return &Analyzer{embedder: embedder, timeout: timeout}
}

// Analyze scores one ticket against the historical corpus. Empty text is valid
// and scores 0 in category Other. The only failure is an unavailable embedding
// backend, reported as embedding.ErrUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, title, description string, history []HistoricalTicket) (*ScoreResult, error) {
	text := Normalize(ticketText(title, description))

	category := Classify(text)
	urgency := ScoreKeywords(text, UrgencyKeywords)
	severity := ScoreKeywords(text, SeverityKeywords)

	similarity, err := a.similarity(ctx, text, history)
	if err != nil {
		return nil, err
	}

	final := FuseRisk(urgency.Score, severity.Score, similarity.Risk)
	return &ScoreResult{
		Category:        category.Category,
		CategoryKeyword: category.Keyword,
		Urgency:         urgency.Score,
		Severity:        severity.Score,
		SimilarityRisk:  similarity.Risk,
		FinalRisk:       final,
		Priority:        PriorityForRisk(final),
		Neighbors:       similarity.Neighbors,
		Explanation:     buildExplanation(category, urgency, severity, similarity, final),
	}, nil
}

func (a *Analyzer) similarity(ctx context.Context, text string, history []HistoricalTicket) (SimilarityResult, error) {
	docs := make([]embedding.Document, 0, len(history)+1)
	docs = append(docs, embedding.Document{Text: text})
	labels := make([]HistoricalTicket, 0, len(history))
	for _, h := range history {
		normalized := Normalize(h.Text)
		if normalized == "" {
			continue
		}
		docs = append(docs, embedding.Document{Key: h.ID, Text: normalized})
		labels = append(labels, h)
	}

	if len(labels) == 0 {
		return SimilarityRisk(nil, nil), nil
	}
	if text == "" {
		return SimilarityResult{Neighbors: []Neighbor{}, Reasons: []string{reasonEmptyText}}, nil
	}
	if a.embedder == nil {
		return SimilarityResult{}, embedding.Unavailable(fmt.Errorf("no embedder configured"))
	}

	embedCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	vectors, err := a.embedder.EmbedDocuments(embedCtx, docs)
	if err != nil {
		return SimilarityResult{}, embedding.Unavailable(err)
	}
	if len(vectors) != len(docs) {
		return SimilarityResult{}, embedding.Unavailable(fmt.Errorf("expected %d vectors, got %d", len(docs), len(vectors)))
	}

	historical := make([]HistoricalVector, len(labels))
	for i, h := range labels {
		historical[i] = HistoricalVector{Ref: h.ID, Vector: vectors[i+1], Breached: h.Breached}
	}
	return SimilarityRisk(vectors[0], historical), nil
}

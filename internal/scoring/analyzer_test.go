package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/embedding"
)

// stubEmbedder returns a fixed vector per text, or a unit vector for unknown text.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
	lastLen int
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, docs []embedding.Document) ([][]float32, error) {
	s.calls++
	s.lastLen = len(docs)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(docs))
	for i, d := range docs {
		if v, ok := s.vectors[d.Text]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

const (
	outageTitle = "Server is down, production impacted"
	outageDesc  = "cannot login, urgent"
)

func TestAnalyzeWithoutHistory(t *testing.T) {
	stub := &stubEmbedder{}
	res, err := NewAnalyzer(stub, 0).Analyze(context.Background(), outageTitle, outageDesc, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("embedder called %d times without history", stub.calls)
	}
	if res.Category != "Access/Login Issue" || res.CategoryKeyword != "login" {
		t.Errorf("category = %q/%q", res.Category, res.CategoryKeyword)
	}
	if res.Urgency != 100 || res.Severity != 0 || res.SimilarityRisk != 0 {
		t.Errorf("scores = %d/%d/%d, want 100/0/0", res.Urgency, res.Severity, res.SimilarityRisk)
	}
	if res.FinalRisk != 35 || res.Priority != domain.PriorityP4 {
		t.Errorf("final = %d %s, want 35 P4", res.FinalRisk, res.Priority)
	}
	if res.Explanation.FinalFormula != FusionFormula {
		t.Errorf("formula = %q", res.Explanation.FinalFormula)
	}
	if res.Explanation.Scores.FinalRisk != res.FinalRisk {
		t.Errorf("explanation scores out of sync: %+v", res.Explanation.Scores)
	}
	if len(res.Explanation.SimilarityReasoning) != 1 || res.Explanation.SimilarityReasoning[0] != reasonNoHistory {
		t.Errorf("similarity reasoning = %v", res.Explanation.SimilarityReasoning)
	}
}

func TestAnalyzeWithBreachedTwin(t *testing.T) {
	stub := &stubEmbedder{}
	history := []HistoricalTicket{{ID: "h-1", Text: outageTitle + " " + outageDesc, Breached: true}}

	res, err := NewAnalyzer(stub, 0).Analyze(context.Background(), outageTitle, outageDesc, history)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if stub.calls != 1 || stub.lastLen != 2 {
		t.Fatalf("embedder calls = %d docs = %d, want 1 call with 2 docs", stub.calls, stub.lastLen)
	}
	if res.SimilarityRisk != 100 {
		t.Errorf("similarity risk = %d, want 100", res.SimilarityRisk)
	}
	if res.FinalRisk != 65 || res.Priority != domain.PriorityP2 {
		t.Errorf("final = %d %s, want 65 P2", res.FinalRisk, res.Priority)
	}
	if len(res.Neighbors) != 1 || res.Neighbors[0].Ref != "h-1" {
		t.Errorf("neighbors = %+v", res.Neighbors)
	}
}

func TestAnalyzeSkipsBlankHistory(t *testing.T) {
	stub := &stubEmbedder{}
	history := []HistoricalTicket{{ID: "h-1", Text: "  !!  "}, {ID: "h-2", Text: ""}}

	res, err := NewAnalyzer(stub, 0).Analyze(context.Background(), "vpn down", "", history)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("embedder called for blank history")
	}
	if res.SimilarityRisk != 0 {
		t.Errorf("similarity risk = %d, want 0", res.SimilarityRisk)
	}
}

func TestAnalyzeEmptyTicket(t *testing.T) {
	stub := &stubEmbedder{}
	history := []HistoricalTicket{{ID: "h-1", Text: "printer broken", Breached: true}}

	res, err := NewAnalyzer(stub, 0).Analyze(context.Background(), "", "", history)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("embedder called for empty ticket")
	}
	if res.Category != CategoryOther || res.FinalRisk != 0 || res.Priority != domain.PriorityP4 {
		t.Errorf("result = %s %d %s", res.Category, res.FinalRisk, res.Priority)
	}
}

func TestAnalyzeEmbedderFailure(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("connection refused")}
	history := []HistoricalTicket{{ID: "h-1", Text: "printer broken", Breached: true}}

	_, err := NewAnalyzer(stub, 0).Analyze(context.Background(), "printer broken", "", history)
	if !errors.Is(err, embedding.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestAnalyzeWithoutEmbedder(t *testing.T) {
	history := []HistoricalTicket{{ID: "h-1", Text: "printer broken"}}
	_, err := NewAnalyzer(nil, 0).Analyze(context.Background(), "printer broken", "", history)
	if !errors.Is(err, embedding.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	stub := &stubEmbedder{vectors: map[string][]float32{
		"printer broken": {0, 1, 0},
		"vpn down":       {0.6, 0.8, 0},
	}}
	history := []HistoricalTicket{
		{ID: "a", Text: "printer broken", Breached: true},
		{ID: "b", Text: "vpn down", Breached: false},
	}
	a := NewAnalyzer(stub, 0)
	first, err := a.Analyze(context.Background(), "Printer", "broken again", history)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := a.Analyze(context.Background(), "Printer", "broken again", history)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.FinalRisk != second.FinalRisk || first.SimilarityRisk != second.SimilarityRisk {
		t.Fatalf("results differ: %d/%d vs %d/%d", first.FinalRisk, first.SimilarityRisk, second.FinalRisk, second.SimilarityRisk)
	}
}

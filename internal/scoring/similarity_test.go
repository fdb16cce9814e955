package scoring

import (
	"math"
	"strings"
	"testing"
)

func TestSimilarityRiskEmptyHistory(t *testing.T) {
	got := SimilarityRisk([]float32{1, 0}, nil)
	if got.Risk != 0 {
		t.Fatalf("risk = %d, want 0", got.Risk)
	}
	if len(got.Reasons) != 1 || !strings.Contains(got.Reasons[0], "no history") {
		t.Fatalf("reasons = %v, want a no history reason", got.Reasons)
	}
}

func TestSimilarityRiskIdenticalBreachedNeighbor(t *testing.T) {
	vec := []float32{0.2, 0.4, 0.4}
	got := SimilarityRisk(vec, []HistoricalVector{{Vector: vec, Breached: true}})
	if got.Risk != 100 {
		t.Fatalf("risk = %d, want 100", got.Risk)
	}
	if len(got.Neighbors) != 1 || math.Abs(got.Neighbors[0].Similarity-1) > 1e-9 {
		t.Fatalf("neighbors = %+v", got.Neighbors)
	}
}

func TestSimilarityRiskWeightedRate(t *testing.T) {
	query := []float32{1, 0}
	history := []HistoricalVector{
		{Ref: "a", Vector: []float32{1, 0}, Breached: true},  // sim 1.0
		{Ref: "b", Vector: []float32{0, 1}, Breached: true},  // sim 0.0
		{Ref: "c", Vector: []float32{1, 1}, Breached: false}, // sim 0.7071
	}
	got := SimilarityRisk(query, history)
	// 100 * 1.0 / (1.0 + 0.7071 + 0) = 58.57
	if got.Risk != 58 {
		t.Fatalf("risk = %d, want 58", got.Risk)
	}
	if got.Neighbors[0].Ref != "a" || got.Neighbors[1].Ref != "c" || got.Neighbors[2].Ref != "b" {
		t.Fatalf("neighbors not ordered by similarity: %+v", got.Neighbors)
	}
	if len(got.Reasons) != 3 {
		t.Fatalf("reasons = %v", got.Reasons)
	}
}

func TestSimilarityRiskKeepsTopFiveWithStableTies(t *testing.T) {
	query := []float32{1, 0}
	var history []HistoricalVector
	for i := 0; i < 7; i++ {
		history = append(history, HistoricalVector{Ref: string(rune('a' + i)), Vector: []float32{1, 0}, Breached: i >= 5})
	}
	got := SimilarityRisk(query, history)
	if len(got.Neighbors) != NeighborCount {
		t.Fatalf("neighbors = %d, want %d", len(got.Neighbors), NeighborCount)
	}
	for i, n := range got.Neighbors {
		if n.Index != i {
			t.Fatalf("tie order broken at %d: %+v", i, n)
		}
	}
	// The breached entries sit at positions 5 and 6 and fall outside the top five.
	if got.Risk != 0 {
		t.Fatalf("risk = %d, want 0", got.Risk)
	}
}

func TestSimilarityRiskZeroWeights(t *testing.T) {
	got := SimilarityRisk([]float32{1, 0}, []HistoricalVector{
		{Vector: []float32{0, 1}, Breached: true},
		{Vector: []float32{0, 0}, Breached: true},
	})
	if got.Risk != 0 {
		t.Fatalf("risk = %d, want 0", got.Risk)
	}
	if got.Reasons[0] != reasonZeroWeight {
		t.Fatalf("reasons = %v", got.Reasons)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

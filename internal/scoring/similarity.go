package scoring

import (
	"fmt"
	"math"
	"sort"
)

// NeighborCount is how many nearest historical tickets feed the estimate.
const NeighborCount = 5

const (
	reasonNoHistory  = "No historical resolved tickets found -> similarity risk = 0 (no history)"
	reasonZeroWeight = "All similarity weights are 0 -> similarity risk = 0"
)

// HistoricalVector is an embedded resolved ticket with its breach outcome.
type HistoricalVector struct {
	Ref      string
	Vector   []float32
	Breached bool
}

// Neighbor is one of the selected nearest historical tickets.
type Neighbor struct {
	Index      int     `json:"index"`
	Ref        string  `json:"ref,omitempty"`
	Similarity float64 `json:"similarity"`
	Breached   bool    `json:"breached"`
}

// SimilarityResult is the similarity-weighted breach rate of the nearest tickets.
type SimilarityResult struct {
	Risk      int        `json:"risk"`
	Neighbors []Neighbor `json:"neighbors"`
	Reasons   []string   `json:"reasons"`
}

// SimilarityRisk estimates breach risk as 100 * Σ(sim*breached) / Σ sim over the
// NeighborCount most similar historical tickets. Ties keep history order.
func SimilarityRisk(vector []float32, history []HistoricalVector) SimilarityResult {
	if len(history) == 0 {
		return SimilarityResult{Neighbors: []Neighbor{}, Reasons: []string{reasonNoHistory}}
	}

	candidates := make([]Neighbor, len(history))
	for i, h := range history {
		candidates[i] = Neighbor{
			Index:      i,
			Ref:        h.Ref,
			Similarity: CosineSimilarity(vector, h.Vector),
			Breached:   h.Breached,
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > NeighborCount {
		candidates = candidates[:NeighborCount]
	}

	var weighted, total float64
	reasons := make([]string, 0, len(candidates))
	for _, n := range candidates {
		label := 0
		if n.Breached {
			label = 1
		}
		total += n.Similarity
		weighted += n.Similarity * float64(label)
		reasons = append(reasons, fmt.Sprintf("Similarity %.2f to historical ticket #%d (breach=%d)", n.Similarity, n.Index, label))
	}

	if total <= 0 {
		return SimilarityResult{Neighbors: candidates, Reasons: []string{reasonZeroWeight}}
	}

	risk := clampScore(int(weighted / total * 100))
	return SimilarityResult{Risk: risk, Neighbors: candidates, Reasons: reasons}
}

// CosineSimilarity returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package scoring

import "github.com/spec-kit/resolveiq/internal/domain"

// Fusion weights in hundredths. Keyword signals count more than history.
const (
	urgencyWeight    = 35
	severityWeight   = 35
	similarityWeight = 30
)

// FusionFormula documents the weighting in explanations.
const FusionFormula = "0.35*urgency + 0.35*severity + 0.30*similarity_risk"

// Priority tier lower bounds on the final risk. Each bound is inclusive.
const (
	p1Threshold = 80
	p2Threshold = 60
	p3Threshold = 40
)

// FuseRisk returns floor(min(100, 0.35u + 0.35s + 0.30r)). Inputs are clamped to
// [0,100] first and the sum is kept in integer hundredths so tier boundaries
// never suffer float rounding.
func FuseRisk(urgency, severity, similarity int) int {
	hundredths := urgencyWeight*clampScore(urgency) +
		severityWeight*clampScore(severity) +
		similarityWeight*clampScore(similarity)
	return clampScore(hundredths / 100)
}

// PriorityForRisk maps the final risk onto P1..P4.
func PriorityForRisk(risk int) domain.TicketPriority {
	switch {
	case risk >= p1Threshold:
		return domain.PriorityP1
	case risk >= p2Threshold:
		return domain.PriorityP2
	case risk >= p3Threshold:
		return domain.PriorityP3
	default:
		return domain.PriorityP4
	}
}

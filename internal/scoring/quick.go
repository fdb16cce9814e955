package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/resolveiq/internal/domain"
)

// Tier lists for the creation-time heuristic. Matching is on whole words.
var (
	quickCritical = []string{"crash", "security", "breach", "down", "emergency", "outage", "unauthorized", "leak"}
	quickHigh     = []string{"error", "failed", "issue", "bug", "broken", "urgent", "slow", "slowdown", "missing"}
	quickMedium   = []string{"help", "request", "install", "update", "access", "setup"}

	// Any of these pushes breach risk to at least quickSecurityRiskFloor.
	quickSecurityTerms = []string{"security", "breach", "unauthorized", "leak"}
)

const (
	quickBaseline          = 10
	quickSecurityRiskFloor = 0.8
)

type quickTier struct {
	name     string
	base     int
	perMatch int
	patterns []*regexp.Regexp
	words    []string
}

var quickTiers = []quickTier{
	newQuickTier("critical", 50, 10, quickCritical),
	newQuickTier("high", 30, 5, quickHigh),
	newQuickTier("medium", 10, 2, quickMedium),
}

// nonWord is a Unicode-aware word boundary; RE2's \b only knows ASCII, so
// "crashé" would otherwise match "crash".
const nonWord = `[^\p{L}\p{N}_]`

func newQuickTier(name string, base, perMatch int, words []string) quickTier {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`(?:^|` + nonWord + `)` + regexp.QuoteMeta(w) + `(?:` + nonWord + `|$)`)
	}
	return quickTier{name: name, base: base, perMatch: perMatch, patterns: patterns, words: words}
}

// QuickResult is the creation-time score.
type QuickResult struct {
	Score              int                   `json:"score"`
	Priority           domain.TicketPriority `json:"priority"`
	BreachRisk         float64               `json:"breach_risk"`
	EscalationRequired bool                  `json:"escalation_required"`
	Tier               string                `json:"tier,omitempty"`
	Matches            []string              `json:"matches"`
	Reasons            []string              `json:"reasons"`
}

// QuickScore is the keyword-only bootstrap scorer used before any analysis has
// run. It needs no history and no embeddings.
func QuickScore(title, description string) QuickResult {
	text := strings.ToLower(ticketText(title, description))

	result := QuickResult{Matches: []string{}, Reasons: []string{}}
	score := quickBaseline
	for _, tier := range quickTiers {
		matches := tier.match(text)
		if len(matches) == 0 {
			continue
		}
		score += tier.base + len(matches)*tier.perMatch
		result.Tier = tier.name
		result.Matches = matches
		result.Reasons = append(result.Reasons, fmt.Sprintf("Found %s keywords: %s", tier.name, strings.Join(matches, ", ")))
		break
	}
	if result.Tier == "" {
		result.Reasons = append(result.Reasons, "No priority keywords found")
	}

	result.Score = clampScore(score)
	result.Priority = quickPriority(result.Score)

	result.BreachRisk = float64(result.Score) / 100.0
	for _, term := range quickSecurityTerms {
		if strings.Contains(text, term) {
			if result.BreachRisk < quickSecurityRiskFloor {
				result.BreachRisk = quickSecurityRiskFloor
			}
			result.Reasons = append(result.Reasons, "Security-sensitive wording raises breach risk")
			break
		}
	}

	result.EscalationRequired = result.Priority == domain.PriorityP1 || result.Priority == domain.PriorityP2
	return result
}

func (t quickTier) match(text string) []string {
	var matched []string
	for i, re := range t.patterns {
		if re.MatchString(text) {
			matched = append(matched, t.words[i])
		}
	}
	return matched
}

func quickPriority(score int) domain.TicketPriority {
	switch {
	case score >= 90:
		return domain.PriorityP1
	case score >= 70:
		return domain.PriorityP2
	case score >= 40:
		return domain.PriorityP3
	default:
		return domain.PriorityP4
	}
}

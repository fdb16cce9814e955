package scoring

import (
	"fmt"
	"strings"
)

// MaxScore caps every score produced by the engine.
const MaxScore = 100

// WeightedKeyword is one phrase of a scoring vocabulary.
type WeightedKeyword struct {
	Phrase string
	Weight int
}

// UrgencyKeywords signal how soon the requester needs help.
var UrgencyKeywords = []WeightedKeyword{
	{"urgent", 25},
	{"immediately", 20},
	{"asap", 20},
	{"down", 25},
	{"not working", 20},
	{"blocked", 20},
	{"critical", 30},
	{"server", 20},
	{"production", 30},
	{"cannot login", 25},
	{"unable to login", 25},
}

// SeverityKeywords signal how much damage the problem causes.
var SeverityKeywords = []WeightedKeyword{
	{"data loss", 40},
	{"security", 35},
	{"breach", 45},
	{"payment failed", 35},
	{"system crash", 35},
	{"vpn down", 30},
	{"email down", 25},
	{"salary", 25},
	{"invoice", 20},
	{"customer impact", 30},
}

// KeywordScore is the capped sum of matched weights.
type KeywordScore struct {
	Score   int               `json:"score"`
	Matches []WeightedKeyword `json:"matches"`
	Reasons []string          `json:"reasons"`
}

// ScoreKeywords adds the weight of every phrase contained in the normalized
// text. Matching is plain substring containment, so overlapping phrases all
// count ("vpn down" also hits "down").
func ScoreKeywords(normalized string, vocabulary []WeightedKeyword) KeywordScore {
	result := KeywordScore{Matches: []WeightedKeyword{}, Reasons: []string{}}
	total := 0
	for _, kw := range vocabulary {
		if !containsPhrase(normalized, kw.Phrase) {
			continue
		}
		total += kw.Weight
		result.Matches = append(result.Matches, kw)
		result.Reasons = append(result.Reasons, fmt.Sprintf("Keyword detected: '%s' (+%d)", kw.Phrase, kw.Weight))
	}
	result.Score = clampScore(total)
	return result
}

func containsPhrase(text, phrase string) bool {
	return phrase != "" && strings.Contains(text, phrase)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

package scoring

// ExplanationScores repeats the numeric outputs next to their reasons.
type ExplanationScores struct {
	Urgency        int `json:"urgency"`
	Severity       int `json:"severity"`
	SimilarityRisk int `json:"similarity_risk"`
	FinalRisk      int `json:"final_risk"`
}

// Explanation lists the human-readable reasons behind every scoring decision.
type Explanation struct {
	CategoryReasoning   []string          `json:"category_reasoning"`
	UrgencyReasoning    []string          `json:"urgency_reasoning"`
	SeverityReasoning   []string          `json:"severity_reasoning"`
	SimilarityReasoning []string          `json:"similarity_reasoning"`
	FinalFormula        string            `json:"final_formula"`
	Scores              ExplanationScores `json:"scores"`
}

func buildExplanation(cat CategoryMatch, urgency, severity KeywordScore, sim SimilarityResult, final int) Explanation {
	return Explanation{
		CategoryReasoning:   []string{cat.Reason},
		UrgencyReasoning:    nonNil(urgency.Reasons),
		SeverityReasoning:   nonNil(severity.Reasons),
		SimilarityReasoning: nonNil(sim.Reasons),
		FinalFormula:        FusionFormula,
		Scores: ExplanationScores{
			Urgency:        urgency.Score,
			Severity:       severity.Score,
			SimilarityRisk: sim.Risk,
			FinalRisk:      final,
		},
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

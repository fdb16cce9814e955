package domain

import (
	"encoding/json"
	"time"
)

// TicketAnalysis is the persisted outcome of the latest full analysis run.
// Re-analysis overwrites the row; there is one per ticket.
type TicketAnalysis struct {
	ID               string
	TicketID         string
	Strategy         string
	Category         string
	UrgencyScore     int
	SeverityScore    int
	SimilarityRisk   int
	FinalRisk        int
	Priority         TicketPriority
	SLAPolicyMissing bool
	Explanation      json.RawMessage
	AnalyzedAt       time.Time
}

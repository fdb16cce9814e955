package scoring

import "fmt"

// CategoryOther is returned when no taxonomy keyword matches.
const CategoryOther = "Other"

// CategoryRule binds a category to its trigger keywords.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// Taxonomy is scanned top to bottom and the first matching keyword wins, so the
// order of this slice decides ties between categories.
var Taxonomy = []CategoryRule{
	{Name: "Network Issue", Keywords: []string{"wifi", "internet", "vpn", "network", "router", "latency", "disconnect"}},
	{Name: "Hardware Issue", Keywords: []string{"laptop", "mouse", "keyboard", "screen", "battery", "printer", "hardware"}},
	{Name: "Software Bug", Keywords: []string{"bug", "error", "crash", "issue", "not responding", "exception"}},
	{Name: "Access/Login Issue", Keywords: []string{"login", "password", "access denied", "otp", "authentication", "unable to sign in"}},
	{Name: "Email Issue", Keywords: []string{"email", "outlook", "gmail", "mailbox", "smtp", "imap"}},
	{Name: "HR Issue", Keywords: []string{"salary", "leave", "payroll", "attendance", "hr"}},
	{Name: "Finance Issue", Keywords: []string{"invoice", "payment", "reimbursement", "billing", "gst"}},
}

// CategoryMatch is the classifier verdict.
type CategoryMatch struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword,omitempty"`
	Reason   string `json:"reason"`
}

// Classify returns the first category whose keyword is a substring of the
// normalized text.
func Classify(normalized string) CategoryMatch {
	return classifyWith(Taxonomy, normalized)
}

func classifyWith(rules []CategoryRule, normalized string) CategoryMatch {
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if containsPhrase(normalized, kw) {
				return CategoryMatch{
					Category: rule.Name,
					Keyword:  kw,
					Reason:   fmt.Sprintf("Matched keyword '%s' -> %s", kw, rule.Name),
				}
			}
		}
	}
	return CategoryMatch{
		Category: CategoryOther,
		Reason:   "No category keywords matched -> Other",
	}
}

// Package scoring estimates ticket urgency, severity, category and SLA breach
// risk. All tables are fixed and read-only, so every function here is safe for
// concurrent use.
package scoring

import "strings"

// Normalize lowercases text, replaces every character outside [a-z0-9 ] with a
// space, collapses runs of spaces and trims the result.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// ticketText joins title and description the way every scorer reads them.
func ticketText(title, description string) string {
	return title + " " + description
}

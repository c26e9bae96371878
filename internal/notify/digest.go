package notify

import (
	"fmt"
	"strings"

	"github.com/jobsentinel/jobsentinel/internal/alert"
	"github.com/jobsentinel/jobsentinel/internal/matching"
)

// DigestSubject is the one-line summary used as email subject or message
// header.
func DigestSubject(a *alert.Alert, matches []*matching.Match) string {
	noun := "matches"
	if len(matches) == 1 {
		noun = "match"
	}
	return fmt.Sprintf("%s: %d new %s", a.Name, len(matches), noun)
}

// DigestBody renders the matches as a plain-text digest.
func DigestBody(a *alert.Alert, matches []*matching.Match) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New job matches for %q:\n\n", a.Name)

	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s", i+1, m.Job.Title)
		if m.Job.Company != "" {
			fmt.Fprintf(&b, " at %s", m.Job.Company)
		}
		if m.Job.Location != "" {
			fmt.Fprintf(&b, " (%s)", m.Job.Location)
		}
		fmt.Fprintf(&b, " [score %d]", m.Score)
		if len(m.Reasons) > 0 {
			fmt.Fprintf(&b, ", matched: %s", strings.Join(m.Reasons, ", "))
		}
		b.WriteString("\n")
		if m.Job.SalaryText != "" {
			fmt.Fprintf(&b, "   %s\n", m.Job.SalaryText)
		}
		if m.Job.URL != "" {
			fmt.Fprintf(&b, "   %s\n", m.Job.URL)
		}
	}

	return b.String()
}

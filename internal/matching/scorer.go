package matching

import (
	"sort"
	"strings"

	"github.com/jobsentinel/jobsentinel/internal/jobs"
)

const (
	directMatchPoints  = 25
	partialMatchPoints = 15
	fieldMatchPoints   = 20

	maxScore   = 100
	maxReasons = 3
)

// defaultFields maps a professional field to the keywords that signal it.
// A field contributes points when the job title and the skill set both
// contain one of its keywords.
var defaultFields = map[string][]string{
	"it":      {"developer", "software", "programmer", "engineer", "backend", "frontend", "python", "java", "go"},
	"cyber":   {"security", "cyber", "pentest", "hacking", "soc"},
	"data":    {"data", "analytics", "analyst", "sql", "database"},
	"admin":   {"administrator", "admin", "office", "assistant", "support"},
	"finance": {"finance", "accounting", "bookkeeping", "controller", "audit"},
	"cloud":   {"cloud", "aws", "azure", "gcp", "kubernetes", "devops"},
}

// Scorer scores a single posting against a normalized skill set using a
// deterministic additive point system.
type Scorer struct {
	fields map[string][]string
}

// NewScorer creates a Scorer. A nil or empty field table selects the
// built-in one.
func NewScorer(fields map[string][]string) *Scorer {
	if len(fields) == 0 {
		fields = defaultFields
	}
	return &Scorer{fields: fields}
}

// Score returns a score in [0,100] and up to three matched reasons.
// Only the title is matched against skills; malformed postings score zero
// instead of failing.
func (s *Scorer) Score(p *jobs.Posting, skills SkillSet) (int, []string) {
	if p == nil || len(skills) == 0 {
		return 0, nil
	}

	title := strings.ToLower(p.Title)
	if strings.TrimSpace(title) == "" {
		return 0, nil
	}

	score := 0
	var reasons []string

	// Direct substring match against the full title.
	for _, skill := range skills {
		if strings.Contains(title, skill) {
			score += directMatchPoints
			reasons = append(reasons, skill)
		}
	}

	// Partial match against individual title tokens. A skill that already
	// matched directly may match again here; the stacking is intentional
	// and reflects higher confidence.
	tokens := tokenizeTitle(title)
	for _, skill := range skills {
		for _, token := range tokens {
			if strings.Contains(token, skill) || strings.Contains(skill, token) {
				score += partialMatchPoints
				reasons = append(reasons, skill)
			}
		}
	}

	// Field match: the title and the skill set signal the same
	// professional field. Fields are visited in sorted order so repeated
	// runs produce identical reasons.
	for _, field := range sortedKeys(s.fields) {
		keywords := s.fields[field]
		if containsAnyKeyword(title, keywords) && skillsContainAnyKeyword(skills, keywords) {
			score += fieldMatchPoints
			reasons = append(reasons, field)
		}
	}

	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}

	return score, dedupeReasons(reasons, maxReasons)
}

func tokenizeTitle(title string) []string {
	raw := strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == '-' || r == ',' || r == '.'
	})

	tokens := raw[:0]
	for _, t := range raw {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func skillsContainAnyKeyword(skills SkillSet, keywords []string) bool {
	for _, kw := range keywords {
		if skills.Contains(kw) {
			return true
		}
	}
	return false
}

// dedupeReasons keeps first-seen order and caps the result.
func dedupeReasons(reasons []string, limit int) []string {
	if len(reasons) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(reasons))
	out := make([]string, 0, limit)
	for _, r := range reasons {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

package matching

import (
	"strings"
	"time"

	"github.com/jobsentinel/jobsentinel/internal/jobs"
)

const (
	fallbackPointsPerMatch = 20

	// FallbackReason marks matches produced by the degraded path so
	// consumers can tell them apart from fully scored ones.
	FallbackReason = "keyword fallback"
)

// FallbackRank is the degraded scoring path used when the primary ranking
// path fails. It only checks whether skills appear in the title as plain
// substrings and never fails itself; anything it cannot score simply yields
// no match.
func FallbackRank(pool *jobs.List, skills SkillSet, topN int) []*Match {
	if topN <= 0 {
		topN = DefaultTopN
	}

	if pool == nil || len(skills) == 0 {
		return []*Match{}
	}

	normalized := NewSkillSet(skills)
	computedAt := time.Now()

	matches := make([]*Match, 0, topN)
	for _, p := range pool.Items {
		if p == nil {
			continue
		}

		title := strings.ToLower(p.Title)
		if title == "" {
			continue
		}

		var matched []string
		for _, skill := range normalized {
			if strings.Contains(title, skill) {
				matched = append(matched, skill)
			}
		}

		if len(matched) == 0 {
			continue
		}

		score := len(matched) * fallbackPointsPerMatch
		if score > maxScore {
			score = maxScore
		}

		reasons := append([]string{FallbackReason}, matched...)

		matches = append(matches, &Match{
			Job:        p,
			Score:      score,
			Reasons:    dedupeReasons(reasons, maxReasons),
			ComputedAt: computedAt,
		})

		if len(matches) == topN {
			break
		}
	}

	return matches
}

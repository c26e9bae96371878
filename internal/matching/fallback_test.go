package matching

import (
	"testing"

	"github.com/jobsentinel/jobsentinel/internal/jobs"
)

func TestFallbackRankScoresBySubstringCount(t *testing.T) {
	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "1", Title: "Python Developer"},
		{ID: "2", Title: "Warehouse Operator"},
	}}

	matches := FallbackRank(pool, SkillSet{"python", "developer"}, 0)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Score != 40 {
		t.Fatalf("expected score 40 (2 matches * 20), got %d", matches[0].Score)
	}
}

func TestFallbackRankCapsScore(t *testing.T) {
	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "1", Title: "a b c d e f g"},
	}}

	matches := FallbackRank(pool, SkillSet{"a", "b", "c", "d", "e", "f"}, 0)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Score != 100 {
		t.Fatalf("expected capped score 100, got %d", matches[0].Score)
	}
}

func TestFallbackRankMarksMatches(t *testing.T) {
	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "1", Title: "Python Developer"},
	}}

	matches := FallbackRank(pool, SkillSet{"python"}, 0)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Reasons[0] != FallbackReason {
		t.Fatalf("expected fallback mark as first reason, got %v", matches[0].Reasons)
	}

	if len(matches[0].Reasons) > 3 {
		t.Fatalf("expected at most 3 reasons, got %v", matches[0].Reasons)
	}
}

func TestFallbackRankEmptyInputs(t *testing.T) {
	if got := FallbackRank(nil, SkillSet{"python"}, 0); len(got) != 0 {
		t.Fatalf("expected empty result for nil pool")
	}

	pool := &jobs.List{Items: []*jobs.Posting{{ID: "1", Title: "Python Developer"}}}
	if got := FallbackRank(pool, nil, 0); len(got) != 0 {
		t.Fatalf("expected empty result for empty skills")
	}
}

func TestFallbackRankTruncates(t *testing.T) {
	pool := &jobs.List{}
	for i := 0; i < 20; i++ {
		pool.Items = append(pool.Items, &jobs.Posting{ID: "x", Title: "python"})
	}

	matches := FallbackRank(pool, SkillSet{"python"}, 5)
	if len(matches) != 5 {
		t.Fatalf("expected 5 matches, got %d", len(matches))
	}
}

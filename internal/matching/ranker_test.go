package matching

import (
	"fmt"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/jobs"
)

func rankerForTest() *Ranker {
	return NewRanker(NewNormalizer(nil), NewScorer(nil), zap.NewNop())
}

func devPool(n int) *jobs.List {
	l := &jobs.List{}
	for i := 0; i < n; i++ {
		l.Items = append(l.Items, &jobs.Posting{
			ID:    fmt.Sprintf("job-%d", i),
			Title: "Python Developer",
		})
	}
	return l
}

func TestRankDeterministic(t *testing.T) {
	r := rankerForTest()

	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "1", Title: "Senior Python Backend Developer"},
		{ID: "2", Title: "Python Developer"},
		{ID: "3", Title: "Go Developer"},
		{ID: "4", Title: "Warehouse Operator"},
	}}
	skills := SkillSet{"python", "go"}

	first := r.Rank(pool, skills, Options{})
	second := r.Rank(pool, skills, Options{})

	if len(first) != len(second) {
		t.Fatalf("expected identical result length, got %d and %d", len(first), len(second))
	}

	for i := range first {
		if first[i].Job.ID != second[i].Job.ID || first[i].Score != second[i].Score {
			t.Fatalf("result differs at %d: %+v vs %+v", i, first[i], second[i])
		}
		if !reflect.DeepEqual(first[i].Reasons, second[i].Reasons) {
			t.Fatalf("reasons differ at %d: %v vs %v", i, first[i].Reasons, second[i].Reasons)
		}
	}
}

func TestRankThreshold(t *testing.T) {
	r := rankerForTest()

	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "1", Title: "Python Developer"},
		{ID: "2", Title: "Warehouse Operator"},
	}}

	results := r.Rank(pool, SkillSet{"python"}, Options{})
	for _, m := range results {
		if m.Score < DefaultMinScore {
			t.Fatalf("result below threshold: %+v", m)
		}
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRankCap(t *testing.T) {
	r := rankerForTest()

	results := r.Rank(devPool(25), SkillSet{"python"}, Options{})
	if len(results) > DefaultTopN {
		t.Fatalf("expected at most %d results, got %d", DefaultTopN, len(results))
	}
}

func TestRankPoolLimit(t *testing.T) {
	r := rankerForTest()

	// Only the first two postings may be scored.
	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "1", Title: "Warehouse Operator"},
		{ID: "2", Title: "Forklift Driver"},
		{ID: "3", Title: "Python Developer"},
	}}

	results := r.Rank(pool, SkillSet{"python"}, Options{PoolLimit: 2})
	if len(results) != 0 {
		t.Fatalf("expected postings beyond the pool limit to be ignored, got %d results", len(results))
	}
}

func TestRankStableTieOrder(t *testing.T) {
	r := rankerForTest()

	results := r.Rank(devPool(5), SkillSet{"python"}, Options{})
	for i, m := range results {
		want := fmt.Sprintf("job-%d", i)
		if m.Job.ID != want {
			t.Fatalf("tie order not stable: expected %s at %d, got %s", want, i, m.Job.ID)
		}
	}
}

func TestRankSortsDescending(t *testing.T) {
	r := rankerForTest()

	pool := &jobs.List{Items: []*jobs.Posting{
		{ID: "weak", Title: "Python"},
		{ID: "strong", Title: "Senior Python Backend Developer"},
	}}

	results := r.Rank(pool, SkillSet{"python"}, Options{})
	if len(results) < 2 {
		t.Fatalf("expected both postings above threshold, got %d", len(results))
	}

	if results[0].Job.ID != "strong" {
		t.Fatalf("expected strongest match first, got %s", results[0].Job.ID)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted descending at %d", i)
		}
	}
}

func TestRankEmptyInputs(t *testing.T) {
	r := rankerForTest()

	if got := r.Rank(&jobs.List{}, SkillSet{"python"}, Options{}); len(got) != 0 {
		t.Fatalf("expected empty result for empty pool, got %d", len(got))
	}

	if got := r.Rank(devPool(3), nil, Options{}); len(got) != 0 {
		t.Fatalf("expected empty result for empty skills, got %d", len(got))
	}

	if got := r.Rank(nil, SkillSet{"python"}, Options{}); len(got) != 0 {
		t.Fatalf("expected empty result for nil pool, got %d", len(got))
	}
}

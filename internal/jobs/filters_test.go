package jobs

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func testPool() *List {
	return &List{Items: []*Posting{
		{ID: "1", Title: "Go Developer", Company: "Acme", Location: "Berlin"},
		{ID: "2", Title: "Remote Python Developer", Company: "Globex", Location: "Remote"},
		{ID: "3", Title: "Sales Manager", Company: "Initech", Location: "", Description: "cold calling required"},
	}}
}

func TestLocationFilter(t *testing.T) {
	pool := testPool()

	filtered, step, err := NewLocation("berlin").Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step.Initial != 3 || step.Dropped != 1 || step.Left != 2 {
		t.Fatalf("unexpected step accounting: %+v", step)
	}

	// Posting 3 has no location and must be kept.
	if filtered.FindByID("3") == nil {
		t.Fatalf("expected posting without location to be kept")
	}

	if filtered.FindByID("2") != nil {
		t.Fatalf("expected remote posting to be dropped by location filter")
	}
}

func TestLocationFilterEmptyLocationIsNoop(t *testing.T) {
	pool := testPool()

	filtered, step, err := NewLocation("  ").Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step.Dropped != 0 || filtered.Len() != 3 {
		t.Fatalf("expected no-op, got %+v", step)
	}
}

func TestRemoteOnlyFilter(t *testing.T) {
	pool := testPool()

	filtered, step, err := NewRemoteOnly().Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step.Left != 1 || filtered.FindByID("2") == nil {
		t.Fatalf("expected only the remote posting to remain, got %+v", step)
	}
}

func TestExcludedCompaniesFilter(t *testing.T) {
	pool := testPool()

	filtered, step, err := NewExcludedCompanies([]string{"acme"}).Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %+v", step)
	}

	if filtered.FindByID("1") != nil {
		t.Fatalf("expected Acme posting to be excluded")
	}
}

func TestExcludedCompaniesFilterDropsEveryPosting(t *testing.T) {
	pool := &List{Items: []*Posting{
		{ID: "1", Title: "Go Developer", Company: "Acme", Location: "Berlin"},
		{ID: "2", Title: "Platform Engineer", Company: "Acme", Location: "Hamburg"},
		{ID: "3", Title: "Data Analyst", Company: "Globex", Location: "Berlin"},
	}}

	filtered, step, err := NewExcludedCompanies([]string{"acme"}).Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step.Initial != 3 || step.Dropped != 2 || step.Left != 1 {
		t.Fatalf("unexpected step accounting: %+v", step)
	}

	if filtered.FindByID("1") != nil || filtered.FindByID("2") != nil {
		t.Fatalf("expected every Acme posting to be excluded, got %v", filtered.IDs())
	}
}

func TestExcludedCompaniesFilterPreservesOrder(t *testing.T) {
	pool := &List{Items: []*Posting{
		{ID: "1", Company: "Globex"},
		{ID: "2", Company: "Acme"},
		{ID: "3", Company: "Initech"},
		{ID: "4", Company: "Umbrella"},
	}}

	filtered, _, err := NewExcludedCompanies([]string{"acme"}).Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"1", "3", "4"}
	got := filtered.IDs()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pool order changed: expected %v, got %v", want, got)
		}
	}
}

func TestRedFlagsFilter(t *testing.T) {
	pool := testPool()

	filtered, step, err := NewRedFlags([]string{"Cold Calling", ""}).Apply(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %+v", step)
	}

	if filtered.FindByID("3") != nil {
		t.Fatalf("expected red-flagged posting to be excluded")
	}
}

func TestRunFilters(t *testing.T) {
	pool := testPool()

	steps := []StepFilter{
		NewRedFlags([]string{"cold calling"}),
		NewExcludedCompanies(nil),
	}

	filtered, err := RunFilters(context.Background(), zap.NewNop(), steps, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filtered.Len() != 2 {
		t.Fatalf("expected 2 postings, got %d", filtered.Len())
	}
}

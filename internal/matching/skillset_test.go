package matching

import (
	"reflect"
	"testing"
)

func TestNewSkillSet(t *testing.T) {
	got := NewSkillSet([]string{" Python ", "AWS", "python", "", "  "})

	want := SkillSet{"python", "aws"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNormalizeExpandsSynonyms(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.Normalize(SkillSet{"Penetration"})

	for _, term := range []string{"penetration", "security", "cyber", "hacking", "pentest"} {
		if !got.Contains(term) {
			t.Fatalf("expected %q in normalized set, got %v", term, got)
		}
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	n := NewNormalizer(map[string][]string{
		"a": {"x", "y"},
		"b": {"x", "z"},
	})

	got := n.Normalize(SkillSet{"a", "b", "x"})

	seen := map[string]int{}
	for _, term := range got {
		seen[term]++
	}
	for term, count := range seen {
		if count != 1 {
			t.Fatalf("term %q appears %d times", term, count)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer(nil)

	once := n.Normalize(SkillSet{"penetration", "golang", "sql"})
	twice := n.Normalize(once)

	if !reflect.DeepEqual(once.Sorted(), twice.Sorted()) {
		t.Fatalf("expected idempotent normalization, got %v then %v", once, twice)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(nil)

	if got := n.Normalize(nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

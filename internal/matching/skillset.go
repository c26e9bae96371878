// Package matching turns a candidate's skill list into a scored ranking
// against a pool of job postings. Everything in this package is pure
// computation over in-memory data; I/O stays with the callers.
package matching

import (
	"sort"
	"strings"
)

// SkillSet is a set of lowercase skill/keyword strings. Order carries no
// meaning.
type SkillSet []string

// NewSkillSet lowercases and trims terms and drops duplicates and empties.
func NewSkillSet(terms []string) SkillSet {
	seen := make(map[string]bool, len(terms))
	out := make(SkillSet, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}

func (s SkillSet) Contains(term string) bool {
	for _, t := range s {
		if t == term {
			return true
		}
	}
	return false
}

// Sorted returns a sorted copy, useful for deterministic output.
func (s SkillSet) Sorted() SkillSet {
	out := make(SkillSet, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}

// defaultSynonyms expands narrow CV-extracted terms into the broader
// category language job titles tend to use. Values are deliberately
// never keys themselves, which keeps expansion idempotent.
var defaultSynonyms = map[string][]string{
	"penetration": {"security", "cyber", "hacking", "pentest"},
	"pentesting":  {"security", "cyber", "hacking", "pentest"},
	"golang":      {"go", "backend", "developer"},
	"kubernetes":  {"cloud", "devops", "infrastructure"},
	"terraform":   {"cloud", "devops", "infrastructure"},
	"react":       {"frontend", "javascript", "developer"},
	"angular":     {"frontend", "javascript", "developer"},
	"python":      {"developer", "backend", "scripting"},
	"sql":         {"data", "database", "analyst"},
	"excel":       {"office", "admin", "analyst"},
	"accounting":  {"finance", "bookkeeping", "controller"},
	"helpdesk":    {"support", "it", "admin"},
}

// Normalizer expands a raw skill list into a broader matching vocabulary
// using a static synonym table.
type Normalizer struct {
	synonyms map[string][]string
}

// NewNormalizer creates a Normalizer. A nil or empty table selects the
// built-in one.
func NewNormalizer(synonyms map[string][]string) *Normalizer {
	if len(synonyms) == 0 {
		synonyms = defaultSynonyms
	}
	return &Normalizer{synonyms: synonyms}
}

// Normalize lowercases the input and appends the mapped synonym terms for
// every term present in the table. The result is deduplicated. Empty input
// yields empty output.
func (n *Normalizer) Normalize(skills SkillSet) SkillSet {
	base := NewSkillSet(skills)

	expanded := make([]string, 0, len(base))
	expanded = append(expanded, base...)
	for _, term := range base {
		if mapped, ok := n.synonyms[term]; ok {
			expanded = append(expanded, mapped...)
		}
	}

	return NewSkillSet(expanded)
}

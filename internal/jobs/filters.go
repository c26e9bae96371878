package jobs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// StepFilter is a single narrowing step applied to the pool before ranking.
type StepFilter interface {
	Name() string
	Apply(ctx context.Context, l *List) (*List, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// RunFilters executes the supplied filters sequentially, returning the
// resulting pool.
func RunFilters(ctx context.Context, logger *zap.Logger, steps []StepFilter, l *List) (*List, error) {
	for _, step := range steps {
		next, info, err := step.Apply(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		l = next
	}

	return l, nil
}

type locationFilter struct {
	location string
}

// NewLocation creates a filter keeping postings in the given location.
// Postings without location information are kept; an unknown location is not
// evidence of a mismatch.
func NewLocation(location string) StepFilter {
	return &locationFilter{location: strings.ToLower(strings.TrimSpace(location))}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Apply(_ context.Context, l *List) (*List, Step, error) {
	initial := l.Len()
	if f.location == "" {
		return l, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := make([]*Posting, 0, initial)
	for _, p := range l.Items {
		loc := strings.ToLower(p.Location)
		if loc == "" || strings.Contains(loc, f.location) {
			kept = append(kept, p)
		}
	}

	l.Items = kept
	return l, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type remoteOnlyFilter struct{}

// NewRemoteOnly creates a filter keeping postings that mention remote work.
func NewRemoteOnly() StepFilter {
	return &remoteOnlyFilter{}
}

func (f *remoteOnlyFilter) Name() string { return "remote_only" }

func (f *remoteOnlyFilter) Apply(_ context.Context, l *List) (*List, Step, error) {
	initial := l.Len()

	kept := make([]*Posting, 0, initial)
	for _, p := range l.Items {
		haystack := strings.ToLower(p.Title + " " + p.Location + " " + p.Description)
		if strings.Contains(haystack, "remote") {
			kept = append(kept, p)
		}
	}

	l.Items = kept
	return l, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type excludedCompaniesFilter struct {
	companies []string
}

// NewExcludedCompanies creates a filter that removes every posting from the
// named companies. A company may have any number of postings in the pool.
func NewExcludedCompanies(companies []string) StepFilter {
	lowered := make([]string, 0, len(companies))
	for _, c := range companies {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			lowered = append(lowered, c)
		}
	}
	return &excludedCompaniesFilter{companies: lowered}
}

func (f *excludedCompaniesFilter) Name() string { return "excluded_companies" }

func (f *excludedCompaniesFilter) Apply(_ context.Context, l *List) (*List, Step, error) {
	initial := l.Len()
	if len(f.companies) == 0 {
		return l, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := make([]*Posting, 0, initial)
	for _, p := range l.Items {
		company := strings.ToLower(p.Company)
		excluded := false
		for _, target := range f.companies {
			if company == target {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, p)
		}
	}

	l.Items = kept
	return l, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type redFlagsFilter struct {
	terms []string
}

// NewRedFlags creates a filter that discards postings containing any of the
// exclusion terms in their title or description.
func NewRedFlags(terms []string) StepFilter {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &redFlagsFilter{terms: lowered}
}

func (f *redFlagsFilter) Name() string { return "red_flags" }

func (f *redFlagsFilter) Apply(_ context.Context, l *List) (*List, Step, error) {
	initial := l.Len()
	if len(f.terms) == 0 {
		return l, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := make([]*Posting, 0, initial)
	for _, p := range l.Items {
		text := p.Text()
		flagged := false
		for _, term := range f.terms {
			if strings.Contains(text, term) {
				flagged = true
				break
			}
		}
		if !flagged {
			kept = append(kept, p)
		}
	}

	l.Items = kept
	return l, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

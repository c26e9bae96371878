package jobs

import "context"

// Filter narrows the pool a Source returns. Sources are free to ignore
// fields they cannot express; final matching never relies on the source
// having filtered anything.
type Filter struct {
	Keywords []string
	Location string
	Remote   bool
	Limit    int
}

// Source supplies the job pool. Implementations must tolerate partial and
// missing optional fields on their side of the boundary.
type Source interface {
	Fetch(ctx context.Context, f Filter) (*List, error)
}

package alert

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an alert id does not exist.
var ErrNotFound = errors.New("alert not found")

// RunState carries the scheduler-owned fields written back after a run.
// A nil LastSentAt leaves the stored value untouched.
type RunState struct {
	MatchCount int
	LastSentAt *time.Time
	NextRunAt  time.Time
}

// Store is keyed CRUD over alerts. No cross-alert transactions are
// required; the scheduler reads and writes single rows by id.
type Store interface {
	ListActive(ctx context.Context, limit int) ([]*Alert, error)
	Get(ctx context.Context, id string) (*Alert, error)
	Create(ctx context.Context, a *Alert) error
	Update(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, id string) error

	// UpdateRunState writes only the scheduler-owned columns so a
	// concurrent user edit is never overwritten.
	UpdateRunState(ctx context.Context, id string, state RunState) error
}

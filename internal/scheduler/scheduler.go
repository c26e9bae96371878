// Package scheduler wires up the cron job that periodically re-runs
// matching for all active alerts and notifies on new matches.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/alert"
	"github.com/jobsentinel/jobsentinel/internal/jobs"
	"github.com/jobsentinel/jobsentinel/internal/logger"
	"github.com/jobsentinel/jobsentinel/internal/matching"
	"github.com/jobsentinel/jobsentinel/internal/notify"
	"github.com/jobsentinel/jobsentinel/internal/utils"
)

var (
	// ErrAlreadyRunning signals a redundant Start. Callers may ignore it.
	ErrAlreadyRunning = errors.New("scheduler is already running")
	// ErrNotRunning signals a redundant Stop. Callers may ignore it.
	ErrNotRunning = errors.New("scheduler is not running")
	// ErrTickInProgress is returned when a tick is requested while another
	// one still holds the in-flight guard.
	ErrTickInProgress = errors.New("tick already in progress")
)

// Ranker is the primary scoring path. matching.Ranker satisfies it.
type Ranker interface {
	Rank(pool *jobs.List, skills matching.SkillSet, opts matching.Options) []*matching.Match
}

// Dispatcher hands ranked matches to the notification boundary.
type Dispatcher interface {
	Dispatch(ctx context.Context, a *alert.Alert, matches []*matching.Match) notify.Outcome
}

// Config tunes the scheduler. Zero values select the defaults.
type Config struct {
	// CronSpec controls how often the scheduler wakes up. Whether an
	// alert actually runs is decided by its own next_run_at, so the
	// wake-up frequency is independent from alert frequency.
	CronSpec string
	// BatchLimit caps how many alerts one tick processes. Alerts beyond
	// the cap wait for the next tick.
	BatchLimit int
	// AlertDelay spaces out alert processing to avoid hammering shared
	// external resources.
	AlertDelay time.Duration
	// AlertTimeout bounds the I/O of a single alert.
	AlertTimeout time.Duration
	// TickTimeout bounds a whole tick.
	TickTimeout time.Duration

	Ranking matching.Options
}

const (
	defaultCronSpec     = "@every 15m"
	defaultBatchLimit   = 100
	defaultAlertDelay   = 100 * time.Millisecond
	defaultAlertTimeout = 30 * time.Second
	defaultTickTimeout  = 5 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.CronSpec == "" {
		c.CronSpec = defaultCronSpec
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = defaultBatchLimit
	}
	if c.AlertDelay <= 0 {
		c.AlertDelay = defaultAlertDelay
	}
	if c.AlertTimeout <= 0 {
		c.AlertTimeout = defaultAlertTimeout
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = defaultTickTimeout
	}
	return c
}

// RunRecord tracks scheduler health. Single instance per scheduler, reset
// on process restart.
type RunRecord struct {
	TotalRuns       int
	LastExecutionAt *time.Time
	LastError       string
}

// Status is the administrative view of the scheduler.
type Status struct {
	Running         bool       `json:"running"`
	TotalRuns       int        `json:"total_runs"`
	LastExecutionAt *time.Time `json:"last_execution_at,omitempty"`
	NextExecutionAt *time.Time `json:"next_execution_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

// Scheduler owns the recurring alert evaluation loop. It is an explicitly
// constructed service object; tests may run several isolated instances.
type Scheduler struct {
	cfg        Config
	store      alert.Store
	source     jobs.Source
	ranker     Ranker
	dispatcher Dispatcher
	seen       notify.SeenStore
	logger     *zap.Logger

	now func() time.Time

	mu         sync.Mutex
	cron       *cron.Cron
	entry      cron.EntryID
	running    bool
	tickCancel context.CancelFunc

	// tickMu is the in-flight guard: a manual ExecuteNow and a timer
	// tick must never interleave writes to the same alert.
	tickMu sync.Mutex

	recordMu sync.Mutex
	record   RunRecord
}

// New creates a Scheduler. The seen store may be nil, in which case every
// match above the threshold is treated as new.
func New(cfg Config, store alert.Store, source jobs.Source, ranker Ranker, dispatcher Dispatcher, seen notify.SeenStore, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cfg:        cfg.withDefaults(),
		store:      store,
		source:     source,
		ranker:     ranker,
		dispatcher: dispatcher,
		seen:       seen,
		logger:     logger,
		now:        time.Now,
	}
}

// Start begins the recurring timer. Starting a running scheduler is a
// no-op signaled by ErrAlreadyRunning.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := cron.New()
	entry, err := c.AddFunc(s.cfg.CronSpec, func() {
		if err := s.runTick(ctx); err != nil && !errors.Is(err, ErrTickInProgress) {
			s.logger.Warn("scheduled tick failed", zap.Error(err))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	c.Start()

	s.cron = c
	s.entry = entry
	s.running = true
	s.tickCancel = cancel

	s.logger.Info("scheduler started", zap.String("spec", s.cfg.CronSpec))
	return nil
}

// Stop cancels the timer. An in-flight tick finishes its current alert and
// then stops; stopping a stopped scheduler is a no-op signaled by
// ErrNotRunning.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}

	s.cron.Stop()
	s.tickCancel()
	s.running = false
	s.cron = nil
	s.tickCancel = nil

	s.logger.Info("scheduler stopped")
	return nil
}

// ExecuteNow runs one tick synchronously regardless of the Running state.
func (s *Scheduler) ExecuteNow(ctx context.Context) error {
	return s.runTick(ctx)
}

// Status returns the administrative status snapshot.
func (s *Scheduler) Status() Status {
	s.recordMu.Lock()
	record := s.record
	s.recordMu.Unlock()

	status := Status{
		Running:         false,
		TotalRuns:       record.TotalRuns,
		LastExecutionAt: record.LastExecutionAt,
		LastError:       record.LastError,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status.Running = s.running
	if s.running && s.cron != nil {
		next := s.cron.Entry(s.entry).Next
		if !next.IsZero() {
			status.NextExecutionAt = &next
		}
	}

	return status
}

func (s *Scheduler) runTick(ctx context.Context) error {
	if !s.tickMu.TryLock() {
		return ErrTickInProgress
	}
	defer s.tickMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	alerts, err := s.store.ListActive(ctx, s.cfg.BatchLimit)
	if err != nil {
		wrapped := fmt.Errorf("list active alerts: %w", err)
		s.recordRun(wrapped)
		return wrapped
	}

	if len(alerts) == 0 {
		s.logger.Debug("no active alerts")
		s.recordRun(nil)
		return nil
	}

	now := s.now()
	processed := 0
	for _, a := range alerts {
		if ctx.Err() != nil {
			s.logger.Info("tick interrupted", zap.Int("processed", processed), zap.Error(ctx.Err()))
			break
		}

		if !a.Due(now) {
			continue
		}

		if err := s.processAlert(ctx, a, now); err != nil {
			s.logger.Warn("alert processing failed",
				zap.String(logger.FieldAlertID, a.ID),
				zap.Error(err),
			)
		}
		processed++

		// Spacing between alerts, not after the last one.
		_ = utils.WaitFor(ctx, s.cfg.AlertDelay)
	}

	s.logger.Info("tick complete", zap.Int("alerts", len(alerts)), zap.Int("processed", processed))
	s.recordRun(nil)
	return nil
}

func (s *Scheduler) processAlert(ctx context.Context, a *alert.Alert, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AlertTimeout)
	defer cancel()

	keywords := a.Criteria.CleanKeywords()
	if len(keywords) == 0 {
		s.logger.Warn("skipping alert without keywords", zap.String(logger.FieldAlertID, a.ID))
		return nil
	}

	pool, err := s.source.Fetch(ctx, jobs.Filter{
		Keywords: keywords,
		Location: a.Criteria.Location,
		Remote:   a.Criteria.Remote,
	})
	if err != nil {
		return fmt.Errorf("fetch job pool: %w", err)
	}

	pool, err = jobs.RunFilters(ctx, s.logger, criteriaFilters(a), pool)
	if err != nil {
		return fmt.Errorf("apply criteria filters: %w", err)
	}

	skills := matching.NewSkillSet(keywords)
	matches := s.rankMatches(pool, skills)

	state := alert.RunState{
		MatchCount: len(matches),
		NextRunAt:  a.NextAfter(now),
	}

	if len(matches) > 0 {
		fresh, freshIDs := s.filterNew(ctx, a.ID, matches)

		if len(fresh) > 0 {
			outcome := s.dispatcher.Dispatch(ctx, a, fresh)
			if outcome.Status == notify.StatusSent {
				sentAt := outcome.At
				state.LastSentAt = &sentAt
				s.markNotified(ctx, a.ID, freshIDs)
			}
		}
	}

	if err := s.store.UpdateRunState(ctx, a.ID, state); err != nil {
		return fmt.Errorf("persist run state: %w", err)
	}

	return nil
}

// rankMatches runs the primary ranking path and falls back to plain
// keyword matching when it fails. The fallback never propagates errors;
// at worst it yields zero matches.
func (s *Scheduler) rankMatches(pool *jobs.List, skills matching.SkillSet) (matches []*matching.Match) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("primary ranking failed, using keyword fallback", zap.Any("reason", r))
			matches = matching.FallbackRank(pool, skills, s.cfg.Ranking.TopN)
		}
	}()

	if s.ranker == nil {
		return matching.FallbackRank(pool, skills, s.cfg.Ranking.TopN)
	}

	return s.ranker.Rank(pool, skills, s.cfg.Ranking)
}

// filterNew drops matches the alert was already notified about. When the
// seen store is unavailable the full list is returned; a duplicate
// notification beats a silently lost one.
func (s *Scheduler) filterNew(ctx context.Context, alertID string, matches []*matching.Match) ([]*matching.Match, []string) {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Job.ID)
	}

	if s.seen == nil {
		return matches, ids
	}

	freshIDs, err := s.seen.FilterNew(ctx, alertID, ids)
	if err != nil {
		s.logger.Warn("seen store lookup failed", zap.String(logger.FieldAlertID, alertID), zap.Error(err))
		return matches, ids
	}

	freshSet := make(map[string]bool, len(freshIDs))
	for _, id := range freshIDs {
		freshSet[id] = true
	}

	fresh := make([]*matching.Match, 0, len(freshIDs))
	for _, m := range matches {
		if freshSet[m.Job.ID] {
			fresh = append(fresh, m)
		}
	}

	return fresh, freshIDs
}

func (s *Scheduler) markNotified(ctx context.Context, alertID string, jobIDs []string) {
	if s.seen == nil {
		return
	}

	if err := s.seen.MarkNotified(ctx, alertID, jobIDs); err != nil {
		s.logger.Warn("seen store update failed", zap.String(logger.FieldAlertID, alertID), zap.Error(err))
	}
}

func criteriaFilters(a *alert.Alert) []jobs.StepFilter {
	steps := []jobs.StepFilter{
		jobs.NewLocation(a.Criteria.Location),
		jobs.NewExcludedCompanies(a.Criteria.ExcludeCompanies),
		jobs.NewRedFlags(a.Criteria.RedFlags),
	}

	if a.Criteria.Remote {
		steps = append(steps, jobs.NewRemoteOnly())
	}

	return steps
}

func (s *Scheduler) recordRun(err error) {
	at := s.now()

	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	s.record.TotalRuns++
	s.record.LastExecutionAt = &at
	if err != nil {
		s.record.LastError = err.Error()
	} else {
		s.record.LastError = ""
	}
}

package matching

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/jobs"
)

const (
	// DefaultPoolLimit bounds how many postings a single run scores. This
	// is a throughput tradeoff, not a correctness requirement.
	DefaultPoolLimit = 30
	// DefaultMinScore is the threshold below which a match is considered
	// noise.
	DefaultMinScore = 30
	// DefaultTopN caps the ranked output.
	DefaultTopN = 8
)

// Match is the scored association between a skill set and one posting at a
// point in time. Matches are recomputed on every run and never persisted.
type Match struct {
	Job        *jobs.Posting `json:"job"`
	Score      int           `json:"score"`
	Reasons    []string      `json:"reasons"`
	ComputedAt time.Time     `json:"computed_at"`
}

// Options tunes a ranking run. Zero values select the defaults.
type Options struct {
	PoolLimit int
	MinScore  int
	TopN      int
}

func (o Options) withDefaults() Options {
	if o.PoolLimit <= 0 {
		o.PoolLimit = DefaultPoolLimit
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	return o
}

// Ranker runs the scorer over a job pool and produces a thresholded,
// sorted, truncated match list.
type Ranker struct {
	normalizer *Normalizer
	scorer     *Scorer
	logger     *zap.Logger

	now func() time.Time
}

func NewRanker(normalizer *Normalizer, scorer *Scorer, logger *zap.Logger) *Ranker {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	if scorer == nil {
		scorer = NewScorer(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{
		normalizer: normalizer,
		scorer:     scorer,
		logger:     logger,
		now:        time.Now,
	}
}

// Rank scores the pool against the skills and returns the top matches in
// descending score order. Ties keep the original pool order. An empty result
// is a normal outcome, not an error.
func (r *Ranker) Rank(pool *jobs.List, skills SkillSet, opts Options) []*Match {
	opts = opts.withDefaults()

	if pool == nil || pool.Len() == 0 || len(skills) == 0 {
		return []*Match{}
	}

	normalized := r.normalizer.Normalize(skills)

	items := pool.Items
	if len(items) > opts.PoolLimit {
		items = items[:opts.PoolLimit]
	}

	computedAt := r.now()
	matches := make([]*Match, 0, len(items))
	for _, p := range items {
		score, reasons := r.scorer.Score(p, normalized)
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, &Match{
			Job:        p,
			Score:      score,
			Reasons:    reasons,
			ComputedAt: computedAt,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > opts.TopN {
		matches = matches[:opts.TopN]
	}

	r.logger.Debug("ranking finished",
		zap.Int("pool", pool.Len()),
		zap.Int("scored", len(items)),
		zap.Int("matched", len(matches)),
	)

	return matches
}

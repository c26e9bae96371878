package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultFeedLimit = 200

// FeedSource reads postings from the job_feed table populated by an external
// collector.
type FeedSource struct {
	pool *pgxpool.Pool
}

func NewFeedSource(pool *pgxpool.Pool) *FeedSource {
	return &FeedSource{pool: pool}
}

// Fetch returns the newest postings, optionally narrowed by location.
// Keyword narrowing is left to the matching pipeline so that the scoring
// input stays identical across sources.
func (s *FeedSource) Fetch(ctx context.Context, f Filter) (*List, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT external_id,
		       COALESCE(title, ''),
		       COALESCE(company, ''),
		       COALESCE(location, ''),
		       COALESCE(description, ''),
		       COALESCE(salary_text, ''),
		       COALESCE(salary_min, 0),
		       COALESCE(salary_max, 0),
		       COALESCE(published_at::text, ''),
		       COALESCE(source_url, '')
		FROM job_feed
		WHERE ($1 = '' OR location ILIKE '%' || $1 || '%')
		ORDER BY published_at DESC NULLS LAST
		LIMIT $2`,
		f.Location, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query job_feed: %w", err)
	}
	defer rows.Close()

	list := &List{}
	for rows.Next() {
		p := &Posting{}
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Company, &p.Location, &p.Description,
			&p.SalaryText, &p.SalaryMin, &p.SalaryMax, &p.PostedAt, &p.URL,
		); err != nil {
			return nil, fmt.Errorf("scan job_feed row: %w", err)
		}
		list.Items = append(list.Items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job_feed rows: %w", err)
	}

	return list, nil
}

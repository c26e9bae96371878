package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `id, owner_id, name, keywords, location, industry, remote,
	exclude_companies, red_flags, frequency, method, target, active,
	last_sent_at, next_run_at, match_count, created_at, updated_at`

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListActive returns active alerts ordered by next_run_at so the most
// overdue alerts are processed first when the batch is capped.
func (s *PostgresStore) ListActive(ctx context.Context, limit int) ([]*Alert, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM alerts WHERE active ORDER BY next_run_at LIMIT $1`, alertColumns),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Alert, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM alerts WHERE id = $1`, alertColumns),
		id,
	)

	a, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (s *PostgresStore) Create(ctx context.Context, a *Alert) error {
	if err := a.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO alerts (
			id, owner_id, name, keywords, location, industry, remote,
			exclude_companies, red_flags, frequency, method, target, active,
			next_run_at, match_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, now(), now())`,
		a.ID, a.OwnerID, a.Name,
		a.Criteria.Keywords, a.Criteria.Location, a.Criteria.Industry, a.Criteria.Remote,
		a.Criteria.ExcludeCompanies, a.Criteria.RedFlags,
		string(a.Frequency), string(a.Method), a.Target, a.Active, a.NextRunAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	return nil
}

// Update writes the user-owned fields. Scheduler-owned columns are left to
// UpdateRunState.
func (s *PostgresStore) Update(ctx context.Context, a *Alert) error {
	if err := a.Validate(); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE alerts SET
			name = $2, keywords = $3, location = $4, industry = $5, remote = $6,
			exclude_companies = $7, red_flags = $8, frequency = $9, method = $10,
			target = $11, active = $12, updated_at = now()
		WHERE id = $1`,
		a.ID, a.Name,
		a.Criteria.Keywords, a.Criteria.Location, a.Criteria.Industry, a.Criteria.Remote,
		a.Criteria.ExcludeCompanies, a.Criteria.RedFlags,
		string(a.Frequency), string(a.Method), a.Target, a.Active,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStore) UpdateRunState(ctx context.Context, id string, state RunState) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE alerts SET
			match_count = $2,
			last_sent_at = COALESCE($3, last_sent_at),
			next_run_at = $4,
			updated_at = now()
		WHERE id = $1`,
		id, state.MatchCount, state.LastSentAt, state.NextRunAt,
	)
	if err != nil {
		return fmt.Errorf("update alert run state: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanAlert(row pgx.Row) (*Alert, error) {
	a := &Alert{}
	var frequency, method string

	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name,
		&a.Criteria.Keywords, &a.Criteria.Location, &a.Criteria.Industry, &a.Criteria.Remote,
		&a.Criteria.ExcludeCompanies, &a.Criteria.RedFlags,
		&frequency, &method, &a.Target, &a.Active,
		&a.LastSentAt, &a.NextRunAt, &a.MatchCount,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Frequency = Frequency(frequency)
	a.Method = Method(method)

	return a, nil
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenStore remembers which postings an alert has already been notified
// about, so recurring runs only announce genuinely new matches.
type SeenStore interface {
	// FilterNew returns the subset of jobIDs the alert has not been
	// notified about yet, preserving input order.
	FilterNew(ctx context.Context, alertID string, jobIDs []string) ([]string, error)
	// MarkNotified records jobIDs as announced for the alert.
	MarkNotified(ctx context.Context, alertID string, jobIDs []string) error
}

const defaultSeenTTL = 30 * 24 * time.Hour

// RedisSeenStore keeps one redis set of notified posting ids per alert.
type RedisSeenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSeenStore(rdb *redis.Client, ttl time.Duration) *RedisSeenStore {
	if ttl <= 0 {
		ttl = defaultSeenTTL
	}
	return &RedisSeenStore{rdb: rdb, ttl: ttl}
}

func seenKey(alertID string) string {
	return fmt.Sprintf("jobsentinel:notified:%s", alertID)
}

func (s *RedisSeenStore) FilterNew(ctx context.Context, alertID string, jobIDs []string) ([]string, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}

	members := make([]interface{}, len(jobIDs))
	for i, id := range jobIDs {
		members[i] = id
	}

	seen, err := s.rdb.SMIsMember(ctx, seenKey(alertID), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMISMEMBER: %w", err)
	}

	fresh := make([]string, 0, len(jobIDs))
	for i, id := range jobIDs {
		if !seen[i] {
			fresh = append(fresh, id)
		}
	}

	return fresh, nil
}

func (s *RedisSeenStore) MarkNotified(ctx context.Context, alertID string, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	key := seenKey(alertID)
	members := make([]interface{}, len(jobIDs))
	for i, id := range jobIDs {
		members[i] = id
	}

	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis SADD: %w", err)
	}

	return nil
}

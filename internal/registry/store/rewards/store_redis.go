// Package rewards keeps a best-effort leaderboard of the most-rewarded
// names in a redis sorted set. The registry store remains authoritative;
// this view only serves the read path and may lag or lose credits.
package rewards

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "namegate:rewards:leaderboard"

// RankedName is one leaderboard entry.
type RankedName struct {
	Name  string `json:"name"`
	Total uint64 `json:"total"`
}

// RedisStore maintains the leaderboard via ZINCRBY.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// CreditReward adds amount to the name's cumulative score.
func (s *RedisStore) CreditReward(ctx context.Context, name string, amount uint64) error {
	if err := s.client.ZIncrBy(ctx, leaderboardKey, float64(amount), name).Err(); err != nil {
		return fmt.Errorf("failed to credit reward for %q: %w", name, err)
	}
	return nil
}

// TopRewarded returns up to limit names ordered by cumulative reward,
// highest first.
func (s *RedisStore) TopRewarded(ctx context.Context, limit int64) ([]RankedName, error) {
	if limit <= 0 {
		return nil, nil
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read reward leaderboard: %w", err)
	}
	ranked := make([]RankedName, 0, len(entries))
	for _, entry := range entries {
		name, ok := entry.Member.(string)
		if !ok {
			continue
		}
		ranked = append(ranked, RankedName{Name: name, Total: uint64(entry.Score)})
	}
	return ranked, nil
}

package redis

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studylink-app/studylink/internal/cache"
)

// ScoreAdapter implements cache.ScoreStore on Redis sorted sets.
type ScoreAdapter struct {
	client *Client
}

// NewScoreAdapter creates a sorted-set adapter sharing the given client.
func NewScoreAdapter(client *Client) *ScoreAdapter {
	return &ScoreAdapter{client: client}
}

// IncrementBy delegates to ZINCRBY, which serializes concurrent increments
// on the same member server-side. A missing member is created with score
// delta; scores are allowed to go negative.
func (a *ScoreAdapter) IncrementBy(ctx context.Context, collection, member string, delta int64) error {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	err := a.client.rdb.ZIncrBy(opCtx, collection, float64(delta), member).Err()
	return cache.Wrap("zincrby", err)
}

// TopN reads the n highest-scored members via ZREVRANGE WITHSCORES.
func (a *ScoreAdapter) TopN(ctx context.Context, collection string, n int) ([]cache.ScoreEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	members, err := a.client.rdb.ZRevRangeWithScores(opCtx, collection, 0, int64(n-1)).Result()
	if err != nil {
		return nil, cache.Wrap("zrevrange", err)
	}

	entries := make([]cache.ScoreEntry, 0, len(members))
	for _, m := range members {
		member, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, cache.ScoreEntry{
			Member: member,
			Score:  int64(math.Round(m.Score)),
		})
	}
	return entries, nil
}

// Overwrite clears and repopulates the collection in one pipeline
// (DEL + ZADD + EXPIRE) so concurrent readers never observe a partially
// seeded ranking. ttl <= 0 skips the EXPIRE.
func (a *ScoreAdapter) Overwrite(ctx context.Context, collection string, entries []cache.ScoreEntry, ttl time.Duration) error {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	pipe := a.client.rdb.TxPipeline()
	pipe.Del(opCtx, collection)
	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.Score), Member: e.Member})
		}
		pipe.ZAdd(opCtx, collection, members...)
		if ttl > 0 {
			pipe.Expire(opCtx, collection, ttl)
		}
	}

	_, err := pipe.Exec(opCtx)
	return cache.Wrap("overwrite", err)
}

package redis

import (
	"context"

	"github.com/studylink-app/studylink/internal/cache"
)

// FeedAdapter implements cache.FeedStore on Redis lists.
type FeedAdapter struct {
	client *Client
}

// NewFeedAdapter creates a list adapter sharing the given client.
func NewFeedAdapter(client *Client) *FeedAdapter {
	return &FeedAdapter{client: client}
}

// PushFront prepends value via LPUSH.
func (a *FeedAdapter) PushFront(ctx context.Context, key string, value []byte) error {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	err := a.client.rdb.LPush(opCtx, key, value).Err()
	return cache.Wrap("lpush", err)
}

// RangeRead returns the inclusive index range [start, end] via LRANGE.
// A missing key yields an empty slice.
func (a *FeedAdapter) RangeRead(ctx context.Context, key string, start, end int64) ([][]byte, error) {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	values, err := a.client.rdb.LRange(opCtx, key, start, end).Result()
	if err != nil {
		return nil, cache.Wrap("lrange", err)
	}

	out := make([][]byte, 0, len(values))
	for _, v := range values {
		out = append(out, []byte(v))
	}
	return out, nil
}

// Trim discards entries outside [start, end] via LTRIM.
func (a *FeedAdapter) Trim(ctx context.Context, key string, start, end int64) error {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	err := a.client.rdb.LTrim(opCtx, key, start, end).Err()
	return cache.Wrap("ltrim", err)
}

// DeleteKey removes the list entirely.
func (a *FeedAdapter) DeleteKey(ctx context.Context, key string) error {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	err := a.client.rdb.Del(opCtx, key).Err()
	return cache.Wrap("del", err)
}

// ReplaceAll rewrites the list to exactly orderedValues in one pipeline:
// DEL, then RPUSH in slice order so index 0 stays at the front.
func (a *FeedAdapter) ReplaceAll(ctx context.Context, key string, orderedValues [][]byte) error {
	opCtx, cancel := a.client.opContext(ctx)
	defer cancel()

	pipe := a.client.rdb.TxPipeline()
	pipe.Del(opCtx, key)
	for _, v := range orderedValues {
		pipe.RPush(opCtx, key, v)
	}

	_, err := pipe.Exec(opCtx)
	return cache.Wrap("replaceall", err)
}

// Package cache defines the derived-view store interfaces backing the
// leaderboard and feed read paths. Implementations are disposable: the
// durable store remains authoritative, and every caller treats a cache
// failure as a degraded read or write, never as a request failure.
package cache

import (
	"context"
	"fmt"
	"time"
)

// ScoreEntry is one member of a ranked collection.
type ScoreEntry struct {
	Member string `json:"member"`
	Score  int64  `json:"score"`
}

// ScoreStore exposes sorted-set semantics over a ranked collection keyed
// by "<namespace>:<windowKey>". Scores may go negative; a member is only
// removed by Overwrite or by collection expiry.
type ScoreStore interface {
	// IncrementBy atomically adds delta to member's score, creating the
	// member with score delta if absent.
	IncrementBy(ctx context.Context, collection, member string, delta int64) error

	// TopN returns up to n entries ordered by descending score.
	// A missing collection yields an empty slice, not an error.
	TopN(ctx context.Context, collection string, n int) ([]ScoreEntry, error)

	// Overwrite atomically replaces the collection's contents with entries
	// and applies ttl. ttl <= 0 leaves the collection without an expiry.
	Overwrite(ctx context.Context, collection string, entries []ScoreEntry, ttl time.Duration) error
}

// FeedStore exposes bounded ordered-list semantics. Values are opaque
// serialized snapshots; ordering is newest-first by convention of the
// callers, enforced through PushFront and ReplaceAll.
type FeedStore interface {
	PushFront(ctx context.Context, key string, value []byte) error

	// RangeRead returns values in list order for the inclusive index range
	// [start, end]; end = -1 reads to the end of the list.
	RangeRead(ctx context.Context, key string, start, end int64) ([][]byte, error)

	// Trim discards entries outside the inclusive index range [start, end].
	Trim(ctx context.Context, key string, start, end int64) error

	DeleteKey(ctx context.Context, key string) error

	// ReplaceAll atomically rewrites the list to exactly orderedValues,
	// preserving their order front-to-back.
	ReplaceAll(ctx context.Context, key string, orderedValues [][]byte) error
}

// Error wraps any failure of a cache operation. Services log these and
// continue on the durable path; they must never surface to a caller.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err wrapped as a cache *Error, or nil if err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/studylink-app/studylink/internal/cache"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewClientFromRedis(rdb, time.Second), srv
}

func TestScoreAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("increment creates and accumulates", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewScoreAdapter(client)

		require.NoError(t, adapter.IncrementBy(ctx, "like_ranking:2026-02-10", "post-1", 1))
		require.NoError(t, adapter.IncrementBy(ctx, "like_ranking:2026-02-10", "post-1", 2))
		require.NoError(t, adapter.IncrementBy(ctx, "like_ranking:2026-02-10", "post-2", 1))

		entries, err := adapter.TopN(ctx, "like_ranking:2026-02-10", 10)
		require.NoError(t, err)
		require.Equal(t, []cache.ScoreEntry{
			{Member: "post-1", Score: 3},
			{Member: "post-2", Score: 1},
		}, entries)
	})

	t.Run("negative delta goes below zero", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewScoreAdapter(client)

		require.NoError(t, adapter.IncrementBy(ctx, "c", "post-1", -1))

		entries, err := adapter.TopN(ctx, "c", 10)
		require.NoError(t, err)
		require.Equal(t, int64(-1), entries[0].Score)
	})

	t.Run("missing collection yields empty", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewScoreAdapter(client)

		entries, err := adapter.TopN(ctx, "absent", 10)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("topn bounds the result", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewScoreAdapter(client)

		for i, member := range []string{"a", "b", "c", "d"} {
			require.NoError(t, adapter.IncrementBy(ctx, "c", member, int64(i+1)))
		}

		entries, err := adapter.TopN(ctx, "c", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "d", entries[0].Member)
	})

	t.Run("overwrite replaces contents and sets ttl", func(t *testing.T) {
		client, srv := newTestClient(t)
		adapter := NewScoreAdapter(client)

		require.NoError(t, adapter.IncrementBy(ctx, "c", "stale", 99))
		require.NoError(t, adapter.Overwrite(ctx, "c", []cache.ScoreEntry{
			{Member: "post-1", Score: 5},
			{Member: "post-2", Score: 3},
		}, 48*time.Hour))

		entries, err := adapter.TopN(ctx, "c", 10)
		require.NoError(t, err)
		require.Equal(t, []cache.ScoreEntry{
			{Member: "post-1", Score: 5},
			{Member: "post-2", Score: 3},
		}, entries)
		require.Equal(t, 48*time.Hour, srv.TTL("c"))
	})

	t.Run("overwrite with empty entries clears the collection", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewScoreAdapter(client)

		require.NoError(t, adapter.IncrementBy(ctx, "c", "stale", 1))
		require.NoError(t, adapter.Overwrite(ctx, "c", nil, 0))

		entries, err := adapter.TopN(ctx, "c", 10)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("errors carry the cache wrapper", func(t *testing.T) {
		client, srv := newTestClient(t)
		adapter := NewScoreAdapter(client)
		srv.Close()

		err := adapter.IncrementBy(ctx, "c", "post-1", 1)
		require.Error(t, err)
		var cacheErr *cache.Error
		require.ErrorAs(t, err, &cacheErr)
	})
}

func TestFeedAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("push reads newest first", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewFeedAdapter(client)

		require.NoError(t, adapter.PushFront(ctx, "feed:u", []byte("old")))
		require.NoError(t, adapter.PushFront(ctx, "feed:u", []byte("new")))

		values, err := adapter.RangeRead(ctx, "feed:u", 0, -1)
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("new"), []byte("old")}, values)
	})

	t.Run("missing key yields empty", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewFeedAdapter(client)

		values, err := adapter.RangeRead(ctx, "absent", 0, -1)
		require.NoError(t, err)
		require.Empty(t, values)
	})

	t.Run("trim caps the list", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewFeedAdapter(client)

		for i := 0; i < 5; i++ {
			require.NoError(t, adapter.PushFront(ctx, "feed:u", []byte{byte('a' + i)}))
		}
		require.NoError(t, adapter.Trim(ctx, "feed:u", 0, 2))

		values, err := adapter.RangeRead(ctx, "feed:u", 0, -1)
		require.NoError(t, err)
		require.Len(t, values, 3)
		require.Equal(t, []byte("e"), values[0])
	})

	t.Run("replace all preserves order", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewFeedAdapter(client)

		require.NoError(t, adapter.PushFront(ctx, "feed:u", []byte("stale")))
		require.NoError(t, adapter.ReplaceAll(ctx, "feed:u", [][]byte{
			[]byte("first"), []byte("second"), []byte("third"),
		}))

		values, err := adapter.RangeRead(ctx, "feed:u", 0, -1)
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("first"), []byte("second"), []byte("third")}, values)
	})

	t.Run("delete removes the list", func(t *testing.T) {
		client, _ := newTestClient(t)
		adapter := NewFeedAdapter(client)

		require.NoError(t, adapter.PushFront(ctx, "feed:u", []byte("x")))
		require.NoError(t, adapter.DeleteKey(ctx, "feed:u"))

		values, err := adapter.RangeRead(ctx, "feed:u", 0, -1)
		require.NoError(t, err)
		require.Empty(t, values)
	})
}

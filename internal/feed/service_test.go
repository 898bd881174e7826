package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// memoryFeedStore is an in-memory FeedStore with per-operation error
// injection, faithful to the list semantics the redis adapter provides.
type memoryFeedStore struct {
	lists map[string][][]byte

	pushErr    error
	rangeErr   error
	trimErr    error
	deleteErr  error
	replaceErr error
}

func newMemoryFeedStore() *memoryFeedStore {
	return &memoryFeedStore{lists: make(map[string][][]byte)}
}

func (m *memoryFeedStore) PushFront(ctx context.Context, key string, value []byte) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.lists[key] = append([][]byte{value}, m.lists[key]...)
	return nil
}

func (m *memoryFeedStore) RangeRead(ctx context.Context, key string, start, end int64) ([][]byte, error) {
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	list := m.lists[key]
	if len(list) == 0 {
		return nil, nil
	}
	if end < 0 || end >= int64(len(list)) {
		end = int64(len(list)) - 1
	}
	if start > end {
		return nil, nil
	}
	out := make([][]byte, 0, end-start+1)
	for _, v := range list[start : end+1] {
		out = append(out, v)
	}
	return out, nil
}

func (m *memoryFeedStore) Trim(ctx context.Context, key string, start, end int64) error {
	if m.trimErr != nil {
		return m.trimErr
	}
	list := m.lists[key]
	if len(list) == 0 {
		return nil
	}
	if end < 0 || end >= int64(len(list)) {
		end = int64(len(list)) - 1
	}
	if start > end {
		delete(m.lists, key)
		return nil
	}
	m.lists[key] = list[start : end+1]
	return nil
}

func (m *memoryFeedStore) DeleteKey(ctx context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.lists, key)
	return nil
}

func (m *memoryFeedStore) ReplaceAll(ctx context.Context, key string, orderedValues [][]byte) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.lists[key] = append([][]byte(nil), orderedValues...)
	return nil
}

type fakeNotificationStore struct {
	insertErr error
	inserted  []*v1.NotificationSnapshot

	recent     []v1.NotificationSnapshot
	recentErr  error
	recentHits int

	markReadReceiver string
	markReadErr      error

	markAllReadErr   error
	markAllReadCalls []string
}

func (f *fakeNotificationStore) Insert(ctx context.Context, snapshot *v1.NotificationSnapshot) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, snapshot)
	return nil
}

func (f *fakeNotificationStore) FindRecent(ctx context.Context, receiverID string, limit int) ([]v1.NotificationSnapshot, error) {
	f.recentHits++
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, notificationID string) (string, error) {
	if f.markReadErr != nil {
		return "", f.markReadErr
	}
	return f.markReadReceiver, nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, receiverID string) error {
	if f.markAllReadErr != nil {
		return f.markAllReadErr
	}
	f.markAllReadCalls = append(f.markAllReadCalls, receiverID)
	return nil
}

func testSnapshot(id, receiver string, createdAt time.Time) v1.NotificationSnapshot {
	return v1.NotificationSnapshot{
		ID: id,
		Sender: v1.SenderInfo{
			ID:       "sender-1",
			Username: "alice",
		},
		ReceiverID: receiver,
		Type:       "like",
		CreatedAt:  createdAt,
	}
}

func TestService_Notify(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fills id and timestamp, writes both stores", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)
		svc.nowFn = func() time.Time { return now }

		snapshot := testSnapshot("", "user-9", time.Time{})
		got, err := svc.Notify(context.Background(), &snapshot)
		require.NoError(t, err)
		require.NotEmpty(t, got.ID)
		require.Equal(t, now, got.CreatedAt)
		require.False(t, got.IsRead)
		require.Len(t, notifications.inserted, 1)
		require.Len(t, feeds.lists["feed:user-9"], 1)
	})

	t.Run("missing receiver rejected before insert", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)

		snapshot := testSnapshot("n-1", "", now)
		_, err := svc.Notify(context.Background(), &snapshot)
		require.Error(t, err)
		require.Empty(t, notifications.inserted)
	})

	t.Run("durable failure surfaces and skips cache", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{insertErr: errors.New("db down")}
		svc := NewService(feeds, notifications, 50)

		snapshot := testSnapshot("n-1", "user-9", now)
		_, err := svc.Notify(context.Background(), &snapshot)
		require.Error(t, err)
		require.Empty(t, feeds.lists)
	})

	t.Run("cache push failure is swallowed", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		feeds.pushErr = errors.New("connection refused")
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)

		snapshot := testSnapshot("n-1", "user-9", now)
		_, err := svc.Notify(context.Background(), &snapshot)
		require.NoError(t, err)
		require.Len(t, notifications.inserted, 1)
	})

	t.Run("feed never exceeds cap", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 5)

		for i := 0; i < 12; i++ {
			snapshot := testSnapshot(fmt.Sprintf("n-%d", i), "user-9", now.Add(time.Duration(i)*time.Minute))
			_, err := svc.Notify(context.Background(), &snapshot)
			require.NoError(t, err)
		}

		list := feeds.lists["feed:user-9"]
		require.Len(t, list, 5)

		// Newest first.
		var head v1.NotificationSnapshot
		require.NoError(t, json.Unmarshal(list[0], &head))
		require.Equal(t, "n-11", head.ID)
	})
}

func TestService_Get(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	t.Run("cache hit", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)

		snapshot := testSnapshot("n-1", "user-9", now)
		data, err := json.Marshal(snapshot)
		require.NoError(t, err)
		require.NoError(t, feeds.PushFront(context.Background(), "feed:user-9", data))

		got, err := svc.Get(context.Background(), "user-9", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "n-1", got[0].ID)
		require.Zero(t, notifications.recentHits)
	})

	t.Run("miss seeds cache newest first", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{
			recent: []v1.NotificationSnapshot{
				testSnapshot("n-3", "user-9", now.Add(2*time.Minute)),
				testSnapshot("n-2", "user-9", now.Add(time.Minute)),
				testSnapshot("n-1", "user-9", now),
			},
		}
		svc := NewService(feeds, notifications, 50)

		got, err := svc.Get(context.Background(), "user-9", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "n-3", got[0].ID)

		// The seeded cache holds the full durable read, newest at the head.
		list := feeds.lists["feed:user-9"]
		require.Len(t, list, 3)
		var head, tail v1.NotificationSnapshot
		require.NoError(t, json.Unmarshal(list[0], &head))
		require.NoError(t, json.Unmarshal(list[2], &tail))
		require.Equal(t, "n-3", head.ID)
		require.Equal(t, "n-1", tail.ID)
	})

	t.Run("empty feed returns empty without seeding", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)

		got, err := svc.Get(context.Background(), "user-9", 10)
		require.NoError(t, err)
		require.Empty(t, got)
		require.Empty(t, feeds.lists)
	})

	t.Run("corrupt cache entry triggers durable resync", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		feeds.lists["feed:user-9"] = [][]byte{[]byte("{not json")}
		notifications := &fakeNotificationStore{
			recent: []v1.NotificationSnapshot{testSnapshot("n-1", "user-9", now)},
		}
		svc := NewService(feeds, notifications, 50)

		got, err := svc.Get(context.Background(), "user-9", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, 1, notifications.recentHits)

		var head v1.NotificationSnapshot
		require.NoError(t, json.Unmarshal(feeds.lists["feed:user-9"][0], &head))
		require.Equal(t, "n-1", head.ID)
	})

	t.Run("cache outage falls back to durable store", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		feeds.rangeErr = errors.New("connection refused")
		notifications := &fakeNotificationStore{
			recent: []v1.NotificationSnapshot{testSnapshot("n-1", "user-9", now)},
		}
		svc := NewService(feeds, notifications, 50)

		got, err := svc.Get(context.Background(), "user-9", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("durable failure on miss surfaces", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{recentErr: errors.New("db down")}
		svc := NewService(feeds, notifications, 50)

		_, err := svc.Get(context.Background(), "user-9", 10)
		require.Error(t, err)
	})
}

func TestService_MarkRead(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	t.Run("flips the cached snapshot", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		for _, id := range []string{"n-1", "n-2"} {
			snapshot := testSnapshot(id, "user-9", now)
			data, err := json.Marshal(snapshot)
			require.NoError(t, err)
			require.NoError(t, feeds.PushFront(context.Background(), "feed:user-9", data))
		}
		notifications := &fakeNotificationStore{markReadReceiver: "user-9"}
		svc := NewService(feeds, notifications, 50)

		require.NoError(t, svc.MarkRead(context.Background(), "n-1"))

		list := feeds.lists["feed:user-9"]
		require.Len(t, list, 2)
		for _, raw := range list {
			var snapshot v1.NotificationSnapshot
			require.NoError(t, json.Unmarshal(raw, &snapshot))
			require.Equal(t, snapshot.ID == "n-1", snapshot.IsRead)
		}
	})

	t.Run("unknown notification surfaces not found", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		notifications := &fakeNotificationStore{markReadErr: storage.ErrNotFound}
		svc := NewService(feeds, notifications, 50)

		err := svc.MarkRead(context.Background(), "n-404")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("cache rewrite failure is swallowed", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		snapshot := testSnapshot("n-1", "user-9", now)
		data, err := json.Marshal(snapshot)
		require.NoError(t, err)
		require.NoError(t, feeds.PushFront(context.Background(), "feed:user-9", data))
		feeds.replaceErr = errors.New("connection refused")

		notifications := &fakeNotificationStore{markReadReceiver: "user-9"}
		svc := NewService(feeds, notifications, 50)

		require.NoError(t, svc.MarkRead(context.Background(), "n-1"))
	})
}

func TestService_MarkAllRead(t *testing.T) {
	t.Run("drops the cached feed", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		feeds.lists["feed:user-9"] = [][]byte{[]byte(`{}`)}
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)

		require.NoError(t, svc.MarkAllRead(context.Background(), "user-9"))
		require.Empty(t, feeds.lists)
		require.Equal(t, []string{"user-9"}, notifications.markAllReadCalls)
	})

	t.Run("durable failure surfaces and keeps cache", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		feeds.lists["feed:user-9"] = [][]byte{[]byte(`{}`)}
		notifications := &fakeNotificationStore{markAllReadErr: errors.New("db down")}
		svc := NewService(feeds, notifications, 50)

		require.Error(t, svc.MarkAllRead(context.Background(), "user-9"))
		require.Len(t, feeds.lists["feed:user-9"], 1)
	})

	t.Run("cache invalidation failure is swallowed", func(t *testing.T) {
		feeds := newMemoryFeedStore()
		feeds.deleteErr = errors.New("connection refused")
		notifications := &fakeNotificationStore{}
		svc := NewService(feeds, notifications, 50)

		require.NoError(t, svc.MarkAllRead(context.Background(), "user-9"))
	})
}

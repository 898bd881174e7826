// Package feed maintains the bounded per-user notification feed: a capped,
// newest-first list of notification snapshots served from the feed cache
// with read-through against the durable notification store.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/cache"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// DefaultCap is the feed length cap used when none is configured.
const DefaultCap = 50

const keyPrefix = "feed:"

// Service owns the notification feed's dual-store choreography. The
// durable store is authoritative; every cache interaction is best effort
// and invisible to the caller's result.
type Service struct {
	feeds         cache.FeedStore
	notifications storage.NotificationStore
	cap           int

	nowFn func() time.Time
}

// NewService creates a feed service with the given length cap.
func NewService(feeds cache.FeedStore, notifications storage.NotificationStore, capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Service{
		feeds:         feeds,
		notifications: notifications,
		cap:           capacity,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func feedKey(receiverID string) string {
	return keyPrefix + receiverID
}

// Notify persists a notification and appends its snapshot to the
// receiver's cached feed. The durable insert must succeed for the call to
// succeed; the cache append never fails it.
func (s *Service) Notify(ctx context.Context, snapshot *v1.NotificationSnapshot) (*v1.NotificationSnapshot, error) {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = s.nowFn()
	}
	snapshot.IsRead = false

	if snapshot.ReceiverID == "" {
		return nil, fmt.Errorf("notification receiver is required")
	}
	if snapshot.Sender.ID == "" {
		return nil, fmt.Errorf("notification sender is required")
	}

	if err := s.notifications.Insert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	s.appendToCache(ctx, snapshot)
	return snapshot, nil
}

// appendToCache pushes the snapshot to the front of the cached feed and
// trims to the cap. Failures are logged and swallowed.
func (s *Service) appendToCache(ctx context.Context, snapshot *v1.NotificationSnapshot) {
	key := feedKey(snapshot.ReceiverID)

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Warn("Failed to marshal notification snapshot for feed cache",
			"notification_id", snapshot.ID, "error", err)
		return
	}

	if err := s.feeds.PushFront(ctx, key, data); err != nil {
		slog.Warn("Feed cache push failed after durable write",
			"key", key, "notification_id", snapshot.ID, "error", err)
		return
	}
	if err := s.feeds.Trim(ctx, key, 0, int64(s.cap-1)); err != nil {
		slog.Warn("Feed cache trim failed", "key", key, "error", err)
	}
}

// Get returns up to limit notification snapshots for the receiver, newest
// first. Cache hit returns directly; a miss reads the durable store and
// seeds the cache for subsequent reads.
func (s *Service) Get(ctx context.Context, receiverID string, limit int) ([]v1.NotificationSnapshot, error) {
	if limit <= 0 || limit > s.cap {
		limit = s.cap
	}
	key := feedKey(receiverID)

	cached, err := s.feeds.RangeRead(ctx, key, 0, int64(limit-1))
	if err != nil {
		slog.Warn("Feed cache read failed, falling back to durable store",
			"key", key, "error", err)
	}
	if len(cached) > 0 {
		snapshots, decodeErr := decodeSnapshots(cached)
		if decodeErr == nil {
			return snapshots, nil
		}
		// A corrupt entry invalidates the whole cached feed; the durable
		// read below reseeds it.
		slog.Warn("Feed cache entry corrupt, resyncing from durable store",
			"key", key, "error", decodeErr)
	}

	snapshots, err := s.notifications.FindRecent(ctx, receiverID, s.cap)
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	if len(snapshots) > 0 {
		s.seedCache(ctx, key, snapshots)
	}

	if len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

// seedCache repopulates the cached feed from a newest-first durable read.
// Entries are pushed oldest-first so the newest ends up at the head.
func (s *Service) seedCache(ctx context.Context, key string, snapshots []v1.NotificationSnapshot) {
	if err := s.feeds.DeleteKey(ctx, key); err != nil {
		slog.Warn("Feed cache delete failed during seed", "key", key, "error", err)
		return
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		data, err := json.Marshal(snapshots[i])
		if err != nil {
			slog.Warn("Failed to marshal notification snapshot during seed",
				"notification_id", snapshots[i].ID, "error", err)
			return
		}
		if err := s.feeds.PushFront(ctx, key, data); err != nil {
			slog.Warn("Feed cache push failed during seed", "key", key, "error", err)
			return
		}
	}

	if err := s.feeds.Trim(ctx, key, 0, int64(s.cap-1)); err != nil {
		slog.Warn("Feed cache trim failed during seed", "key", key, "error", err)
	}
}

// MarkRead flips one notification's read flag durably, then rewrites the
// matching snapshot inside the receiver's cached feed. The rewrite is a
// linear scan, acceptable because the feed is capped and small; a
// concurrent rewrite losing this update is resolved by the next
// miss-triggered resync.
func (s *Service) MarkRead(ctx context.Context, notificationID string) error {
	receiverID, err := s.notifications.MarkRead(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	key := feedKey(receiverID)
	cached, err := s.feeds.RangeRead(ctx, key, 0, -1)
	if err != nil || len(cached) == 0 {
		if err != nil {
			slog.Warn("Feed cache read failed during read-flag sync", "key", key, "error", err)
		}
		return nil
	}

	updated := make([][]byte, 0, len(cached))
	for _, raw := range cached {
		var snapshot v1.NotificationSnapshot
		if unmarshalErr := json.Unmarshal(raw, &snapshot); unmarshalErr != nil {
			// Keep the entry as-is; the durable copy stays correct.
			updated = append(updated, raw)
			continue
		}
		if snapshot.ID == notificationID {
			snapshot.IsRead = true
			if data, marshalErr := json.Marshal(&snapshot); marshalErr == nil {
				updated = append(updated, data)
				continue
			}
		}
		updated = append(updated, raw)
	}

	if err := s.feeds.ReplaceAll(ctx, key, updated); err != nil {
		slog.Warn("Feed cache rewrite failed during read-flag sync", "key", key, "error", err)
		return nil
	}
	if err := s.feeds.Trim(ctx, key, 0, int64(s.cap-1)); err != nil {
		slog.Warn("Feed cache trim failed during read-flag sync", "key", key, "error", err)
	}
	return nil
}

// MarkAllRead bulk-updates the receiver's durable notifications and drops
// the cached feed entirely; the next read repopulates it. Correctness over
// cache hit rate for the bulk case.
func (s *Service) MarkAllRead(ctx context.Context, receiverID string) error {
	if err := s.notifications.MarkAllRead(ctx, receiverID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	if err := s.feeds.DeleteKey(ctx, feedKey(receiverID)); err != nil {
		slog.Warn("Feed cache invalidation failed after bulk read-flag update",
			"receiver_id", receiverID, "error", err)
	}
	return nil
}

func decodeSnapshots(raw [][]byte) ([]v1.NotificationSnapshot, error) {
	snapshots := make([]v1.NotificationSnapshot, 0, len(raw))
	for _, r := range raw {
		var s v1.NotificationSnapshot
		if err := json.Unmarshal(r, &s); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

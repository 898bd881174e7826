package hashtag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studylink-app/studylink/internal/core/storage"
	"github.com/studylink-app/studylink/internal/window"
)

// EventRecorder is the slice of the leaderboard service the hashtag
// pipeline needs: durable-first event recording for one board.
type EventRecorder interface {
	RecordEvent(ctx context.Context, boardName, member string, delta int64) error
}

// Service records extracted hashtags: a durable per-day counter upsert
// plus a trending-board event per tag.
type Service struct {
	tags      storage.HashtagStore
	recorder  EventRecorder
	boardName string

	boundaryOffsetHours int
	tzOffsetHours       int

	nowFn func() time.Time
}

// NewService creates a hashtag service recording onto the named board.
func NewService(
	tags storage.HashtagStore,
	recorder EventRecorder,
	boardName string,
	boundaryOffsetHours int,
	tzOffsetHours int,
) *Service {
	return &Service{
		tags:                tags,
		recorder:            recorder,
		boardName:           boardName,
		boundaryOffsetHours: boundaryOffsetHours,
		tzOffsetHours:       tzOffsetHours,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Record extracts the hashtags in text and records each occurrence. A
// failure on one tag is logged and does not stop the others; the call
// returns the extracted tags either way, matching the fire-and-forget
// nature of hashtag counting relative to the post write that triggers it.
func (s *Service) Record(ctx context.Context, text string) []string {
	tags := Extract(text)
	if len(tags) == 0 {
		return nil
	}

	rankingDate := window.DailyKey(s.nowFn(), s.boundaryOffsetHours, s.tzOffsetHours)
	for _, tag := range tags {
		if err := s.tags.IncrementCount(ctx, tag, rankingDate); err != nil {
			slog.Error("Failed to increment hashtag counter",
				"tag", tag, "ranking_date", rankingDate, "error", err)
			continue
		}
		if err := s.recorder.RecordEvent(ctx, s.boardName, tag, 1); err != nil {
			slog.Error("Failed to record hashtag trending event",
				"tag", tag, "board", s.boardName, "error", err)
		}
	}
	return tags
}

// DailyCounts returns the current day's hashtag usage from the durable
// counter table. This is the same data the trending board ranks, read
// straight from the counters without going through the cache.
func (s *Service) DailyCounts(ctx context.Context, limit int) ([]storage.TagCount, error) {
	rankingDate := window.DailyKey(s.nowFn(), s.boundaryOffsetHours, s.tzOffsetHours)
	counts, err := s.tags.TopCounts(ctx, rankingDate, limit)
	if err != nil {
		return nil, fmt.Errorf("daily hashtag counts: %w", err)
	}
	if counts == nil {
		counts = []storage.TagCount{}
	}
	return counts, nil
}

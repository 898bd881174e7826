// Package leaderboard orchestrates the windowed ranking read and write
// paths: read-through with reseed against the ranked score cache, and
// durable-first best-effort write-through for engagement events.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/cache"
	"github.com/studylink-app/studylink/internal/core/ranking"
	"github.com/studylink-app/studylink/internal/core/storage"
	"github.com/studylink-app/studylink/internal/window"
)

// ErrUnknownBoard marks requests naming a board that is not configured.
var ErrUnknownBoard = errors.New("unknown board")

// Service serves the three production leaderboards (and any other
// configured board) from the ranked score cache, falling back to the
// durable aggregation on a miss. The durable store is authoritative:
// whenever the two disagree, a reseed overwrites the cache with the
// aggregation's result.
type Service struct {
	boards map[string]ranking.Board
	scores cache.ScoreStore
	events storage.EngagementStore

	boundaryOffsetHours int
	tzOffsetHours       int

	nowFn func() time.Time
}

// NewService creates a leaderboard service over the given boards.
func NewService(
	boards []ranking.Board,
	scores cache.ScoreStore,
	events storage.EngagementStore,
	boundaryOffsetHours int,
	tzOffsetHours int,
) *Service {
	boardMap := make(map[string]ranking.Board, len(boards))
	for _, b := range boards {
		boardMap[b.Name] = b
	}

	return &Service{
		boards:              boardMap,
		scores:              scores,
		events:              events,
		boundaryOffsetHours: boundaryOffsetHours,
		tzOffsetHours:       tzOffsetHours,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Boards returns the configured board declarations.
func (s *Service) Boards() []ranking.Board {
	boards := make([]ranking.Board, 0, len(s.boards))
	for _, b := range s.boards {
		boards = append(boards, b)
	}
	return boards
}

// TopN returns the current window's ranking for the named board.
//
// Read path: cache hit returns directly; on a miss the durable aggregation
// recomputes the ranking, the cache is reseeded best-effort, and the
// aggregated result is returned either way. An empty window yields an
// empty ranking, not an error.
func (s *Service) TopN(ctx context.Context, boardName string) ([]v1.RankingEntry, error) {
	board, ok := s.boards[boardName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBoard, boardName)
	}

	now := s.nowFn()
	collection := s.collectionKey(board, now)

	cached, err := s.scores.TopN(ctx, collection, board.Limit)
	if err != nil {
		slog.Warn("Ranked cache read failed, falling back to durable aggregation",
			"board", board.Name, "collection", collection, "error", err)
	}
	if len(cached) > 0 {
		return toRanking(cached), nil
	}

	start, end := window.Range(now, board.Window, s.boundaryOffsetHours, s.tzOffsetHours)
	totals, err := s.events.AggregateTotals(ctx, board.SourceEvent, start, end, board.Limit)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s ranking: %w", board.Name, err)
	}
	if len(totals) == 0 {
		return []v1.RankingEntry{}, nil
	}

	entries := make([]cache.ScoreEntry, 0, len(totals))
	for _, t := range totals {
		entries = append(entries, cache.ScoreEntry{Member: t.Member, Score: t.Total})
	}

	// Reseeding is an optimization: a failure here must not affect the
	// response, which already carries the authoritative aggregation.
	if err := s.scores.Overwrite(ctx, collection, entries, board.TTL()); err != nil {
		slog.Warn("Ranked cache reseed failed",
			"board", board.Name, "collection", collection, "error", err)
	} else {
		slog.Debug("Reseeded ranked cache from durable aggregation",
			"board", board.Name, "collection", collection, "entries", len(entries))
	}

	return toRanking(entries), nil
}

// RecordEvent records one engagement event for the named board. The
// durable insert must succeed for the call to succeed; the cache
// increment afterwards is best effort, and a failure there only widens
// the divergence window closed by the next miss-triggered reseed.
// Negative deltas (unlike) decrement the cached score without any floor.
func (s *Service) RecordEvent(ctx context.Context, boardName, member string, delta int64) error {
	board, ok := s.boards[boardName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBoard, boardName)
	}

	now := s.nowFn()
	event := &v1.EngagementEvent{
		ID:         uuid.NewString(),
		Type:       board.SourceEvent,
		Member:     member,
		Delta:      delta,
		OccurredAt: now,
		RecordedAt: now,
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid engagement event: %w", err)
	}

	if err := s.events.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("record %s event: %w", board.Name, err)
	}

	collection := s.collectionKey(board, now)
	if err := s.scores.IncrementBy(ctx, collection, member, delta); err != nil {
		slog.Warn("Ranked cache increment failed after durable write",
			"board", board.Name, "collection", collection,
			"member", member, "delta", delta, "error", err)
	}

	return nil
}

func (s *Service) collectionKey(board ranking.Board, now time.Time) string {
	key := window.Key(now, board.Window, s.boundaryOffsetHours, s.tzOffsetHours)
	return board.Namespace + ":" + key
}

// toRanking assigns ranks after normalizing the order to score descending
// with ties broken on member ascending. The ranked cache returns tied
// members in reverse-lex order, which would make a cache hit disagree
// with the durable aggregation it was seeded from.
func toRanking(entries []cache.ScoreEntry) []v1.RankingEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Member < entries[j].Member
	})

	out := make([]v1.RankingEntry, 0, len(entries))
	for i, e := range entries {
		out = append(out, v1.RankingEntry{Rank: i + 1, Member: e.Member, Score: e.Score})
	}
	return out
}

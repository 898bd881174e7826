package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrActiveSessionExists is returned by StartSession when the user already
// has an active learning session.
var ErrActiveSessionExists = errors.New("active learning session already exists")

// MemberTotal is one row of a durable ranking aggregation.
type MemberTotal struct {
	Member string
	Total  int64
}

// EngagementStore persists leaderboard events and reproduces the
// ground-truth ranking by aggregation. The cached rankings are derived
// views of exactly this data.
type EngagementStore interface {
	InsertEvent(ctx context.Context, event *v1.EngagementEvent) error

	// AggregateTotals groups events of eventType in [start, end) by member,
	// sums their deltas, and returns up to limit members ordered by total
	// descending. This defines the ranking policy every cache reseed must
	// reproduce.
	AggregateTotals(ctx context.Context, eventType string, start, end time.Time, limit int) ([]MemberTotal, error)
}

// TagCount is one row of the per-day hashtag counter view.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// HashtagStore keeps the per-day durable hashtag counters.
type HashtagStore interface {
	// IncrementCount upserts the (tag, rankingDate) counter by one.
	IncrementCount(ctx context.Context, tag, rankingDate string) error

	// TopCounts returns up to limit counters for rankingDate, ordered by
	// count descending with ties broken on tag.
	TopCounts(ctx context.Context, rankingDate string, limit int) ([]TagCount, error)
}

// NotificationStore owns the authoritative notification records.
type NotificationStore interface {
	Insert(ctx context.Context, snapshot *v1.NotificationSnapshot) error

	// FindRecent returns up to limit notifications for receiverID,
	// newest first.
	FindRecent(ctx context.Context, receiverID string, limit int) ([]v1.NotificationSnapshot, error)

	// MarkRead flips the read flag of one notification and returns its
	// receiver so the caller can resync that user's cached feed.
	MarkRead(ctx context.Context, id string) (receiverID string, err error)

	MarkAllRead(ctx context.Context, receiverID string) error
}

// SessionStore owns learning sessions and their aggregations.
type SessionStore interface {
	StartSession(ctx context.Context, session *v1.LearningSession) error

	// StopActiveSession closes the user's active session at endTime,
	// computing the duration in minutes. Returns ErrNotFound when the
	// user has no active session.
	StopActiveSession(ctx context.Context, userID string, endTime time.Time) (*v1.LearningSession, error)

	// ActiveSession returns the user's active session, or (nil, nil).
	ActiveSession(ctx context.Context, userID string) (*v1.LearningSession, error)

	ListSessions(ctx context.Context, userID string, start, end *time.Time, limit int) ([]v1.LearningSession, error)

	// SumMinutes totals finished-session minutes for userID since the
	// given time; a zero time totals everything.
	SumMinutes(ctx context.Context, userID string, since time.Time) (decimal.Decimal, error)

	// DailyMinutes returns per-day totals since the given time, ascending
	// by date.
	DailyMinutes(ctx context.Context, userID string, since time.Time) ([]v1.DailyMinutes, error)

	// StudyDays returns up to limit distinct study dates (YYYY-MM-DD),
	// most recent first.
	StudyDays(ctx context.Context, userID string, limit int) ([]string, error)
}

// GoalStore owns learning goals, upserted by (user, type).
type GoalStore interface {
	UpsertGoal(ctx context.Context, goal *v1.LearningGoal) error
	ListGoals(ctx context.Context, userID string) ([]v1.LearningGoal, error)
	DeactivateGoal(ctx context.Context, id string) error
}

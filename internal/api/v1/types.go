// Package v1 holds the wire types shared by the HTTP layer, the services
// and the storage adapters.
package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EngagementEvent is one durable write-side event feeding a leaderboard:
// a like, an unlike, a hashtag occurrence, or a finished study session.
// The durable event log is the source of truth; every cached ranking must
// be reproducible by summing deltas per member over a window.
type EngagementEvent struct {
	// ID is assigned server-side on ingestion.
	ID string `json:"id"`

	// Type is the board source event name, e.g. "post.liked".
	Type string `json:"type"`

	// Member is the ranked entity: a post ID, a hashtag, a user ID.
	Member string `json:"member"`

	// Delta is the score contribution. Negative for toggles (unlike).
	Delta int64 `json:"delta"`

	// OccurredAt is the client-side event time; window membership is
	// decided on this timestamp.
	OccurredAt time.Time `json:"occurred_at"`

	// RecordedAt is when the service accepted the event.
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate ensures the event carries the attributes the durable write needs.
func (e *EngagementEvent) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("type is required")
	}
	if e.Member == "" {
		return fmt.Errorf("member is required")
	}
	if e.Delta == 0 {
		return fmt.Errorf("delta must be non-zero")
	}
	return nil
}

// RankingEntry is one row of a leaderboard response.
type RankingEntry struct {
	Rank   int    `json:"rank"`
	Member string `json:"member"`
	Score  int64  `json:"score"`
}

// SenderInfo is the denormalized sender display data duplicated into each
// cached notification snapshot so feed reads avoid a per-entry join.
type SenderInfo struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// NotificationSnapshot is the feed representation of a notification. The
// durable row is authoritative; the cached copy may lag transiently and
// reconverges on any read-through miss or explicit resync.
type NotificationSnapshot struct {
	ID         string     `json:"id"`
	Sender     SenderInfo `json:"sender"`
	ReceiverID string     `json:"receiver_id"`
	Type       string     `json:"type"`
	PostID     string     `json:"post_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	IsRead     bool       `json:"is_read"`
}

// LearningSession is one study session. DurationMinutes is computed when
// the session stops and is the weekly ranking's score contribution.
type LearningSession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Subject         string     `json:"subject,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int64      `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
}

// LearningGoal is a per-user study target, upserted by (user, type).
type LearningGoal struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"` // daily | weekly | monthly
	TargetMinutes int64     `json:"target_minutes"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DailyMinutes is one day of the stats breakdown. Totals come back from
// SQL SUM as NUMERIC, so they are carried as decimals end to end.
type DailyMinutes struct {
	Date         string          `json:"date"`
	TotalMinutes decimal.Decimal `json:"total_minutes"`
}

// LearningStats is the per-user study time summary.
type LearningStats struct {
	Today      decimal.Decimal `json:"today"`
	Week       decimal.Decimal `json:"week"`
	Month      decimal.Decimal `json:"month"`
	Total      decimal.Decimal `json:"total"`
	DailyStats []DailyMinutes  `json:"daily_stats"`
}

// StreakInfo summarizes consecutive study days.
type StreakInfo struct {
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
	LearningDates []string `json:"learning_dates"`
}

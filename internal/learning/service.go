// Package learning manages study sessions, per-user study statistics,
// streaks and goals. Stopping a session feeds the weekly learning
// leaderboard with the session's duration.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/core/storage"
)

const (
	defaultSessionLimit = 50
	streakLookbackDays  = 100
	streakDatesReturned = 30
)

// ErrInvalidGoal marks goal validation errors that should return HTTP 400.
var ErrInvalidGoal = errors.New("invalid learning goal")

// EventRecorder is the slice of the leaderboard service the learning
// module needs.
type EventRecorder interface {
	RecordEvent(ctx context.Context, boardName, member string, delta int64) error
}

// Service implements the learning session and statistics operations.
type Service struct {
	sessions  storage.SessionStore
	goals     storage.GoalStore
	recorder  EventRecorder
	boardName string

	nowFn func() time.Time
}

// NewService creates a learning service recording finished sessions onto
// the named weekly board.
func NewService(
	sessions storage.SessionStore,
	goals storage.GoalStore,
	recorder EventRecorder,
	boardName string,
) *Service {
	return &Service{
		sessions:  sessions,
		goals:     goals,
		recorder:  recorder,
		boardName: boardName,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// StartSession opens a new active session for the user. Returns
// storage.ErrActiveSessionExists when one is already running.
func (s *Service) StartSession(ctx context.Context, userID, subject string) (*v1.LearningSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	session := &v1.LearningSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   subject,
		StartTime: s.nowFn(),
	}
	if err := s.sessions.StartSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// StopSession closes the user's active session and records its duration
// into the weekly learning ranking. The session stop is the primary
// durable operation; a failed ranking event afterwards is logged and
// does not undo the stop.
func (s *Service) StopSession(ctx context.Context, userID string) (*v1.LearningSession, error) {
	session, err := s.sessions.StopActiveSession(ctx, userID, s.nowFn())
	if err != nil {
		return nil, err
	}

	if session.DurationMinutes > 0 {
		if err := s.recorder.RecordEvent(ctx, s.boardName, userID, session.DurationMinutes); err != nil {
			slog.Error("Failed to record learning minutes into weekly ranking",
				"user_id", userID, "minutes", session.DurationMinutes, "error", err)
		}
	}

	return session, nil
}

// ActiveSession returns the user's running session, or nil.
func (s *Service) ActiveSession(ctx context.Context, userID string) (*v1.LearningSession, error) {
	return s.sessions.ActiveSession(ctx, userID)
}

// ListSessions returns finished sessions newest first, optionally bounded
// by a start-time range.
func (s *Service) ListSessions(ctx context.Context, userID string, start, end *time.Time, limit int) ([]v1.LearningSession, error) {
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	return s.sessions.ListSessions(ctx, userID, start, end, limit)
}

// Stats aggregates the user's study minutes for today, this week, this
// month and all time, plus a 7-day daily breakdown. The five aggregations
// are independent reads, so they run concurrently.
func (s *Service) Stats(ctx context.Context, userID string) (*v1.LearningStats, error) {
	now := s.nowFn()

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// Sunday-based week start, matching the client's stats display.
	weekStart := todayStart.AddDate(0, 0, -int(now.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var stats v1.LearningStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.sessions.SumMinutes(gctx, userID, todayStart)
		if err != nil {
			return fmt.Errorf("today total: %w", err)
		}
		stats.Today = total
		return nil
	})
	g.Go(func() error {
		total, err := s.sessions.SumMinutes(gctx, userID, weekStart)
		if err != nil {
			return fmt.Errorf("week total: %w", err)
		}
		stats.Week = total
		return nil
	})
	g.Go(func() error {
		total, err := s.sessions.SumMinutes(gctx, userID, monthStart)
		if err != nil {
			return fmt.Errorf("month total: %w", err)
		}
		stats.Month = total
		return nil
	})
	g.Go(func() error {
		total, err := s.sessions.SumMinutes(gctx, userID, time.Time{})
		if err != nil {
			return fmt.Errorf("all-time total: %w", err)
		}
		stats.Total = total
		return nil
	})
	g.Go(func() error {
		days, err := s.sessions.DailyMinutes(gctx, userID, now.AddDate(0, 0, -7))
		if err != nil {
			return fmt.Errorf("daily breakdown: %w", err)
		}
		stats.DailyStats = days
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate learning stats: %w", err)
	}

	if stats.DailyStats == nil {
		stats.DailyStats = []v1.DailyMinutes{}
	}
	return &stats, nil
}

// Streak computes current and longest consecutive-study-day runs from the
// user's distinct study dates.
func (s *Service) Streak(ctx context.Context, userID string) (*v1.StreakInfo, error) {
	dates, err := s.sessions.StudyDays(ctx, userID, streakLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("load study days: %w", err)
	}

	info := computeStreaks(dates, s.nowFn())
	return info, nil
}

// SetGoal upserts the user's goal for one goal type.
func (s *Service) SetGoal(ctx context.Context, userID, goalType string, targetMinutes int64) (*v1.LearningGoal, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidGoal)
	}
	if !validGoalType(goalType) {
		return nil, fmt.Errorf("%w: type %q must be daily, weekly or monthly", ErrInvalidGoal, goalType)
	}
	if targetMinutes <= 0 {
		return nil, fmt.Errorf("%w: target minutes must be > 0", ErrInvalidGoal)
	}

	goal := &v1.LearningGoal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          goalType,
		TargetMinutes: targetMinutes,
		UpdatedAt:     s.nowFn(),
	}
	if err := s.goals.UpsertGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Goals lists the user's active goals.
func (s *Service) Goals(ctx context.Context, userID string) ([]v1.LearningGoal, error) {
	return s.goals.ListGoals(ctx, userID)
}

// RemoveGoal soft-deletes a goal.
func (s *Service) RemoveGoal(ctx context.Context, id string) error {
	return s.goals.DeactivateGoal(ctx, id)
}

func validGoalType(t string) bool {
	return t == "daily" || t == "weekly" || t == "monthly"
}

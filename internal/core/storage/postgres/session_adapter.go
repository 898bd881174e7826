package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// SessionAdapter implements storage.SessionStore for PostgreSQL.
type SessionAdapter struct {
	db *sql.DB
}

// NewSessionAdapter creates a session adapter sharing the given connection.
func NewSessionAdapter(db *sql.DB) *SessionAdapter {
	return &SessionAdapter{db: db}
}

// StartSession inserts a new active session unless the user already has
// one. The guard is inside the INSERT ... WHERE NOT EXISTS, so two
// concurrent starts cannot both succeed.
func (a *SessionAdapter) StartSession(ctx context.Context, session *v1.LearningSession) error {
	res, err := a.db.ExecContext(ctx, queryInsertSession,
		session.ID,
		session.UserID,
		session.Subject,
		session.StartTime,
	)
	if err != nil {
		return fmt.Errorf("failed to start learning session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrActiveSessionExists
	}

	session.IsActive = true
	return nil
}

// StopActiveSession closes the user's active session and returns it with
// the computed duration. The duration is computed in SQL against the
// stored start_time.
func (a *SessionAdapter) StopActiveSession(ctx context.Context, userID string, endTime time.Time) (*v1.LearningSession, error) {
	var (
		session v1.LearningSession
		ended   time.Time
	)
	err := a.db.QueryRowContext(ctx, queryStopActiveSession, userID, endTime).Scan(
		&session.ID,
		&session.UserID,
		&session.Subject,
		&session.StartTime,
		&ended,
		&session.DurationMinutes,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stop learning session: %w", err)
	}

	session.EndTime = &ended
	session.IsActive = false
	return &session, nil
}

// ActiveSession returns the user's active session, or (nil, nil) when the
// user is not studying.
func (a *SessionAdapter) ActiveSession(ctx context.Context, userID string) (*v1.LearningSession, error) {
	var session v1.LearningSession
	err := a.db.QueryRowContext(ctx, queryActiveSession, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Subject,
		&session.StartTime,
		&session.DurationMinutes,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active session: %w", err)
	}

	session.IsActive = true
	return &session, nil
}

// ListSessions returns finished sessions newest first, optionally bounded
// by a start_time range. The filter is assembled dynamically because both
// bounds are optional.
func (a *SessionAdapter) ListSessions(ctx context.Context, userID string, start, end *time.Time, limit int) ([]v1.LearningSession, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, subject, start_time, end_time, duration_minutes
		FROM learning_sessions
		WHERE user_id = $1 AND is_active = FALSE
	`)
	args := []interface{}{userID}

	if start != nil {
		args = append(args, *start)
		sb.WriteString(" AND start_time >= $" + strconv.Itoa(len(args)))
	}
	if end != nil {
		args = append(args, *end)
		sb.WriteString(" AND start_time <= $" + strconv.Itoa(len(args)))
	}

	args = append(args, limit)
	sb.WriteString(" ORDER BY start_time DESC LIMIT $" + strconv.Itoa(len(args)))

	rows, err := a.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning sessions: %w", err)
	}
	defer rows.Close()

	var sessions []v1.LearningSession
	for rows.Next() {
		var (
			s     v1.LearningSession
			ended sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Subject, &s.StartTime, &ended, &s.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			s.EndTime = &t
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// SumMinutes totals finished-session minutes since the given time. SUM
// over BIGINT comes back as NUMERIC, scanned into a decimal.
func (a *SessionAdapter) SumMinutes(ctx context.Context, userID string, since time.Time) (decimal.Decimal, error) {
	var raw string
	err := a.db.QueryRowContext(ctx, querySumMinutes, userID, since).Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum study minutes: %w", err)
	}

	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse study minute total %q: %w", raw, err)
	}
	return total, nil
}

// DailyMinutes returns per-day totals since the given time, ascending.
func (a *SessionAdapter) DailyMinutes(ctx context.Context, userID string, since time.Time) ([]v1.DailyMinutes, error) {
	rows, err := a.db.QueryContext(ctx, queryDailyMinutes, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily study minutes: %w", err)
	}
	defer rows.Close()

	var days []v1.DailyMinutes
	for rows.Next() {
		var (
			day v1.DailyMinutes
			raw string
		)
		if err := rows.Scan(&day.Date, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan daily minutes row: %w", err)
		}
		total, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse daily minute total %q: %w", raw, err)
		}
		day.TotalMinutes = total
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily minutes: %w", err)
	}

	return days, nil
}

// StudyDays returns distinct study dates, most recent first.
func (a *SessionAdapter) StudyDays(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, queryStudyDays, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query study days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan study day: %w", err)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study days: %w", err)
	}

	return days, nil
}

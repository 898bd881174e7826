package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// EngagementAdapter implements storage.EngagementStore for PostgreSQL.
// The insert and aggregation statements are on every like/unlike and every
// ranking cache miss respectively, so both are prepared at startup.
type EngagementAdapter struct {
	db            *sql.DB
	stmtInsert    *sql.Stmt
	stmtAggregate *sql.Stmt
}

// NewEngagementAdapter prepares the engagement statements over the shared
// connection.
func NewEngagementAdapter(db *sql.DB) (*EngagementAdapter, error) {
	stmtInsert, err := db.Prepare(queryInsertEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insertEvent statement: %w", err)
	}

	stmtAggregate, err := db.Prepare(queryAggregateTotals)
	if err != nil {
		stmtInsert.Close()
		return nil, fmt.Errorf("failed to prepare aggregateTotals statement: %w", err)
	}

	return &EngagementAdapter{
		db:            db,
		stmtInsert:    stmtInsert,
		stmtAggregate: stmtAggregate,
	}, nil
}

// InsertEvent appends one event to the durable log. This write must
// succeed before any cache increment is attempted.
func (a *EngagementAdapter) InsertEvent(ctx context.Context, event *v1.EngagementEvent) error {
	_, err := a.stmtInsert.ExecContext(ctx,
		event.ID,
		event.Type,
		event.Member,
		event.Delta,
		event.OccurredAt,
		event.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert engagement event: %w", err)
	}

	slog.Debug("[Postgres] Inserted engagement event",
		"event_id", event.ID,
		"event_type", event.Type,
		"member", event.Member,
		"delta", event.Delta)
	return nil
}

// AggregateTotals runs the group-by-member sum over [start, end),
// descending by total. This is the ranking the cache is reseeded from.
func (a *EngagementAdapter) AggregateTotals(ctx context.Context, eventType string, start, end time.Time, limit int) ([]storage.MemberTotal, error) {
	rows, err := a.stmtAggregate.QueryContext(ctx, eventType, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate engagement totals: %w", err)
	}
	defer rows.Close()

	var totals []storage.MemberTotal
	for rows.Next() {
		var mt storage.MemberTotal
		if err := rows.Scan(&mt.Member, &mt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		totals = append(totals, mt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}

	return totals, nil
}

// Close closes the prepared statements during graceful shutdown.
func (a *EngagementAdapter) Close() error {
	var firstErr error

	if err := a.stmtInsert.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close insertEvent statement: %w", err)
	}

	if err := a.stmtAggregate.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close aggregateTotals statement: %w", err)
	}

	return firstErr
}

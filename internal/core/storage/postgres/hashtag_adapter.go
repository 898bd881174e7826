package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/studylink-app/studylink/internal/core/storage"
)

// HashtagAdapter implements storage.HashtagStore for PostgreSQL.
type HashtagAdapter struct {
	db *sql.DB
}

// NewHashtagAdapter creates a hashtag adapter sharing the given connection.
func NewHashtagAdapter(db *sql.DB) *HashtagAdapter {
	return &HashtagAdapter{db: db}
}

// IncrementCount upserts the (tag, rankingDate) counter by one. The upsert
// is a single statement, so concurrent increments on the same tag never
// lose updates.
func (a *HashtagAdapter) IncrementCount(ctx context.Context, tag, rankingDate string) error {
	if _, err := a.db.ExecContext(ctx, queryUpsertHashtagCount, tag, rankingDate); err != nil {
		return fmt.Errorf("failed to increment hashtag count for %q: %w", tag, err)
	}
	return nil
}

// TopCounts returns the day's most used tags from the counter table.
func (a *HashtagAdapter) TopCounts(ctx context.Context, rankingDate string, limit int) ([]storage.TagCount, error) {
	rows, err := a.db.QueryContext(ctx, queryTopHashtagCounts, rankingDate, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashtag counts for %s: %w", rankingDate, err)
	}
	defer rows.Close()

	var counts []storage.TagCount
	for rows.Next() {
		var tc storage.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hashtag count row: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hashtag count rows: %w", err)
	}
	return counts, nil
}

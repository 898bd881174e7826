package postgres

import (
	"context"
	"database/sql"
	"fmt"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/core/storage"
)

// NotificationAdapter implements storage.NotificationStore for PostgreSQL.
// Sender display fields are denormalized into the row at insert time so
// the feed cache snapshot and the durable record carry the same shape.
type NotificationAdapter struct {
	db *sql.DB
}

// NewNotificationAdapter creates a notification adapter sharing the given
// connection.
func NewNotificationAdapter(db *sql.DB) *NotificationAdapter {
	return &NotificationAdapter{db: db}
}

// Insert persists the authoritative notification record.
func (a *NotificationAdapter) Insert(ctx context.Context, snapshot *v1.NotificationSnapshot) error {
	_, err := a.db.ExecContext(ctx, queryInsertNotification,
		snapshot.ID,
		snapshot.Sender.ID,
		snapshot.Sender.Username,
		nullableString(snapshot.Sender.ProfilePicture),
		snapshot.ReceiverID,
		snapshot.Type,
		nullableString(snapshot.PostID),
		snapshot.CreatedAt,
		snapshot.IsRead,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// FindRecent returns up to limit notifications, newest first. This is the
// durable fallback the feed cache is reseeded from.
func (a *NotificationAdapter) FindRecent(ctx context.Context, receiverID string, limit int) ([]v1.NotificationSnapshot, error) {
	rows, err := a.db.QueryContext(ctx, queryFindRecentNotifications, receiverID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var snapshots []v1.NotificationSnapshot
	for rows.Next() {
		var (
			s              v1.NotificationSnapshot
			profilePicture sql.NullString
			postID         sql.NullString
		)
		err := rows.Scan(
			&s.ID,
			&s.Sender.ID,
			&s.Sender.Username,
			&profilePicture,
			&s.ReceiverID,
			&s.Type,
			&postID,
			&s.CreatedAt,
			&s.IsRead,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		s.Sender.ProfilePicture = profilePicture.String
		s.PostID = postID.String
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return snapshots, nil
}

// MarkRead flips one notification's read flag and returns its receiver.
func (a *NotificationAdapter) MarkRead(ctx context.Context, id string) (string, error) {
	var receiverID string
	err := a.db.QueryRowContext(ctx, queryMarkNotificationRead, id).Scan(&receiverID)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to mark notification read: %w", err)
	}
	return receiverID, nil
}

// MarkAllRead bulk-updates every unread notification for the receiver.
func (a *NotificationAdapter) MarkAllRead(ctx context.Context, receiverID string) error {
	if _, err := a.db.ExecContext(ctx, queryMarkAllNotificationsRead, receiverID); err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

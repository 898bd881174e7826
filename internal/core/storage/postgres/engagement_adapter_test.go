package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
	"github.com/studylink-app/studylink/internal/core/storage"
)

func newEngagementAdapter(t *testing.T) (*EngagementAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectPrepare(regexp.QuoteMeta(queryInsertEvent))
	mock.ExpectPrepare(regexp.QuoteMeta(queryAggregateTotals))

	adapter, err := NewEngagementAdapter(db)
	require.NoError(t, err)
	return adapter, mock
}

func TestEngagementAdapter_InsertEvent(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	event := &v1.EngagementEvent{
		ID:         "evt-1",
		Type:       "post_liked",
		Member:     "post-9",
		Delta:      1,
		OccurredAt: now,
		RecordedAt: now,
	}

	tests := []struct {
		name       string
		mockResult func(mock sqlmock.Sqlmock)
		wantErr    bool
	}{
		{
			name: "success",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(queryInsertEvent)).
					WithArgs("evt-1", "post_liked", "post-9", int64(1), now, now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "database failure surfaces",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(queryInsertEvent)).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, mock := newEngagementAdapter(t)
			tt.mockResult(mock)

			err := adapter.InsertEvent(context.Background(), event)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEngagementAdapter_AggregateTotals(t *testing.T) {
	start := time.Date(2026, 2, 9, 18, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	t.Run("returns descending totals", func(t *testing.T) {
		adapter, mock := newEngagementAdapter(t)
		mock.ExpectQuery(regexp.QuoteMeta(queryAggregateTotals)).
			WithArgs("post_liked", start, end, 10).
			WillReturnRows(sqlmock.NewRows([]string{"member", "total"}).
				AddRow("post-1", int64(7)).
				AddRow("post-2", int64(3)))

		totals, err := adapter.AggregateTotals(context.Background(), "post_liked", start, end, 10)
		require.NoError(t, err)
		require.Equal(t, []storage.MemberTotal{
			{Member: "post-1", Total: 7},
			{Member: "post-2", Total: 3},
		}, totals)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty window yields no totals", func(t *testing.T) {
		adapter, mock := newEngagementAdapter(t)
		mock.ExpectQuery(regexp.QuoteMeta(queryAggregateTotals)).
			WithArgs("post_liked", start, end, 10).
			WillReturnRows(sqlmock.NewRows([]string{"member", "total"}))

		totals, err := adapter.AggregateTotals(context.Background(), "post_liked", start, end, 10)
		require.NoError(t, err)
		require.Empty(t, totals)
	})

	t.Run("query failure surfaces", func(t *testing.T) {
		adapter, mock := newEngagementAdapter(t)
		mock.ExpectQuery(regexp.QuoteMeta(queryAggregateTotals)).
			WillReturnError(errors.New("connection reset"))

		_, err := adapter.AggregateTotals(context.Background(), "post_liked", start, end, 10)
		require.Error(t, err)
	})
}

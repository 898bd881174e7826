package postgres

import (
	"context"
	"database/sql"
	"fmt"

	v1 "github.com/studylink-app/studylink/internal/api/v1"
)

// GoalAdapter implements storage.GoalStore for PostgreSQL.
type GoalAdapter struct {
	db *sql.DB
}

// NewGoalAdapter creates a goal adapter sharing the given connection.
func NewGoalAdapter(db *sql.DB) *GoalAdapter {
	return &GoalAdapter{db: db}
}

// UpsertGoal creates or replaces the goal for (user, type). A previously
// deactivated goal is reactivated with the new target.
func (a *GoalAdapter) UpsertGoal(ctx context.Context, goal *v1.LearningGoal) error {
	_, err := a.db.ExecContext(ctx, queryUpsertGoal,
		goal.ID,
		goal.UserID,
		goal.Type,
		goal.TargetMinutes,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learning goal: %w", err)
	}
	goal.IsActive = true
	return nil
}

// ListGoals returns the user's active goals.
func (a *GoalAdapter) ListGoals(ctx context.Context, userID string) ([]v1.LearningGoal, error) {
	rows, err := a.db.QueryContext(ctx, queryListGoals, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning goals: %w", err)
	}
	defer rows.Close()

	var goals []v1.LearningGoal
	for rows.Next() {
		var g v1.LearningGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Type, &g.TargetMinutes, &g.IsActive, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	return goals, nil
}

// DeactivateGoal soft-deletes a goal by id.
func (a *GoalAdapter) DeactivateGoal(ctx context.Context, id string) error {
	if _, err := a.db.ExecContext(ctx, queryDeactivateGoal, id, nowUTC()); err != nil {
		return fmt.Errorf("failed to deactivate learning goal: %w", err)
	}
	return nil
}

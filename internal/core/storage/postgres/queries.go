package postgres

const (
	// queryInsertEvent appends one engagement event to the durable log.
	queryInsertEvent = `
		INSERT INTO engagement_events (
			id, event_type, member, delta, occurred_at, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// queryAggregateTotals reproduces the ground-truth ranking: sum of
	// deltas per member over one window's time range, descending. Ties
	// break on member so the ordering is deterministic.
	queryAggregateTotals = `
		SELECT member, SUM(delta) AS total
		FROM engagement_events
		WHERE event_type = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		GROUP BY member
		ORDER BY total DESC, member ASC
		LIMIT $4
	`

	// queryUpsertHashtagCount bumps the per-day counter for one tag.
	queryUpsertHashtagCount = `
		INSERT INTO hashtag_counts (tag, ranking_date, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (tag, ranking_date)
		DO UPDATE SET count = hashtag_counts.count + 1
	`

	// queryTopHashtagCounts reads the per-day counter view directly,
	// without touching the event log or the cache.
	queryTopHashtagCounts = `
		SELECT tag, count
		FROM hashtag_counts
		WHERE ranking_date = $1
		ORDER BY count DESC, tag ASC
		LIMIT $2
	`

	queryInsertNotification = `
		INSERT INTO notifications (
			id, sender_id, sender_username, sender_profile_picture,
			receiver_id, type, post_id, created_at, is_read
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	queryFindRecentNotifications = `
		SELECT
			id, sender_id, sender_username, sender_profile_picture,
			receiver_id, type, post_id, created_at, is_read
		FROM notifications
		WHERE receiver_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	queryMarkNotificationRead = `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
		RETURNING receiver_id
	`

	queryMarkAllNotificationsRead = `
		UPDATE notifications
		SET is_read = TRUE
		WHERE receiver_id = $1 AND is_read = FALSE
	`

	queryInsertSession = `
		INSERT INTO learning_sessions (
			id, user_id, subject, start_time, is_active
		)
		SELECT $1, $2, $3, $4, TRUE
		WHERE NOT EXISTS (
			SELECT 1 FROM learning_sessions
			WHERE user_id = $2 AND is_active = TRUE
		)
	`

	// queryStopActiveSession closes the active session and computes the
	// duration in whole minutes server-side, so concurrent stops cannot
	// disagree on the recorded value.
	queryStopActiveSession = `
		UPDATE learning_sessions
		SET end_time = $2,
		    is_active = FALSE,
		    duration_minutes = ROUND(EXTRACT(EPOCH FROM ($2 - start_time)) / 60)
		WHERE user_id = $1 AND is_active = TRUE
		RETURNING id, user_id, subject, start_time, end_time, duration_minutes
	`

	queryActiveSession = `
		SELECT id, user_id, subject, start_time, duration_minutes
		FROM learning_sessions
		WHERE user_id = $1 AND is_active = TRUE
	`

	querySumMinutes = `
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM learning_sessions
		WHERE user_id = $1
		  AND is_active = FALSE
		  AND start_time >= $2
	`

	queryDailyMinutes = `
		SELECT to_char(start_time, 'YYYY-MM-DD') AS day,
		       SUM(duration_minutes) AS total
		FROM learning_sessions
		WHERE user_id = $1
		  AND is_active = FALSE
		  AND start_time >= $2
		GROUP BY day
		ORDER BY day ASC
	`

	queryStudyDays = `
		SELECT DISTINCT to_char(start_time, 'YYYY-MM-DD') AS day
		FROM learning_sessions
		WHERE user_id = $1 AND is_active = FALSE
		ORDER BY day DESC
		LIMIT $2
	`

	queryUpsertGoal = `
		INSERT INTO learning_goals (
			id, user_id, goal_type, target_minutes, is_active, updated_at
		)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (user_id, goal_type)
		DO UPDATE SET
			target_minutes = EXCLUDED.target_minutes,
			is_active      = TRUE,
			updated_at     = EXCLUDED.updated_at
	`

	queryListGoals = `
		SELECT id, user_id, goal_type, target_minutes, is_active, updated_at
		FROM learning_goals
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY goal_type ASC
	`

	queryDeactivateGoal = `
		UPDATE learning_goals
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1
	`
)

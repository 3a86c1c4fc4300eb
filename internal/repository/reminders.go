package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/studyplan/srs-backend/internal/models"
)

func (r *Postgres) CreateReminder(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := r.psql.Insert("reminders").
		Columns("user_id", "topic_id", "topic_title", "kind", "scheduled_at", "completed", "created_at").
		Values(reminder.UserID, reminder.TopicID, reminder.TopicTitle, reminder.Kind,
			reminder.ScheduledAt, reminder.Completed, reminder.CreatedAt).
		Suffix("RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (user_id: %d, topic_id: %d): %w", reminder.UserID, reminder.TopicID, err)
	}

	created := *reminder
	err = r.QueryRowxContext(ctx, sql, args...).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("create reminder (user_id: %d, topic_id: %d): %w", reminder.UserID, reminder.TopicID, err)
	}

	return &created, nil
}

// CompleteReminder marks a reminder done, scoped to its owner. Completing an
// already-completed reminder is a no-op: the completed flag and timestamp of
// the first completion win, whichever subsystem got there first.
func (r *Postgres) CompleteReminder(ctx context.Context, userID, reminderID int64, completedAt time.Time) error {
	query := r.psql.Update("reminders").
		Set("completed", true).
		Set("completed_at", completedAt).
		Where("id = ? AND user_id = ?", reminderID, userID).
		Where("completed = FALSE")

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (user_id: %d, reminder_id: %d): %w", userID, reminderID, err)
	}

	_, err = r.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("complete reminder (user_id: %d, reminder_id: %d): %w", userID, reminderID, err)
	}

	return nil
}

func (r *Postgres) GetDueReminders(ctx context.Context, userID int64, now time.Time, limit int) ([]*models.Reminder, error) {
	query := `
		SELECT id, user_id, topic_id, topic_title, kind, scheduled_at, completed, completed_at, created_at
		FROM reminders
		WHERE user_id = $1 AND kind = $2 AND completed = FALSE AND scheduled_at <= $3
		ORDER BY scheduled_at ASC
		LIMIT $4
	`

	var reminders []*models.Reminder
	err := r.SelectContext(ctx, &reminders, query, userID, models.ReminderKindSpacedRepetition, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due reminders (user_id: %d, cutoff_time: %s): %w",
			userID, now.Format(time.RFC3339), err)
	}

	return reminders, nil
}

// GetUsersWithDueReminders lists the distinct owners of pending reminders that
// have come due. The sweep daemon fans out per user from this list.
func (r *Postgres) GetUsersWithDueReminders(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM reminders
		WHERE kind = $1 AND completed = FALSE AND scheduled_at <= $2
	`

	var userIDs []int64
	err := r.SelectContext(ctx, &userIDs, query, models.ReminderKindSpacedRepetition, now)
	if err != nil {
		return nil, fmt.Errorf("query users with due reminders (cutoff_time: %s): %w", now.Format(time.RFC3339), err)
	}

	return userIDs, nil
}

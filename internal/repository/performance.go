package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/studyplan/srs-backend/internal/models"
)

// CreatePerformance inserts one review record and returns it with the
// generated id. Records are append-only: there is deliberately no update or
// delete for this table.
func (r *Postgres) CreatePerformance(ctx context.Context, record *models.PerformanceRecord) (*models.PerformanceRecord, error) {
	query := r.psql.Insert("performance_records").
		Columns("user_id", "topic_id", "triggering_reminder_id", "reviewed_at", "quality_rating",
			"response_time_seconds", "ease_factor", "interval_days", "next_interval_days", "repetition_number").
		Values(record.UserID, record.TopicID, record.TriggeringReminderID, record.ReviewedAt, record.QualityRating,
			record.ResponseTimeSeconds, record.EaseFactor, record.IntervalDays, record.NextIntervalDays, record.RepetitionNumber).
		Suffix("RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (user_id: %d, topic_id: %d): %w", record.UserID, record.TopicID, err)
	}

	created := *record
	err = r.QueryRowxContext(ctx, sql, args...).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("create performance record (user_id: %d, topic_id: %d): %w", record.UserID, record.TopicID, err)
	}

	return &created, nil
}

// GetLatestPerformance returns the most recent record for a topic, tie-broken
// by id so two records with the same reviewed_at resolve to the later insert.
func (r *Postgres) GetLatestPerformance(ctx context.Context, userID, topicID int64) (*models.PerformanceRecord, error) {
	query := `
		SELECT id, user_id, topic_id, triggering_reminder_id, reviewed_at, quality_rating,
		       response_time_seconds, ease_factor, interval_days, next_interval_days, repetition_number
		FROM performance_records
		WHERE user_id = $1 AND topic_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1
	`

	var record models.PerformanceRecord
	err := r.GetContext(ctx, &record, query, userID, topicID)
	if err == ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get latest performance (user_id: %d, topic_id: %d): %w", userID, topicID, err)
	}

	return &record, nil
}

func (r *Postgres) ListPerformance(ctx context.Context, userID, topicID int64, limit int) ([]*models.PerformanceRecord, error) {
	query := `
		SELECT id, user_id, topic_id, triggering_reminder_id, reviewed_at, quality_rating,
		       response_time_seconds, ease_factor, interval_days, next_interval_days, repetition_number
		FROM performance_records
		WHERE user_id = $1 AND topic_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $3
	`

	var records []*models.PerformanceRecord
	err := r.SelectContext(ctx, &records, query, userID, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("list performance (user_id: %d, topic_id: %d): %w", userID, topicID, err)
	}

	return records, nil
}

// CountReviewsSince counts review records for a topic on or after the cutoff.
// The cramming detector uses this to spot implausibly close repeat reviews.
func (r *Postgres) CountReviewsSince(ctx context.Context, userID, topicID int64, since time.Time) (int, error) {
	query := r.psql.Select("COUNT(*)").
		From("performance_records").
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Where("reviewed_at >= ?", since)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build SQL query (user_id: %d, topic_id: %d): %w", userID, topicID, err)
	}

	var count int
	err = r.QueryRowxContext(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reviews since (user_id: %d, topic_id: %d, since: %s): %w",
			userID, topicID, since.Format(time.RFC3339), err)
	}

	return count, nil
}

func (r *Postgres) GetReviewStatistics(ctx context.Context, userID int64) (int, int, float64, error) {
	query := `
		SELECT COUNT(DISTINCT topic_id), COUNT(*), COALESCE(AVG(quality_rating), 0)
		FROM performance_records
		WHERE user_id = $1
	`

	var totalTopics, totalReviews int
	var averageQuality float64
	err := r.QueryRowxContext(ctx, query, userID).Scan(&totalTopics, &totalReviews, &averageQuality)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("get review statistics (user_id: %d): %w", userID, err)
	}

	return totalTopics, totalReviews, averageQuality, nil
}

func (r *Postgres) GetQualityDistribution(ctx context.Context, userID int64) ([6]int, error) {
	query := `
		SELECT quality_rating, COUNT(*)
		FROM performance_records
		WHERE user_id = $1
		GROUP BY quality_rating
	`

	var distribution [6]int
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return distribution, fmt.Errorf("query quality distribution (user_id: %d): %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return distribution, fmt.Errorf("scan quality distribution row: %w", err)
		}
		if rating >= 0 && rating <= 5 {
			distribution[rating] = count
		}
	}

	if err := rows.Err(); err != nil {
		return distribution, fmt.Errorf("iterate quality distribution rows: %w", err)
	}

	return distribution, nil
}

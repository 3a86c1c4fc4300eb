package models

import (
	"context"
	"time"
)

type Repository interface {
	GetTopic(ctx context.Context, topicID int64) (*StudyTopic, error)

	CreatePerformance(ctx context.Context, record *PerformanceRecord) (*PerformanceRecord, error)
	GetLatestPerformance(ctx context.Context, userID, topicID int64) (*PerformanceRecord, error)
	ListPerformance(ctx context.Context, userID, topicID int64, limit int) ([]*PerformanceRecord, error)
	CountReviewsSince(ctx context.Context, userID, topicID int64, since time.Time) (int, error)
	GetReviewStatistics(ctx context.Context, userID int64) (int, int, float64, error)
	GetQualityDistribution(ctx context.Context, userID int64) ([6]int, error)

	CreateReminder(ctx context.Context, reminder *Reminder) (*Reminder, error)
	CompleteReminder(ctx context.Context, userID, reminderID int64, completedAt time.Time) error
	GetDueReminders(ctx context.Context, userID int64, now time.Time, limit int) ([]*Reminder, error)
	GetUsersWithDueReminders(ctx context.Context, now time.Time) ([]int64, error)
}

type Service interface {
	RecordReview(ctx context.Context, input ReviewInput) (*PerformanceRecord, error)
	GetPerformanceHistory(ctx context.Context, userID, topicID int64) (*PerformanceRecord, error)
	ListPerformanceHistory(ctx context.Context, userID, topicID int64, limit int) ([]*PerformanceRecord, error)
	GetDueReviews(ctx context.Context, userID int64, now time.Time) ([]*Reminder, error)
	GetStatistics(ctx context.Context, userID int64) (*Statistics, error)
}

// ReviewInput carries one graded review. Optional fields are pointers so the
// handler can distinguish "absent" from zero values.
type ReviewInput struct {
	UserID              int64  `json:"-"`
	TopicID             int64  `json:"topic_id"`
	QualityRating       int    `json:"quality_rating"`
	ReminderID          *int64 `json:"reminder_id,omitempty"`
	ResponseTimeSeconds *int   `json:"response_time_seconds,omitempty"`
	SkipScheduleNext    bool   `json:"skip_schedule_next,omitempty"`
}

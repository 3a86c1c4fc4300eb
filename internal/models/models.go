package models

import "time"

const (
	// ReminderKindSpacedRepetition marks reminders emitted by the SRS scheduler.
	ReminderKindSpacedRepetition = "spaced-repetition"

	// MinEaseFactor is the floor the ease factor can never go below.
	MinEaseFactor = 1.3

	// DefaultEaseFactor seeds a topic that has never been reviewed.
	DefaultEaseFactor = 2.5
)

type StudyTopic struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

// PerformanceRecord is one review event. Records are append-only: never
// mutated or deleted after insert. The chronologically newest record for a
// topic is the canonical current state for the next calculation.
type PerformanceRecord struct {
	ID                   int64     `db:"id" json:"id"`
	UserID               int64     `db:"user_id" json:"user_id"`
	TopicID              int64     `db:"topic_id" json:"topic_id"`
	TriggeringReminderID *int64    `db:"triggering_reminder_id" json:"triggering_reminder_id,omitempty"`
	ReviewedAt           time.Time `db:"reviewed_at" json:"reviewed_at"`
	QualityRating        int       `db:"quality_rating" json:"quality_rating"`
	ResponseTimeSeconds  *int      `db:"response_time_seconds" json:"response_time_seconds,omitempty"`
	EaseFactor           float64   `db:"ease_factor" json:"ease_factor"`
	IntervalDays         int       `db:"interval_days" json:"interval_days"`
	NextIntervalDays     int       `db:"next_interval_days" json:"next_interval_days"`
	RepetitionNumber     int       `db:"repetition_number" json:"repetition_number"`
}

type Reminder struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	TopicID     int64      `db:"topic_id" json:"topic_id"`
	TopicTitle  string     `db:"topic_title" json:"topic_title"`
	Kind        string     `db:"kind" json:"kind"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type Statistics struct {
	TotalTopics         int     `json:"total_topics"`
	TotalReviews        int     `json:"total_reviews"`
	AverageQuality      float64 `json:"average_quality"`
	DueCount            int     `json:"due_count"`
	QualityDistribution [6]int  `json:"quality_distribution"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyplan/srs-backend/internal/models"
	"github.com/studyplan/srs-backend/internal/repository"
	"github.com/studyplan/srs-backend/internal/service/srs"
	"github.com/studyplan/srs-backend/pkg/utils"
	"go.uber.org/zap"
)

const (
	// DefaultCramWindowHours is how far back the cramming detector looks for
	// earlier reviews of the same topic.
	DefaultCramWindowHours = 24

	// DueReviewsPageSize bounds GetDueReviews so a long-neglected account
	// cannot produce an unbounded payload.
	DueReviewsPageSize = 10

	defaultHistoryLimit = 50
)

type Service struct {
	repo            models.Repository
	cramWindowHours int
	now             func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCramWindow overrides the cramming detection window in hours.
func WithCramWindow(hours int) Option {
	return func(s *Service) {
		if hours > 0 {
			s.cramWindowHours = hours
		}
	}
}

func NewService(repo models.Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		cramWindowHours: DefaultCramWindowHours,
		now:             utils.NowUTC,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RecordReview runs one "record a review" transaction: ownership check, prior
// state load, cramming detection, interval calculation, insert, then the
// best-effort follow-ups (resolving the triggering reminder and scheduling
// the next one). Everything after the insert never fails the call.
func (s *Service) RecordReview(ctx context.Context, input models.ReviewInput) (*models.PerformanceRecord, error) {
	if err := validateReviewInput(input); err != nil {
		return nil, err
	}

	topic, err := s.loadOwnedTopic(ctx, input.UserID, input.TopicID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	currentInterval, easeFactor, repetition, err := s.loadPriorState(ctx, input.UserID, input.TopicID)
	if err != nil {
		return nil, err
	}

	if s.detectCramming(ctx, input.UserID, input.TopicID, now) {
		zap.S().Info("cramming detected, penalizing ease factor",
			zap.Int64("user_id", input.UserID), zap.Int64("topic_id", input.TopicID))
		easeFactor = srs.PenalizeEase(easeFactor)
	}

	nextInterval, newEase, err := srs.ComputeNextInterval(input.QualityRating, currentInterval, easeFactor, repetition)
	if err != nil {
		return nil, &ValidationError{Field: "quality_rating", Reason: err.Error()}
	}

	record := &models.PerformanceRecord{
		UserID:               input.UserID,
		TopicID:              input.TopicID,
		TriggeringReminderID: input.ReminderID,
		ReviewedAt:           now,
		QualityRating:        input.QualityRating,
		ResponseTimeSeconds:  input.ResponseTimeSeconds,
		EaseFactor:           newEase,
		IntervalDays:         currentInterval,
		NextIntervalDays:     nextInterval,
		RepetitionNumber:     repetition,
	}

	created, err := s.repo.CreatePerformance(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("create performance record (user_id: %d, topic_id: %d): %w", input.UserID, input.TopicID, err)
	}

	if input.ReminderID != nil {
		if err := s.repo.CompleteReminder(ctx, input.UserID, *input.ReminderID, now); err != nil {
			zap.S().Error("complete triggering reminder", zap.Error(err),
				zap.Int64("user_id", input.UserID), zap.Int64("reminder_id", *input.ReminderID))
		}
	}

	if !input.SkipScheduleNext {
		s.scheduleNextReview(ctx, topic, created, now)
	}

	return created, nil
}

func validateReviewInput(input models.ReviewInput) error {
	if input.TopicID <= 0 {
		return &ValidationError{Field: "topic_id", Reason: "must be a positive identifier"}
	}
	if input.QualityRating < 0 || input.QualityRating > 5 {
		return &ValidationError{Field: "quality_rating", Reason: "must be between 0 and 5"}
	}
	if input.ResponseTimeSeconds != nil && *input.ResponseTimeSeconds <= 0 {
		return &ValidationError{Field: "response_time_seconds", Reason: "must be positive when supplied"}
	}
	if input.ReminderID != nil && *input.ReminderID <= 0 {
		return &ValidationError{Field: "reminder_id", Reason: "must be a positive identifier when supplied"}
	}
	return nil
}

// loadOwnedTopic fetches the topic and enforces ownership. A missing topic and
// a foreign topic both surface as NotFoundError.
func (s *Service) loadOwnedTopic(ctx context.Context, userID, topicID int64) (*models.StudyTopic, error) {
	topic, err := s.repo.GetTopic(ctx, topicID)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, &NotFoundError{Resource: "topic", ID: topicID}
	}
	if err != nil {
		return nil, fmt.Errorf("get topic (topic_id: %d): %w", topicID, err)
	}

	if topic.UserID != userID {
		return nil, &NotFoundError{Resource: "topic", ID: topicID}
	}

	return topic, nil
}

// loadPriorState seeds the calculator from the most recent record, or from the
// first-review defaults when the topic has never been reviewed. The returned
// repetition number is the one the new record will carry (prior + 1).
func (s *Service) loadPriorState(ctx context.Context, userID, topicID int64) (int, float64, int, error) {
	latest, err := s.repo.GetLatestPerformance(ctx, userID, topicID)
	if errors.Is(err, repository.ErrNoRows) {
		return 1, models.DefaultEaseFactor, 1, nil
	}
	if err != nil {
		return 0, 0, 0, fmt.Errorf("get latest performance (user_id: %d, topic_id: %d): %w", userID, topicID, err)
	}

	currentInterval := latest.NextIntervalDays
	if currentInterval < 1 {
		currentInterval = 1
	}

	easeFactor := latest.EaseFactor
	if easeFactor < models.MinEaseFactor {
		easeFactor = models.MinEaseFactor
	}

	return currentInterval, easeFactor, latest.RepetitionNumber + 1, nil
}

// detectCramming reports whether the topic was already reviewed inside the
// cram window. Detection failures are logged and treated as "not cramming":
// the penalty is an optimization, never a gate on recording the review.
func (s *Service) detectCramming(ctx context.Context, userID, topicID int64, now time.Time) bool {
	since := now.Add(-time.Duration(s.cramWindowHours) * time.Hour)

	count, err := s.repo.CountReviewsSince(ctx, userID, topicID, since)
	if err != nil {
		zap.S().Warn("cramming detection failed, assuming not cramming", zap.Error(err),
			zap.Int64("user_id", userID), zap.Int64("topic_id", topicID))
		return false
	}

	return count >= 1
}

// scheduleNextReview emits the pending reminder for the next review. Failure
// is logged and swallowed: the review record is already committed and must
// not be rolled back over a missing follow-up reminder.
func (s *Service) scheduleNextReview(ctx context.Context, topic *models.StudyTopic, record *models.PerformanceRecord, now time.Time) {
	reminder := &models.Reminder{
		UserID:      topic.UserID,
		TopicID:     topic.ID,
		TopicTitle:  topic.Title,
		Kind:        models.ReminderKindSpacedRepetition,
		ScheduledAt: now.AddDate(0, 0, record.NextIntervalDays),
		Completed:   false,
		CreatedAt:   now,
	}

	if _, err := s.repo.CreateReminder(ctx, reminder); err != nil {
		zap.S().Error("schedule next review reminder", zap.Error(err),
			zap.Int64("user_id", topic.UserID), zap.Int64("topic_id", topic.ID),
			zap.Int("next_interval_days", record.NextIntervalDays))
	}
}

// GetPerformanceHistory returns the most recent record for an owned topic.
func (s *Service) GetPerformanceHistory(ctx context.Context, userID, topicID int64) (*models.PerformanceRecord, error) {
	if _, err := s.loadOwnedTopic(ctx, userID, topicID); err != nil {
		return nil, err
	}

	latest, err := s.repo.GetLatestPerformance(ctx, userID, topicID)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, &NotFoundError{Resource: "performance record", ID: topicID}
	}
	if err != nil {
		return nil, fmt.Errorf("get latest performance (user_id: %d, topic_id: %d): %w", userID, topicID, err)
	}

	return latest, nil
}

func (s *Service) ListPerformanceHistory(ctx context.Context, userID, topicID int64, limit int) ([]*models.PerformanceRecord, error) {
	if _, err := s.loadOwnedTopic(ctx, userID, topicID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	records, err := s.repo.ListPerformance(ctx, userID, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("list performance history (user_id: %d, topic_id: %d): %w", userID, topicID, err)
	}

	return records, nil
}

// GetDueReviews returns at most DueReviewsPageSize pending spaced-repetition
// reminders with scheduled_at <= now, oldest first.
func (s *Service) GetDueReviews(ctx context.Context, userID int64, now time.Time) ([]*models.Reminder, error) {
	if now.IsZero() {
		now = s.now()
	}

	reminders, err := s.repo.GetDueReminders(ctx, userID, now, DueReviewsPageSize)
	if err != nil {
		return nil, fmt.Errorf("get due reviews (user_id: %d): %w", userID, err)
	}

	return reminders, nil
}

func (s *Service) GetStatistics(ctx context.Context, userID int64) (*models.Statistics, error) {
	totalTopics, totalReviews, averageQuality, err := s.repo.GetReviewStatistics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get review statistics (user_id: %d): %w", userID, err)
	}

	distribution, err := s.repo.GetQualityDistribution(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get quality distribution (user_id: %d): %w", userID, err)
	}

	// Due count is computed live from the reminder store, not cached on the
	// performance records.
	due, err := s.repo.GetDueReminders(ctx, userID, s.now(), DueReviewsPageSize)
	if err != nil {
		return nil, fmt.Errorf("get due reminders for statistics (user_id: %d): %w", userID, err)
	}

	return &models.Statistics{
		TotalTopics:         totalTopics,
		TotalReviews:        totalReviews,
		AverageQuality:      averageQuality,
		DueCount:            len(due),
		QualityDistribution: distribution,
	}, nil
}

package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/studyplan/srs-backend/internal/models"
	"github.com/studyplan/srs-backend/pkg/utils"
	"go.uber.org/zap"
)

// Default quiet-hours bounds: reminders are only dispatched between these
// hours (UTC) so a due reminder never pings anyone in the middle of the night.
const (
	DefaultDispatchStartHour = 8
	DefaultDispatchEndHour   = 22
)

// Notifier hands a due reminder to the delivery subsystem. Message formatting
// and transport are the delivery side's concern, not this daemon's.
type Notifier interface {
	NotifyDueReview(ctx context.Context, reminder *models.Reminder) error
}

type ReminderSource interface {
	GetUsersWithDueReminders(ctx context.Context, now time.Time) ([]int64, error)
	GetDueReminders(ctx context.Context, userID int64, now time.Time, limit int) ([]*models.Reminder, error)
}

// Sweep periodically finds due spaced-repetition reminders and fans them out
// to the notifier. It only reads the reminder store: completion stays with
// the review flow and the delivery subsystem.
type Sweep struct {
	scheduler *gocron.Scheduler
	source    ReminderSource
	notifier  Notifier

	startHour int
	endHour   int
	pageSize  int
	now       func() time.Time
}

func NewSweep(source ReminderSource, notifier Notifier, startHour, endHour int) *Sweep {
	if startHour < 0 || startHour > 23 {
		startHour = DefaultDispatchStartHour
	}
	if endHour < 0 || endHour > 23 {
		endHour = DefaultDispatchEndHour
	}

	return &Sweep{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		notifier:  notifier,
		startHour: startHour,
		endHour:   endHour,
		pageSize:  10,
		now:       utils.NowUTC,
	}
}

// Start schedules the sweep every intervalMinutes and returns immediately.
func (s *Sweep) Start(intervalMinutes int) error {
	if intervalMinutes < 1 {
		intervalMinutes = 15
	}

	_, err := s.scheduler.Every(intervalMinutes).Minutes().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Sweep) Stop() {
	s.scheduler.Stop()
}

func (s *Sweep) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if n := s.sweep(ctx); n > 0 {
		zap.S().Info("dispatched due review reminders", zap.Int("count", n))
	}
}

// sweep dispatches due reminders for every user and returns how many were
// handed to the notifier. A failure for one user never blocks the others.
func (s *Sweep) sweep(ctx context.Context) int {
	now := utils.TruncateToMinutes(s.now())

	hour := now.Hour()
	if hour < s.startHour || hour >= s.endHour {
		return 0
	}

	userIDs, err := s.source.GetUsersWithDueReminders(ctx, now)
	if err != nil {
		zap.S().Error("list users with due reminders", zap.Error(err))
		return 0
	}

	dispatched := 0
	for _, userID := range userIDs {
		reminders, err := s.source.GetDueReminders(ctx, userID, now, s.pageSize)
		if err != nil {
			zap.S().Error("get due reminders for sweep", zap.Error(err), zap.Int64("user_id", userID))
			continue
		}

		for _, reminder := range reminders {
			if err := s.notifier.NotifyDueReview(ctx, reminder); err != nil {
				zap.S().Warn("notify due review", zap.Error(err),
					zap.Int64("user_id", userID), zap.Int64("reminder_id", reminder.ID))
				continue
			}
			dispatched++
		}
	}

	return dispatched
}

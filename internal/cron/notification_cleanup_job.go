package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

const defaultRetentionDays = 30

type readPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository readPurger
	// Retention in days. Zero uses the default, negative keeps everything.
	Retention int
	Clock     func() time.Time
}

// NotificationCleanupJob drops read notifications older than the retention
// window, measured in whole UTC days. Unread ones are kept regardless of age.
type NotificationCleanupJob struct {
	logg *logger.Logger
	repo readPurger
	days int
	now  func() time.Time
}

func NewNotificationCleanupJob(params NotificationCleanupJobParams) (*NotificationCleanupJob, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("notification cleanup: logger required")
	case params.Repository == nil:
		return nil, errors.New("notification cleanup: repository required")
	}
	job := &NotificationCleanupJob{
		logg: params.Logger,
		repo: params.Repository,
		days: params.Retention,
		now:  params.Clock,
	}
	if job.days == 0 {
		job.days = defaultRetentionDays
	}
	if job.now == nil {
		job.now = time.Now
	}
	return job, nil
}

func (j *NotificationCleanupJob) Name() string { return "notification-cleanup" }

// Cutoff is midnight UTC, days before now.
func (j *NotificationCleanupJob) Cutoff() time.Time {
	y, m, d := j.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -j.days)
}

func (j *NotificationCleanupJob) Run(ctx context.Context) error {
	if j.days < 0 {
		j.logg.Debug(ctx, "notification retention disabled")
		return nil
	}
	cutoff := j.Cutoff()
	removed, err := j.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read notifications before %s: %w", cutoff.Format(time.DateOnly), err)
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.DateOnly),
		"removed": removed,
	})
	if removed == 0 {
		j.logg.Debug(ctx, "no read notifications past retention")
		return nil
	}
	j.logg.Info(ctx, "read notifications purged")
	return nil
}

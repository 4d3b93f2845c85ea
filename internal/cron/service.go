package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/metrics"
)

const (
	defaultInterval   = 5 * time.Minute
	defaultJobTimeout = 2 * time.Minute
)

// ErrCycleSkipped is returned by RunOnce when another worker holds the lock.
var ErrCycleSkipped = errors.New("cron cycle skipped: lock held elsewhere")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job inside a cycle.
	JobTimeout time.Duration
	Clock      func() time.Time
}

// Service runs the maintenance jobs: one cycle at start, then one per
// interval, each cycle guarded by the shared lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("cron: logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("cron: lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
		now:        params.Clock,
	}
	if svc.registry == nil {
		svc.registry = &Registry{}
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Run blocks until ctx is canceled. Failed cycles are logged, never fatal.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	err := s.runCycle(ctx)
	switch {
	case err == nil, errors.Is(err, ErrCycleSkipped):
	default:
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

// RunOnce executes one locked cycle and returns every job failure combined.
// ErrCycleSkipped signals that nothing ran.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

func (s *Service) runCycle(ctx context.Context) (err error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire cron lock: %w", err)
	}
	if !locked {
		s.metrics.CycleSkipped()
		s.logg.Info(ctx, "cron.cycle_skipped")
		return ErrCycleSkipped
	}
	defer func() {
		// release must outlive a canceled cycle context
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			err = multierr.Append(err, fmt.Errorf("release cron lock: %w", relErr))
		}
	}()

	jobs := s.registry.Jobs()
	cycleCtx := s.logg.WithField(ctx, "jobs", len(jobs))
	s.logg.Info(cycleCtx, "cron.cycle_start")

	var failures error
	for i, job := range jobs {
		if ctx.Err() != nil {
			s.logg.Warn(s.logg.WithField(cycleCtx, "skipped_jobs", len(jobs)-i), "cron.cycle_interrupted")
			return multierr.Append(failures, ctx.Err())
		}
		if jobErr := s.runJob(ctx, job); jobErr != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", job.Name(), jobErr))
		}
	}

	s.logg.Info(s.logg.WithField(cycleCtx, "failed_jobs", len(multierr.Errors(failures))), "cron.cycle_done")
	return failures
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	jobCtx = s.logg.WithField(jobCtx, "job", job.Name())

	start := s.now()
	err := job.Run(jobCtx)
	finished := s.now()
	took := finished.Sub(start)
	s.metrics.ObserveRun(job.Name(), took, finished, err)

	jobCtx = s.logg.WithField(jobCtx, "elapsed_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return err
	}
	s.logg.Info(jobCtx, "cron.job_done")
	return nil
}

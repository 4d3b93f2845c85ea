package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/multierr"

	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/metrics"
)

type testJob struct {
	name string
	err  error
	runs int
	// block waits for ctx cancellation before returning.
	block bool
	// onRun runs after the job body; used to cancel the cycle mid-way.
	onRun func()
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	if t.onRun != nil {
		t.onRun()
	}
	if t.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return t.err
}

type failingReleaseLock struct{ LocalLock }

func (f *failingReleaseLock) Release(ctx context.Context) error {
	_ = f.LocalLock.Release(ctx)
	return errors.New("redis gone")
}

func newTestService(t *testing.T, lock Lock, m *metrics.CronJobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Logger:     logger.Nop(),
		Registry:   registry,
		Lock:       lock,
		Metrics:    m,
		JobTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	snapshot := &testJob{name: "status-snapshot"}
	cleanup := &testJob{name: "notification-cleanup", err: errors.New("boom")}
	svc := newTestService(t, NewLocalLock(), nil, snapshot, cleanup)

	err := svc.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected the cleanup failure to surface")
	}
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected 1 combined failure, got %d: %v", got, err)
	}
	if snapshot.runs != 1 || cleanup.runs != 1 {
		t.Fatalf("every job runs once per cycle, got %d/%d", snapshot.runs, cleanup.runs)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCronJobMetrics(reg)
	job := &testJob{name: "status-snapshot"}
	lock := NewLocalLock()
	if held, err := lock.Acquire(context.Background()); err != nil || !held {
		t.Fatalf("pre-acquire lock: %v %v", held, err)
	}
	svc := newTestService(t, lock, m, job)

	if err := svc.RunOnce(context.Background()); !errors.Is(err, ErrCycleSkipped) {
		t.Fatalf("expected ErrCycleSkipped, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run while the lock is held elsewhere, ran %d", job.runs)
	}
	expected := `
# HELP paintdesk_cron_cycles_skipped_total Cycles skipped because another worker held the lock.
# TYPE paintdesk_cron_cycles_skipped_total counter
paintdesk_cron_cycles_skipped_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "paintdesk_cron_cycles_skipped_total"); err != nil {
		t.Fatalf("skip counter: %v", err)
	}

	_ = lock.Release(context.Background())
	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once after release: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected one run after release, got %d", job.runs)
	}
}

func TestRunOnceBoundsEachJob(t *testing.T) {
	slow := &testJob{name: "slow", block: true}
	next := &testJob{name: "next"}
	svc := newTestService(t, NewLocalLock(), nil, slow, next)

	err := svc.RunOnce(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the job timeout to surface, got %v", err)
	}
	if next.runs != 1 {
		t.Fatalf("a timed-out job must not stop the cycle, next ran %d", next.runs)
	}
}

func TestRunOnceStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := &testJob{name: "first", onRun: cancel}
	second := &testJob{name: "second"}
	lock := NewLocalLock()
	svc := newTestService(t, lock, nil, first, second)

	err := svc.RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if second.runs != 0 {
		t.Fatalf("remaining jobs are skipped after cancel, second ran %d", second.runs)
	}
	if held, _ := lock.Acquire(context.Background()); !held {
		t.Fatal("lock must be released after an interrupted cycle")
	}
}

func TestRunOnceReportsReleaseFailure(t *testing.T) {
	svc := newTestService(t, &failingReleaseLock{}, nil, &testJob{name: "status-snapshot"})
	if err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("expected the release failure to be reported")
	}
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: NewLocalLock()}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected missing lock to fail")
	}
}

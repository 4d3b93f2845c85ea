package cron

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

type fakeCounter struct {
	counts map[enums.RequestStatus]int64
	err    error
}

func (f fakeCounter) CountByStatus(context.Context) (map[enums.RequestStatus]int64, error) {
	return f.counts, f.err
}

type fakePublisher struct {
	statuses []string
	counts   map[string]int64
	calls    int
}

func (f *fakePublisher) Set(statuses []string, counts map[string]int64) {
	f.calls++
	f.statuses = statuses
	f.counts = counts
}

func newSnapshotJob(t *testing.T, counter statusCounter, publisher *fakePublisher) Job {
	t.Helper()
	job, err := NewStatusSnapshotJob(StatusSnapshotJobParams{
		Logger:    logger.Nop(),
		Counter:   counter,
		Publisher: publisher,
	})
	if err != nil {
		t.Fatalf("NewStatusSnapshotJob: %v", err)
	}
	return job
}

func TestStatusSnapshotJobPublishesEveryStatus(t *testing.T) {
	publisher := &fakePublisher{}
	job := newSnapshotJob(t, fakeCounter{counts: map[enums.RequestStatus]int64{
		enums.RequestStatusPending:   3,
		enums.RequestStatusCompleted: 9,
	}}, publisher)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(publisher.statuses) != len(enums.RequestStatuses()) {
		t.Fatalf("expected every status label, got %v", publisher.statuses)
	}
	if publisher.counts["pending"] != 3 || publisher.counts["completed"] != 9 || publisher.counts["waiting"] != 0 {
		t.Fatalf("unexpected counts %v", publisher.counts)
	}
}

func TestStatusSnapshotJobReportsUnknownStatuses(t *testing.T) {
	publisher := &fakePublisher{}
	job := newSnapshotJob(t, fakeCounter{counts: map[enums.RequestStatus]int64{
		enums.RequestStatusPending: 1,
		"archived":                 2,
		"lost":                     1,
	}}, publisher)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected unknown status error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d", got)
	}
	if publisher.calls != 1 || publisher.counts["pending"] != 1 {
		t.Fatalf("known statuses should still be published: %+v", publisher)
	}
}

func TestStatusSnapshotJobCountFailure(t *testing.T) {
	publisher := &fakePublisher{}
	job := newSnapshotJob(t, fakeCounter{err: errors.New("db down")}, publisher)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if publisher.calls != 0 {
		t.Fatal("nothing should be published on count failure")
	}
}

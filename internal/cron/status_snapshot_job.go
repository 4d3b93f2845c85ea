package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

type statusCounter interface {
	CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error)
}

type statusPublisher interface {
	Set(statuses []string, counts map[string]int64)
}

type StatusSnapshotJobParams struct {
	Logger    *logger.Logger
	Counter   statusCounter
	Publisher statusPublisher
}

// NewStatusSnapshotJob publishes the per-status request counts shown on the
// shop dashboard.
func NewStatusSnapshotJob(params StatusSnapshotJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Counter == nil {
		return nil, fmt.Errorf("status counter required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("status publisher required")
	}
	return &statusSnapshotJob{
		logg:      params.Logger,
		counter:   params.Counter,
		publisher: params.Publisher,
	}, nil
}

type statusSnapshotJob struct {
	logg      *logger.Logger
	counter   statusCounter
	publisher statusPublisher
}

func (j *statusSnapshotJob) Name() string { return "status-snapshot" }

// Run publishes the known statuses even when the table holds rows with an
// unknown status; those are reported as errors afterwards.
func (j *statusSnapshotJob) Run(ctx context.Context) error {
	counts, err := j.counter.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count requests by status: %w", err)
	}

	statuses := enums.RequestStatuses()
	labels := make([]string, 0, len(statuses))
	published := make(map[string]int64, len(statuses))
	fields := map[string]any{}
	var total int64
	for _, status := range statuses {
		labels = append(labels, string(status))
		published[string(status)] = counts[status]
		fields["count_"+string(status)] = counts[status]
		total += counts[status]
	}
	j.publisher.Set(labels, published)

	var errs error
	for status, count := range counts {
		if !status.IsValid() {
			errs = multierr.Append(errs, fmt.Errorf("%d requests carry unknown status %q", count, status))
		}
	}

	fields["total"] = total
	j.logg.Info(j.logg.WithFields(ctx, fields), "request status snapshot published")
	return errs
}

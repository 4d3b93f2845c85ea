package requests

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/metrics"
)

const (
	defaultCASAttempts    = 3
	createAllocationTries = 2
)

// Service is the request lifecycle controller plus its read side.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PaintRequest, error)
	Get(ctx context.Context, id int64) (*models.PaintRequest, error)
	GetByCode(ctx context.Context, code string) (*models.PaintRequest, error)
	List(ctx context.Context, filter ListFilter) ([]models.PaintRequest, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.PaintRequest, error)
	Summary(ctx context.Context) (*Summary, error)
}

// Emitter turns lifecycle events into notification drafts.
type Emitter interface {
	ForCreation(req models.PaintRequest) models.Notification
	ForEvent(req models.PaintRequest, status enums.RequestStatus, reason string) models.Notification
}

// Recorder persists notification drafts.
type Recorder interface {
	Record(ctx context.Context, notification *models.Notification) error
}

// ServiceParams wires the lifecycle controller.
type ServiceParams struct {
	Store          Store
	Emitter        Emitter
	Recorder       Recorder
	Logger         *logger.Logger
	Metrics        *metrics.LifecycleMetrics
	Policy         Policy
	MaxCASAttempts int
	Clock          func() time.Time
}

type service struct {
	store       Store
	emitter     Emitter
	recorder    Recorder
	logg        *logger.Logger
	metrics     *metrics.LifecycleMetrics
	policy      Policy
	casAttempts int
	now         func() time.Time
}

// NewService validates params and returns the lifecycle controller.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "request store required")
	}
	if params.Emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification emitter required")
	}
	if params.Recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification recorder required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	attempts := params.MaxCASAttempts
	if attempts <= 0 {
		attempts = defaultCASAttempts
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:       params.Store,
		emitter:     params.Emitter,
		recorder:    params.Recorder,
		logg:        logg,
		metrics:     params.Metrics,
		policy:      params.Policy,
		casAttempts: attempts,
		now:         func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PaintRequest, error) {
	draft := normalizeDraft(input)

	for attempt := 1; ; attempt++ {
		created, err := s.store.Create(ctx, draft, s.now())
		if err == nil {
			ctx = s.logg.WithPaintRequest(ctx, created.ID, created.RequestCode)
			s.logg.Info(s.logg.WithField(ctx, "origin_station", created.OriginStation), "paint request created")
			s.metrics.IncCreated()
			s.emit(ctx, s.emitter.ForCreation(*created))
			return created, nil
		}

		if !pkgerrors.Is(err, pkgerrors.CodeDuplicateCode) {
			return nil, storeError(err, "create request")
		}
		s.metrics.IncCodeCollision()
		if attempt >= createAllocationTries {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCodeExhausted, err, "request code allocation kept colliding")
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "request code collided, reallocating")
	}
}

func (s *service) Get(ctx context.Context, id int64) (*models.PaintRequest, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid request id")
	}
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "get request")
	}
	return row, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.PaintRequest, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request code required")
	}
	row, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, storeError(err, "get request by code")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.PaintRequest, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
			WithDetails(map[string]any{"status": *filter.Status})
	}
	rows, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "list requests")
	}
	return rows, nil
}

// UpdateStatus validates the edge against the stored status and applies it
// with a compare-and-swap. A lost race re-reads and re-validates, so two
// concurrent callers can never both move a request out of the same status.
func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.PaintRequest, error) {
	if input.ID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid request id")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": input.Status})
	}

	var lastErr error
	for attempt := 1; attempt <= s.casAttempts; attempt++ {
		current, err := s.store.GetByID(ctx, input.ID)
		if err != nil {
			return nil, storeError(err, "load request")
		}
		if err := s.policy.Validate(current.Status, input.Status); err != nil {
			return nil, err
		}

		change := StatusChange{
			From: current.Status,
			To:   input.Status,
			At:   s.now(),
		}
		if change.At.Before(current.UpdatedAt) {
			change.At = current.UpdatedAt
		}
		reason := ""
		if input.Status == enums.RequestStatusRejected {
			reason = strings.TrimSpace(input.RejectionReason)
			if reason == "" {
				reason = FallbackRejectionReason
			}
			change.RejectionReason = &reason
		}

		updated, err := s.store.ApplyStatus(ctx, input.ID, change)
		if pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, storeError(err, "apply status")
		}

		ctx = s.logg.WithPaintRequest(ctx, updated.ID, updated.RequestCode)
		ctx = s.logg.WithFields(ctx, map[string]any{
			"from_status": change.From,
			"to_status":   change.To,
		})
		s.logg.Info(ctx, "paint request status changed")
		s.metrics.IncTransition(string(change.From), string(change.To))
		s.emit(ctx, s.emitter.ForEvent(*updated, change.To, reason))
		return updated, nil
	}

	s.logg.Warn(s.logg.WithField(ctx, "request_id", input.ID), "status change lost every compare-and-swap attempt")
	return nil, lastErr
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, storeError(err, "count requests")
	}
	summary := &Summary{ByStatus: map[enums.RequestStatus]int64{}}
	for _, status := range enums.RequestStatuses() {
		summary.ByStatus[status] = counts[status]
		summary.Total += counts[status]
	}
	return summary, nil
}

// emit stores a notification. The lifecycle change is already committed, so a
// failure here is logged and counted but never returned.
func (s *service) emit(ctx context.Context, notification models.Notification) {
	if err := s.recorder.Record(ctx, &notification); err != nil {
		s.metrics.IncNotificationFailure()
		s.logg.Error(ctx, "notification not recorded",
			pkgerrors.Wrap(pkgerrors.CodeNotificationPersist, err, "record notification"))
	}
}

func normalizeDraft(input CreateInput) Draft {
	draft := input.Draft
	draft.OriginStation = strings.TrimSpace(draft.OriginStation)
	if draft.OriginStation == "" {
		draft.OriginStation = strings.TrimSpace(input.Station.Name)
	}
	draft.PartDescription = strings.TrimSpace(draft.PartDescription)
	draft.PartCode = strings.TrimSpace(draft.PartCode)
	draft.PartColor = trimOptional(draft.PartColor)
	draft.Notes = trimOptional(draft.Notes)
	if draft.Priority == "" {
		draft.Priority = enums.RequestPriorityNormal
	}
	return draft
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// storeError keeps typed store errors and classifies the rest as dependency failures.
func storeError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

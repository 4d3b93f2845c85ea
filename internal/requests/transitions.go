package requests

import (
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

var baseTransitions = map[enums.RequestStatus][]enums.RequestStatus{
	enums.RequestStatusPending: {
		enums.RequestStatusProcessing,
		enums.RequestStatusWaiting,
		enums.RequestStatusRejected,
	},
	enums.RequestStatusWaiting: {
		enums.RequestStatusProcessing,
	},
	enums.RequestStatusProcessing: {
		enums.RequestStatusCompleted,
	},
}

// Policy is the request state machine. Completed and rejected are terminal.
type Policy struct {
	AllowWaitingReject bool
}

// Allowed lists the statuses reachable from from.
func (p Policy) Allowed(from enums.RequestStatus) []enums.RequestStatus {
	next := append([]enums.RequestStatus(nil), baseTransitions[from]...)
	if p.AllowWaitingReject && from == enums.RequestStatusWaiting {
		next = append(next, enums.RequestStatusRejected)
	}
	return next
}

// CanTransition reports whether from -> to is an edge of the machine.
func (p Policy) CanTransition(from, to enums.RequestStatus) bool {
	for _, candidate := range p.Allowed(from) {
		if candidate == to {
			return true
		}
	}
	return false
}

// Validate returns INVALID_TRANSITION with the allowed targets when from -> to
// is not an edge.
func (p Policy) Validate(from, to enums.RequestStatus) error {
	if p.CanTransition(from, to) {
		return nil
	}
	allowed := p.Allowed(from)
	if allowed == nil {
		allowed = []enums.RequestStatus{}
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not allowed").
		WithDetails(map[string]any{
			"from":    from,
			"to":      to,
			"allowed": allowed,
		})
}

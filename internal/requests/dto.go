package requests

import (
	"time"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	"github.com/angelmondragon/paintdesk-backend/pkg/settings"
)

// FallbackRejectionReason is recorded when a request is rejected without a reason.
const FallbackRejectionReason = "No reason specified"

// Draft carries the caller-supplied fields of a new paint request. The store
// assigns everything else (id, code, status, timestamps).
type Draft struct {
	UserID          int64                 `json:"userId" validate:"gt=0"`
	OriginStation   string                `json:"originStation" validate:"required,max=120"`
	PartDescription string                `json:"partDescription" validate:"required,max=500"`
	PartCode        string                `json:"partCode" validate:"required,max=120"`
	PartColor       *string               `json:"partColor,omitempty" validate:"omitempty,max=60"`
	Quantity        int                   `json:"quantity" validate:"min=1"`
	Priority        enums.RequestPriority `json:"priority" validate:"required,oneof=normal medium high urgent"`
	Notes           *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreateInput pairs a draft with the workstation settings of the submitting
// client. Station.Name fills in the origin when the draft leaves it blank.
type CreateInput struct {
	Draft   Draft
	Station settings.Workstation
}

// StatusUpdateInput asks the lifecycle controller to move a request.
type StatusUpdateInput struct {
	ID              int64
	Status          enums.RequestStatus
	RejectionReason string
}

// StatusChange is the raw mutation handed to Store.ApplyStatus. It only applies
// while the stored row still sits in From.
type StatusChange struct {
	From            enums.RequestStatus
	To              enums.RequestStatus
	RejectionReason *string
	At              time.Time
}

// ListFilter narrows List results; zero values mean "any".
type ListFilter struct {
	UserID *int64
	Status *enums.RequestStatus
}

// Summary counts requests per status for dashboards.
type Summary struct {
	Total    int64                         `json:"total"`
	ByStatus map[enums.RequestStatus]int64 `json:"byStatus"`
}

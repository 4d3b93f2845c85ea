package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/paintdesk-backend/api/middleware"
	"github.com/angelmondragon/paintdesk-backend/api/responses"
	"github.com/angelmondragon/paintdesk-backend/api/validators"
	"github.com/angelmondragon/paintdesk-backend/internal/requests"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/settings"
)

const (
	maxRejectionReasonLen = 500
	defaultQuantity       = 1
)

type createRequestBody struct {
	OriginStation   string  `json:"originStation"`
	PartDescription string  `json:"partDescription"`
	PartCode        string  `json:"partCode"`
	PartColor       *string `json:"partColor"`
	Quantity        *int    `json:"quantity"`
	Priority        string  `json:"priority"`
	Notes           *string `json:"notes"`
}

// quantity defaults to one when omitted; an explicit value is validated as sent.
func (b createRequestBody) quantity() int {
	if b.Quantity == nil {
		return defaultQuantity
	}
	return *b.Quantity
}

type updateStatusBody struct {
	Status          string `json:"status" validate:"required"`
	RejectionReason string `json:"rejectionReason"`
}

// ListRequests returns requests newest first, optionally filtered by
// userId and status.
func ListRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseQueryID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), requests.ListFilter{UserID: userID, Status: status})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func GetRequestByCode(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "requestCode"))
		row, err := svc.GetByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// CreateRequest submits a new paint request as the current user. A blank
// originStation falls back to the server's default workstation name.
func CreateRequest(svc requests.Service, station settings.Workstation, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "current user missing from context"))
			return
		}

		var body createRequestBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), requests.CreateInput{
			Draft: requests.Draft{
				UserID:          userID,
				OriginStation:   body.OriginStation,
				PartDescription: body.PartDescription,
				PartCode:        body.PartCode,
				PartColor:       body.PartColor,
				Quantity:        body.quantity(),
				Priority:        enums.RequestPriority(strings.ToLower(strings.TrimSpace(body.Priority))),
				Notes:           body.Notes,
			},
			Station: station,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func UpdateRequestStatus(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateStatusBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), requests.StatusUpdateInput{
			ID:              id,
			Status:          enums.RequestStatus(strings.ToLower(strings.TrimSpace(body.Status))),
			RejectionReason: validators.SanitizeString(body.RejectionReason, maxRejectionReasonLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// RequestSummary returns per-status counts for the dashboard cards.
func RequestSummary(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

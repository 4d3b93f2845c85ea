package controllers

import (
	"net/http"

	"github.com/angelmondragon/paintdesk-backend/api/middleware"
	"github.com/angelmondragon/paintdesk-backend/api/responses"
	"github.com/angelmondragon/paintdesk-backend/api/validators"
	"github.com/angelmondragon/paintdesk-backend/internal/notifications"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

type markReadResponse struct {
	Updated bool `json:"updated"`
}

type markAllReadResponse struct {
	Updated bool  `json:"updated"`
	Count   int64 `json:"count"`
}

// ListNotifications returns a user's notifications newest first. Without a
// userId query parameter the current user is assumed.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkRead(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, markReadResponse{Updated: updated})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, markAllReadResponse{Updated: count > 0, Count: count})
	}
}

func targetUser(r *http.Request) (int64, error) {
	requested, err := validators.ParseQueryID(r, "userId")
	if err != nil {
		return 0, err
	}
	if requested != nil {
		return *requested, nil
	}
	current, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "userId required")
	}
	return current, nil
}

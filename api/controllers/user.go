package controllers

import (
	"net/http"

	"github.com/angelmondragon/paintdesk-backend/api/responses"
	"github.com/angelmondragon/paintdesk-backend/internal/users"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

func CurrentUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.Current(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

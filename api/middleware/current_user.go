package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/paintdesk-backend/api/responses"
	"github.com/angelmondragon/paintdesk-backend/internal/users"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
)

type currentUserResolver interface {
	Current(ctx context.Context) (*users.UserDTO, error)
}

// CurrentUser attaches the implicit operator to every request. There is no
// login; the seeded default user acts for all workstations.
func CurrentUser(resolver currentUserResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.Current(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithUserID(r.Context(), user.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

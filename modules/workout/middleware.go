package workout

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrymomot/trakkr/handler"
)

// UserIDHeader carries the authenticated user's id, set by the gateway.
const UserIDHeader = "X-User-ID"

var userIDKey = handler.NewContextKey("workout.user_id")

// RequireUser rejects requests without a user id and stores it in the
// request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			_ = handler.JSONError(handler.ErrUnauthorized.WithMessage("missing "+UserIDHeader+" header")).Render(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserID returns the id stored by RequireUser.
func UserID(ctx context.Context) string {
	return handler.ContextValue[string](ctx, userIDKey)
}

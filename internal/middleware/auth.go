package middleware

import (
	"context"
	"net/http"

	"github.com/linqiu/polychat/backend/internal/auth"
	"github.com/linqiu/polychat/backend/pkg/utils"
)

type contextKey string

const identityContextKey contextKey = "identity"

// RequireAuth verifies the bearer credential on every request before the
// handler runs and stores the resolved identity in the request context.
func RequireAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid credential")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity stored by
// RequireAuth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(auth.Identity)
	return identity, ok
}

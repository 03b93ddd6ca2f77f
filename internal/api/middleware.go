package api

import (
	"context"
	"net/http"

	"github.com/dodopayments/payments-engine/internal/service"
)

type contextKey int

const principalKey contextKey = iota

// PrincipalFromContext returns the authenticated principal attached by
// the auth middleware.
func PrincipalFromContext(ctx context.Context) (service.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(service.Principal)
	return principal, ok
}

// authMiddleware verifies the x-api-key header and attaches the
// resulting principal to the request context. Every failure mode is a
// 401; callers learn nothing about why a key was rejected.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("x-api-key")
			if rawKey == "" {
				respondError(w, http.StatusUnauthorized, "Missing x-api-key header", "UNAUTHORIZED")
				return
			}

			principal, err := auth.Verify(r.Context(), rawKey)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid API key", "UNAUTHORIZED")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

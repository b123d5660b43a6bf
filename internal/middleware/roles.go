package middleware

import (
	"net/http"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
)

// RequireRole allows only callers holding one of the given roles. It must run
// after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := FromCtx(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			if _, ok := allowed[u.Role]; !ok {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "role "+u.Role+" may not do this", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

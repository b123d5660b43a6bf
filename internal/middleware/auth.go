package middleware

import (
	"net/http"
	"strings"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
	"github.com/baharkarakas/qrpay-backend/internal/auth"
	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type AuthMiddleware struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthMiddleware(tm *auth.TokenManager, appEnv string) *AuthMiddleware {
	return &AuthMiddleware{TM: tm, AppEnv: appEnv}
}

// devUser parses "dev-<role>-<wallet>".
func devUser(token string) (UserCtx, bool) {
	rest, ok := strings.CutPrefix(token, "dev-")
	if !ok {
		return UserCtx{}, false
	}
	role, wallet, ok := strings.Cut(rest, "-")
	if !ok || wallet == "" {
		return UserCtx{}, false
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return UserCtx{}, false
	}
	return UserCtx{Wallet: wallet, Role: string(r)}, true
}

// DEV: Bearer dev-<role>-<wallet> | PROD/DEV: Bearer <JWT(access)>
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[7:])

		if m.AppEnv == "dev" {
			if u, ok := devUser(token); ok {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
				return
			}
		}

		claims, err := m.TM.ParseAccess(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		u := UserCtx{Wallet: claims.Wallet(), Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

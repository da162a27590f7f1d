package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sisaket-charity/go-backend/internal/auth"
	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
)

type ctxKey string

const claimsCtxKey ctxKey = "claims"

// AuthMiddleware проверяет JWT-токен и кладёт claims в контекст запроса.
type AuthMiddleware struct {
	jwt    *auth.JWTService
	logger logger.Logger
}

func NewAuthMiddleware(jwt *auth.JWTService, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, logger: logger}
}

// Authenticate пропускает только запросы с валидным Bearer-токеном.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			WriteError(w, e.ErrUnauthorized)
			return
		}

		claims, err := m.jwt.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			m.logger.Debugf("token validation failed: %v", err)
			WriteError(w, e.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin пропускает только запросы пользователей с ролью admin.
// Навешивается после Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromCtx(r.Context())
		if claims == nil {
			WriteError(w, e.ErrUnauthorized)
			return
		}
		if claims.Role != domain.RoleAdmin {
			WriteError(w, e.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClaimsFromCtx достаёт claims из контекста запроса. Возвращает nil вне Authenticate.
func ClaimsFromCtx(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsCtxKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

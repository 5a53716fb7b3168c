package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/cmsauth/internal/server/handlers"
	"github.com/iudanet/cmsauth/internal/server/metrics"
	"github.com/iudanet/cmsauth/internal/server/session"
	"github.com/iudanet/cmsauth/internal/server/token"
)

// Identifier проверяет access token и возвращает его владельца
type Identifier interface {
	Identify(ctx context.Context, accessToken string) (token.Identity, error)
}

var _ Identifier = (*session.Gate)(nil)

// AuthMiddleware создает middleware для проверки access token.
// Токен берется из cookie access_token, иначе из заголовка Authorization: Bearer.
func AuthMiddleware(logger *slog.Logger, gate Identifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity, err := gate.Identify(ctx, extractToken(r))
			if err != nil {
				m.RecordAuth(metrics.OpGate, metrics.ResultRejected)
				logger.DebugContext(ctx, "request not authenticated",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				handlers.SendUnauthorized(w, logger, "could not validate credentials")
				return
			}

			m.RecordAuth(metrics.OpGate, metrics.ResultSuccess)
			logger.DebugContext(ctx, "user authenticated",
				slog.Int64("user_id", identity.UserID),
				slog.String("username", identity.Username))

			next.ServeHTTP(w, r.WithContext(handlers.WithIdentity(ctx, identity)))
		})
	}
}

// extractToken достает access token из cookie или заголовка Authorization
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(session.AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// Ожидаем формат: "Bearer <token>"
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

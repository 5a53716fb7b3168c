package session

import (
	"context"
	"log/slog"

	"github.com/iudanet/cmsauth/internal/server/token"
)

// Gate проверяет access token на защищенных маршрутах
type Gate struct {
	logger *slog.Logger
	codec  *token.Codec
}

// NewGate создает Gate
func NewGate(logger *slog.Logger, codec *token.Codec) *Gate {
	return &Gate{logger: logger, codec: codec}
}

// Identify возвращает личность владельца access token.
// Любая причина отказа сводится к ErrUnauthenticated без причины внутри,
// причина пишется только в debug лог.
func (g *Gate) Identify(ctx context.Context, accessToken string) (token.Identity, error) {
	if accessToken == "" {
		g.logger.DebugContext(ctx, "access token rejected", slog.String("error", ErrMissingToken.Error()))
		return token.Identity{}, ErrUnauthenticated
	}

	claims, err := g.codec.DecodeKind(accessToken, token.KindAccess)
	if err != nil {
		g.logger.DebugContext(ctx, "access token rejected", slog.String("error", err.Error()))
		return token.Identity{}, ErrUnauthenticated
	}

	return claims.Identity(), nil
}

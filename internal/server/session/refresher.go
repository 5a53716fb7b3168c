package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/cmsauth/internal/server/token"
)

// Refresher выпускает новый access token по действующему refresh token.
// Refresh token не ротируется и не отзывается.
type Refresher struct {
	logger    *slog.Logger
	codec     *token.Codec
	cookies   Cookies
	accessTTL time.Duration
}

// NewRefresher создает Refresher
func NewRefresher(logger *slog.Logger, codec *token.Codec, cookies Cookies, accessTTL time.Duration) *Refresher {
	return &Refresher{
		logger:    logger,
		codec:     codec,
		cookies:   cookies,
		accessTTL: accessTTL,
	}
}

// Refresh возвращает cookie, которые нужно установить в ответе.
// При успехе это новый access cookie. При ошибке это cookie, очищающие оба токена.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error) {
	if refreshToken == "" {
		return r.cookies.Clear(), ErrMissingToken
	}

	claims, err := r.codec.DecodeKind(refreshToken, token.KindRefresh)
	if err != nil {
		r.logger.DebugContext(ctx, "refresh token rejected", slog.String("error", err.Error()))
		return r.cookies.Clear(), fmt.Errorf("%w: %w", ErrRefreshRejected, err)
	}

	access, err := r.codec.Encode(claims.Identity(), token.KindAccess, r.accessTTL)
	if err != nil {
		return r.cookies.Clear(), fmt.Errorf("failed to issue access token: %w", err)
	}

	return []*http.Cookie{r.cookies.Access(access.Value)}, nil
}

package handlers

import (
	"context"

	"github.com/iudanet/cmsauth/internal/server/token"
)

// contextKey тип для ключей контекста
type contextKey string

// IdentityKey ключ для личности пользователя в контексте запроса
const IdentityKey contextKey = "identity"

// WithIdentity кладет личность пользователя в контекст
func WithIdentity(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity извлекает личность пользователя из контекста
func GetIdentity(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(token.Identity)
	return id, ok
}

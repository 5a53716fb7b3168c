package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/cmsauth/internal/logging"
	"github.com/iudanet/cmsauth/internal/models"
	"github.com/iudanet/cmsauth/internal/server/storage"
	"github.com/iudanet/cmsauth/pkg/api"
)

// UserReader читает пользователей по идентификатору
type UserReader interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
}

// UserHandler обрабатывает защищенные запросы текущего пользователя
type UserHandler struct {
	logger *slog.Logger
	users  UserReader
}

// NewUserHandler создает новый handler
func NewUserHandler(logger *slog.Logger, users UserReader) *UserHandler {
	return &UserHandler{logger: logger, users: users}
}

// Root обрабатывает GET /
// Приветствие для аутентифицированного пользователя
func (h *UserHandler) Root(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r.Context())
	if !ok {
		SendUnauthorized(w, h.logger, "could not validate credentials")
		return
	}

	SendJSON(w, h.logger, api.MessageResponse{Message: fmt.Sprintf("Hello %s", identity.Username)}, http.StatusOK)
}

// Me обрабатывает GET /users/me
// Профиль текущего пользователя
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := GetIdentity(ctx)
	if !ok {
		SendUnauthorized(w, h.logger, "could not validate credentials")
		return
	}

	user, err := h.users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		// Токен пережил удаление пользователя
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "token subject not found", slog.Int64("user_id", identity.UserID))
			SendUnauthorized(w, h.logger, "could not validate credentials")
			return
		}
		logging.LogError(ctx, h.logger, "failed to get user", err)
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	SendJSON(w, h.logger, toUserResponse(user), http.StatusOK)
}

func toUserResponse(u *models.User) api.UserResponse {
	return api.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
}

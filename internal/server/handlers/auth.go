package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/cmsauth/internal/logging"
	"github.com/iudanet/cmsauth/internal/server/metrics"
	"github.com/iudanet/cmsauth/internal/server/session"
	"github.com/iudanet/cmsauth/pkg/api"
)

// maxBodySize ограничение на размер тела запроса
const maxBodySize = 1 << 20

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger    *slog.Logger
	issuer    *session.Issuer
	refresher *session.Refresher
	metrics   *metrics.Metrics
	cookies   session.Cookies
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, issuer *session.Issuer, refresher *session.Refresher,
	cookies session.Cookies, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		issuer:    issuer,
		refresher: refresher,
		cookies:   cookies,
		metrics:   m,
	}
}

// Register обрабатывает POST /auth/register
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultRejected)
		SendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid register request", slog.String("username", req.Username), slog.Any("error", err))
		h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultRejected)
		SendJSON(w, h.logger, api.ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: "validation failed",
			Fields:  api.FieldErrors(err),
		}, http.StatusBadRequest)
		return
	}

	user, err := h.issuer.Register(ctx, session.NewUser{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		IsAdmin:     req.IsAdmin,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrWeakPassword):
			h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultRejected)
			SendError(w, h.logger, err.Error(), http.StatusBadRequest)
		case errors.Is(err, session.ErrDuplicateUser):
			h.logger.WarnContext(ctx, "user already exists", slog.String("username", req.Username))
			h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultRejected)
			SendError(w, h.logger, "username or email already registered", http.StatusConflict)
		case errors.Is(err, session.ErrPrivilegedSignup):
			h.logger.WarnContext(ctx, "privileged registration refused", slog.String("username", req.Username))
			h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultRejected)
			SendError(w, h.logger, "privileged registration is disabled", http.StatusForbidden)
		default:
			logging.LogError(ctx, h.logger, "failed to register user", err)
			h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultError)
			SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.Int64("user_id", user.ID))
	h.metrics.RecordAuth(metrics.OpRegister, metrics.ResultSuccess)

	SendJSON(w, h.logger, api.RegisterResponse{Username: user.Username}, http.StatusCreated)
}

// Login обрабатывает POST /auth/token и POST /auth/login
// Принимает форму username/password, выставляет cookie с токенами
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse login form", slog.Any("error", err))
		h.metrics.RecordAuth(metrics.OpLogin, metrics.ResultRejected)
		SendError(w, h.logger, "invalid form body", http.StatusBadRequest)
		return
	}

	req := api.LoginRequest{
		Username: r.PostForm.Get(api.FormUsername),
		Password: r.PostForm.Get(api.FormPassword),
	}
	if err := req.Validate(); err != nil {
		h.metrics.RecordAuth(metrics.OpLogin, metrics.ResultRejected)
		SendJSON(w, h.logger, api.ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: "username and password are required",
			Fields:  api.FieldErrors(err),
		}, http.StatusBadRequest)
		return
	}

	pair, err := h.issuer.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			h.logger.WarnContext(ctx, "invalid credentials", slog.String("username", req.Username))
			h.metrics.RecordAuth(metrics.OpLogin, metrics.ResultRejected)
			SendUnauthorized(w, h.logger, "incorrect username or password")
			return
		}
		logging.LogError(ctx, h.logger, "failed to log in", err)
		h.metrics.RecordAuth(metrics.OpLogin, metrics.ResultError)
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	session.SetCookies(w, h.cookies.Session(pair))

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", pair.Identity.Username),
		slog.Int64("user_id", pair.Identity.UserID))
	h.metrics.RecordAuth(metrics.OpLogin, metrics.ResultSuccess)

	SendJSON(w, h.logger, api.MessageResponse{Message: "Login successful"}, http.StatusOK)
}

// Refresh обрабатывает POST /auth/refresh
// Выдает новый access token по refresh token из cookie
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var refreshToken string
	if cookie, err := r.Cookie(session.RefreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	cookies, err := h.refresher.Refresh(ctx, refreshToken)
	session.SetCookies(w, cookies)
	if err != nil {
		if errors.Is(err, session.ErrMissingToken) || errors.Is(err, session.ErrRefreshRejected) {
			h.logger.InfoContext(ctx, "refresh rejected", slog.Any("error", err))
			h.metrics.RecordAuth(metrics.OpRefresh, metrics.ResultRejected)
			SendUnauthorized(w, h.logger, "could not refresh session, please log in again")
			return
		}
		logging.LogError(ctx, h.logger, "failed to refresh token", err)
		h.metrics.RecordAuth(metrics.OpRefresh, metrics.ResultError)
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAuth(metrics.OpRefresh, metrics.ResultSuccess)
	SendJSON(w, h.logger, api.MessageResponse{Message: "Token refreshed"}, http.StatusOK)
}

// Logout обрабатывает POST /auth/logout
// Удаляет cookie с токенами. Сами токены остаются действительными до истечения срока.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session.SetCookies(w, h.cookies.Clear())
	h.metrics.RecordAuth(metrics.OpLogout, metrics.ResultSuccess)
	SendJSON(w, h.logger, api.MessageResponse{Message: "Logout successful"}, http.StatusOK)
}

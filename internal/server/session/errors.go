package session

import (
	"errors"

	"github.com/iudanet/cmsauth/internal/validation"
)

// Ошибки сессий. HTTP слой сопоставляет их через errors.Is.
var (
	// ErrInvalidCredentials неизвестный пользователь, неверный пароль или неактивная учетная запись.
	// Намеренно не различаются.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUser username или email уже заняты
	ErrDuplicateUser = errors.New("user already exists")

	// ErrMissingToken токен не передан
	ErrMissingToken = errors.New("missing token")

	// ErrRefreshRejected refresh token просрочен или недействителен, нужен повторный вход
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrUnauthenticated access token не прошел проверку
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPrivilegedSignup самоназначение is_admin/is_superuser отключено конфигурацией
	ErrPrivilegedSignup = errors.New("privileged registration is disabled")

	// ErrWeakPassword пароль не проходит политику сложности
	ErrWeakPassword = validation.ErrWeakPassword
)

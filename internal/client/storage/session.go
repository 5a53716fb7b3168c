package storage

import (
	"context"
	"time"
)

// SessionStore хранит сессию CLI между запусками
type SessionStore interface {
	// SaveSession сохраняет сессию, заменяя предыдущую
	SaveSession(ctx context.Context, s *Session) error

	// GetSession возвращает сохраненную сессию.
	// Returns ErrSessionNotFound if the user is not logged in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession удаляет сессию (logout)
	DeleteSession(ctx context.Context) error
}

// Session токены пользователя, полученные при входе.
// Токены хранятся как есть: файл базы создается с правами 0600.
type Session struct {
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	SavedAt          time.Time `json:"saved_at"`
	Username         string    `json:"username"`
	ServerURL        string    `json:"server_url"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
}

// AccessValid сообщает, действует ли access token в момент now
func (s *Session) AccessValid(now time.Time) bool {
	return s.AccessToken != "" && now.Before(s.AccessExpiresAt)
}

// RefreshValid сообщает, действует ли refresh token в момент now
func (s *Session) RefreshValid(now time.Time) bool {
	return s.RefreshToken != "" && now.Before(s.RefreshExpiresAt)
}

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Validity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{
		AccessToken:      "a",
		RefreshToken:     "r",
		AccessExpiresAt:  now.Add(30 * time.Minute),
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}

	assert.True(t, s.AccessValid(now))
	assert.False(t, s.AccessValid(now.Add(30*time.Minute)))
	assert.True(t, s.RefreshValid(now.Add(time.Hour)))
	assert.False(t, s.RefreshValid(now.Add(7*24*time.Hour)))

	assert.False(t, (&Session{AccessExpiresAt: now.Add(time.Hour)}).AccessValid(now), "empty token is never valid")
}

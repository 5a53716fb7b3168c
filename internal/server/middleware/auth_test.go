package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cmsauth/internal/server/handlers"
	"github.com/iudanet/cmsauth/internal/server/session"
	"github.com/iudanet/cmsauth/internal/server/token"
	"github.com/iudanet/cmsauth/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

func newTestCodec(t *testing.T, now func() time.Time) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec([]byte("test-secret-key"), "HS256", token.WithClock(now))
	require.NoError(t, err)
	return codec
}

// testHandler is a simple handler that checks context values
func testHandler(t *testing.T, expected token.Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := handlers.GetIdentity(r.Context())
		require.True(t, ok, "identity should be in context")
		assert.Equal(t, expected, identity)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func TestAuthMiddleware(t *testing.T) {
	logger := setupTestLogger()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, func() time.Time { return now })
	gate := session.NewGate(logger, codec)

	alice := token.Identity{Username: "alice", UserID: 7}
	access, err := codec.Encode(alice, token.KindAccess, 30*time.Minute)
	require.NoError(t, err)
	refresh, err := codec.Encode(alice, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	bob, err := codec.Encode(token.Identity{Username: "bob", UserID: 8}, token.KindAccess, 30*time.Minute)
	require.NoError(t, err)

	otherCodec, err := token.NewCodec([]byte("another-secret"), "HS256")
	require.NoError(t, err)
	foreign, err := otherCodec.Encode(alice, token.KindAccess, 30*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		prepare    func(r *http.Request)
		name       string
		wantStatus int
	}{
		{
			name: "token from cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: session.AccessCookieName, Value: access.Value})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "token from bearer header",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+access.Value)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bearer scheme is case insensitive",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer "+access.Value)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: session.AccessCookieName, Value: access.Value})
				r.Header.Set("Authorization", "Bearer "+bob.Value)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no token",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "invalid header format",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Token "+access.Value)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "refresh token is rejected",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+refresh.Value)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token signed with another secret",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+foreign.Value)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "garbage token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer invalid.token.here")
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(logger, gate, nil)(testHandler(t, alice))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				var resp api.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "Unauthorized", resp.Error)
			}
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	logger := setupTestLogger()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, func() time.Time { return now })

	access, err := codec.Encode(token.Identity{Username: "alice", UserID: 7}, token.KindAccess, 30*time.Minute)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)

	handler := AuthMiddleware(logger, session.NewGate(logger, codec), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

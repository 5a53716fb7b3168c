package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSetup_JSONAddsServiceAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("cmsauth", "1.2.3", "json", slog.LevelInfo, &buf)

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "hello", slog.String("user", "alice"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "cmsauth", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "alice", entry["user"])
}

func TestSetup_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("cmsauth", "dev", "text", slog.LevelWarn, &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "service=cmsauth")
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = RequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := RequestIDFromContext(WithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestLogError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("cmsauth", "dev", "json", slog.LevelInfo, &buf)

		LogError(context.Background(), logger, "boom", errors.New("disk full"))

		entry := decodeLine(t, &buf)
		assert.Equal(t, "ERROR", entry["level"])
		assert.Equal(t, "disk full", entry["error"])
		assert.NotContains(t, entry, "code")
	})

	t.Run("oops error carries code and context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("cmsauth", "dev", "json", slog.LevelInfo, &buf)

		err := oops.Code("LOGIN_FAILED").In("session").With("username", "alice").Errorf("lookup failed")
		LogError(context.Background(), logger, "login", err)

		entry := decodeLine(t, &buf)
		assert.Equal(t, "LOGIN_FAILED", entry["code"])
		assert.Equal(t, "session", entry["domain"])
		fields, ok := entry["context"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", fields["username"])
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/cmsauth/pkg/api"
)

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		pingError  error
		name       string
		wantStatus string
		wantCode   int
	}{
		{name: "database available", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "database unavailable", pingError: errors.New("disk I/O error"), wantCode: http.StatusServiceUnavailable, wantStatus: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMockUserStorage()
			db.pingError = tt.pingError
			handler := NewHealthHandler(setupTestLogger(), db, "1.2.3")

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			resp := w.Result()
			defer func() {
				assert.NoError(t, resp.Body.Close())
			}()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var healthResp api.HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&healthResp))
			assert.Equal(t, tt.wantStatus, healthResp.Status)
			assert.Equal(t, "1.2.3", healthResp.Version)
		})
	}
}

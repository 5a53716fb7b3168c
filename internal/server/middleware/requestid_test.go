package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/iudanet/cmsauth/internal/logging"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent", incoming: ""},
		{name: "kept when well formed", incoming: "req-123.abc", keep: true},
		{name: "replaced when unsafe", incoming: "bad id\nwith newline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = logging.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			header := w.Header().Get(RequestIDHeader)
			assert.Equal(t, header, seen)
			if tt.keep {
				assert.Equal(t, tt.incoming, header)
				return
			}
			_, err := uuid.Parse(header)
			assert.NoError(t, err)
		})
	}
}

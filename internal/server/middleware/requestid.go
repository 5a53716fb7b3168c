package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/iudanet/cmsauth/internal/logging"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

// входящий идентификатор принимается только в безопасном виде
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID присваивает запросу идентификатор и кладет его в контекст логгера.
// Корректный идентификатор от клиента или прокси сохраняется.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !requestIDPattern.MatchString(id) {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

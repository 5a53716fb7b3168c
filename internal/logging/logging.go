// Package logging настраивает slog для сервера и утилит.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
)

type requestIDKey struct{}

// WithRequestID кладет идентификатор запроса в контекст
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext извлекает идентификатор запроса из контекста
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// contextHandler дополняет записи service/version и request_id из контекста
type contextHandler struct {
	handler slog.Handler
	service string
	version string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	if ctx != nil {
		if id, ok := RequestIDFromContext(ctx); ok {
			r.AddAttrs(slog.String("request_id", id))
		}
	}
	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// Setup создает логгер.
// format: "json" или "text" (по умолчанию text). Если w == nil, пишем в os.Stderr.
func Setup(service, version, format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if format == "json" {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	return slog.New(&contextHandler{handler: base, service: service, version: version})
}

// LogError логирует ошибку на уровне Error.
// Для oops ошибок дополнительно выводит code и context.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	attrs := []any{slog.String("error", err.Error())}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, slog.Any("code", code))
		}
		if domain := oopsErr.Domain(); domain != "" {
			attrs = append(attrs, slog.String("domain", domain))
		}
		if fields := oopsErr.Context(); len(fields) > 0 {
			attrs = append(attrs, slog.Any("context", fields))
		}
	}
	logger.ErrorContext(ctx, msg, attrs...)
}

// Package server собирает HTTP сервер: маршруты, middleware и компоненты сессий.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/cmsauth/internal/config"
	"github.com/iudanet/cmsauth/internal/crypto"
	"github.com/iudanet/cmsauth/internal/server/handlers"
	"github.com/iudanet/cmsauth/internal/server/metrics"
	"github.com/iudanet/cmsauth/internal/server/middleware"
	"github.com/iudanet/cmsauth/internal/server/session"
	"github.com/iudanet/cmsauth/internal/server/storage"
	"github.com/iudanet/cmsauth/internal/server/token"
	"github.com/iudanet/cmsauth/internal/validation"
)

// Server HTTP сервер аутентификации
type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	limiter         *middleware.RateLimiter
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

type options struct {
	now      func() time.Time
	registry *prometheus.Registry
}

// Option настраивает Server
type Option func(*options)

// WithClock подменяет источник времени для токенов и last_login
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRegistry регистрирует метрики в заданном реестре
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New создает сервер. Конфигурация должна быть провалидирована.
func New(cfg *config.Config, logger *slog.Logger, store storage.UserStorage, version string, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	codec, err := token.NewCodec([]byte(cfg.SecretKey), cfg.Algorithm, token.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	hasher, err := crypto.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	settings := session.NewSettings(cfg)
	settings.Now = o.now

	cookies := session.Cookies{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Secure:     cfg.CookieSecure,
	}

	issuer := session.NewIssuer(logger, store, hasher, validation.NewPasswordPolicy(cfg.SpecialCharacters), codec, settings)
	refresher := session.NewRefresher(logger, codec, cookies, cfg.AccessTokenTTL)
	gate := session.NewGate(logger, codec)
	m := metrics.New(o.registry)

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow,
		middleware.NewClientIP(cfg.TrustedProxies), logger)

	authHandler := handlers.NewAuthHandler(logger, issuer, refresher, cookies, m)
	userHandler := handlers.NewUserHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, store, version)

	requireAuth := middleware.AuthMiddleware(logger, gate, m)
	limited := func(route string, h http.HandlerFunc) http.Handler {
		return limiter.Middleware(route, m)(h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /auth/register", limited("/auth/register", authHandler.Register))
	mux.Handle("POST /auth/token", limited("/auth/token", authHandler.Login))
	mux.Handle("POST /auth/login", limited("/auth/login", authHandler.Login))
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.Handle("GET /{$}", requireAuth(http.HandlerFunc(userHandler.Root)))
	mux.Handle("GET /users/me", requireAuth(http.HandlerFunc(userHandler.Me)))
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", m.Handler())

	handler := middleware.Chain(mux,
		middleware.RecoveryMiddleware(logger),
		middleware.RequestID,
		middleware.LoggingMiddleware(logger, m, "/health", "/metrics"),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		handler:         handler,
		limiter:         limiter,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Handler корневой http.Handler со всеми middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает адрес до отмены ctx, затем корректно завершает активные запросы
func (s *Server) Run(ctx context.Context) error {
	errC := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", slog.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close освобождает фоновые ресурсы
func (s *Server) Close() {
	s.limiter.Stop()
}

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/cmsauth/internal/server/handlers"
	"github.com/iudanet/cmsauth/internal/server/metrics"
)

// RateLimiter ограничивает число запросов с одного ключа (обычно IP) в окне времени
type RateLimiter struct {
	buckets  map[string]*bucket
	clientIP *ClientIP
	logger   *slog.Logger
	now      func() time.Time
	cleanupC chan struct{}
	stopOnce sync.Once
	rate     int
	window   time.Duration
	mu       sync.RWMutex
}

// bucket представляет bucket для конкретного ключа
type bucket struct {
	windowStart time.Time
	tokens      int
	mu          sync.Mutex
}

// NewRateLimiter создает новый rate limiter
// rate - максимальное количество запросов в окне
// window - временное окно (например, 1 минута)
// clientIP - определение IP клиента, nil означает без доверенных прокси
func NewRateLimiter(rate int, window time.Duration, clientIP *ClientIP, logger *slog.Logger) *RateLimiter {
	rl := newRateLimiter(rate, window, clientIP, logger, time.Now)

	// Запускаем периодическую очистку старых buckets
	go rl.cleanup()

	return rl
}

func newRateLimiter(rate int, window time.Duration, clientIP *ClientIP, logger *slog.Logger, now func() time.Time) *RateLimiter {
	if clientIP == nil {
		clientIP = NewClientIP(nil)
	}
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		clientIP: clientIP,
		rate:     rate,
		window:   window,
		logger:   logger,
		now:      now,
		cleanupC: make(chan struct{}),
	}
}

// cleanup периодически удаляет неактивные buckets для экономии памяти
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, окно которых закончилось давно
func (rl *RateLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.windowStart) > rl.window*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop останавливает cleanup goroutine. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.cleanupC)
	})
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Ключ мог появиться, пока ждали блокировку
		if b, exists = rl.buckets[key]; !exists {
			b = &bucket{
				tokens:      rl.rate,
				windowStart: rl.now(),
			}
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	if now.Sub(b.windowStart) >= rl.window {
		b.tokens = rl.rate
		b.windowStart = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Middleware ограничивает частоту запросов к маршруту route по IP клиента.
// Маршруты не делят общий лимит.
func (rl *RateLimiter) Middleware(route string, m *metrics.Metrics) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := rl.clientIP.FromRequest(r)

			if !rl.Allow(route + "|" + ip) {
				rl.logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("method", r.Method),
					slog.String("route", route),
				)
				m.RecordRateLimited(route)

				w.Header().Set("Retry-After", retryAfter)
				handlers.SendError(w, rl.logger, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

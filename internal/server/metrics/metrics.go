package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Операции аутентификации
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
	OpGate     = "gate"
)

// Результаты операций
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics метрики сервера
type Metrics struct {
	registry        *prometheus.Registry
	authEvents      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
}

// New создает метрики и регистрирует их в reg.
// Если reg nil, создается новый реестр с go и process коллекторами.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: reg,
		authEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmsauth_auth_events_total",
				Help: "Total number of authentication operations by result",
			},
			[]string{"operation", "result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cmsauth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmsauth_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(m.authEvents, m.requestDuration, m.rateLimited)
	return m
}

// RecordAuth учитывает результат операции аутентификации
func (m *Metrics) RecordAuth(operation, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(operation, result).Inc()
}

// ObserveRequest записывает длительность HTTP запроса
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordRateLimited учитывает отклоненный rate limiter запрос
func (m *Metrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// Handler отдает метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

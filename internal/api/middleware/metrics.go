// metrics.go — Prometheus HTTP метрики Dashboard Module.
// Регистрирует метрики: dm_http_requests_total, dm_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dm_http_requests_total",
			Help: "Общее количество HTTP-запросов к Dashboard Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Dashboard Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем id записей на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// resourceSegments — разделы дашборда с записями вида /<раздел>/<id>[/action].
var resourceSegments = map[string]bool{
	"admins":     true,
	"users":      true,
	"categories": true,
	"sizes":      true,
	"flavors":    true,
	"products":   true,
	"quotations": true,
	"jobs":       true,
	"files":      true,
	"galleries":  true,
	"videos":     true,
	"contact-us": true,
}

// normalizePath заменяет id записи в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /products/66f1a2b3c4d5/toggle-status → /products/{id}/toggle-status
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/auth/sign-in", "/auth/sign-out", "/auth/session", "/auth/profile",
		"/auth/forgot-password/send-otp",
		"/auth/forgot-password/verify-otp",
		"/auth/forgot-password/reset",
		"/dashboard/summary":
		return path
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 2 || !resourceSegments[parts[0]] {
		return path
	}

	normalized := "/" + parts[0] + "/{id}"
	if len(parts) > 2 {
		normalized += "/" + strings.Join(parts[2:], "/")
	}
	return normalized
}

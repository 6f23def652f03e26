// ratelimit.go — ограничение частоты запросов к endpoint'ам
// аутентификации. Перебор паролей и OTP-кодов гасится per-IP
// token-bucket лимитером.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apierrors "github.com/arturkryukov/candystore/dashboard-module/internal/api/errors"
)

// clientLimiter — лимитер одного клиента.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AuthRateLimiter — per-IP ограничитель запросов аутентификации.
type AuthRateLimiter struct {
	rpm     int
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewAuthRateLimiter создаёт ограничитель с лимитом rpm запросов
// в минуту на клиента.
func NewAuthRateLimiter(rpm int) *AuthRateLimiter {
	if rpm <= 0 {
		rpm = 10
	}
	return &AuthRateLimiter{
		rpm:     rpm,
		clients: map[string]*clientLimiter{},
	}
}

// Middleware отклоняет запросы сверх лимита с 429 и Retry-After.
func (l *AuthRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(extractClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				apierrors.TooManyRequests(w, "слишком много запросов, попробуйте позже")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *AuthRateLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	client, exists := l.clients[clientIP]
	if !exists {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.rpm)), l.rpm),
		}
		l.clients[clientIP] = client
	}
	client.lastSeen = time.Now()
	l.gcLocked()
	l.mu.Unlock()

	return client.limiter.Allow()
}

// gcLocked выбрасывает давно не появлявшихся клиентов,
// чтобы карта не росла бесконечно. Вызывается под мьютексом.
func (l *AuthRateLimiter) gcLocked() {
	if len(l.clients) < 1000 {
		return
	}
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// extractClientIP определяет IP клиента с учётом реверс-прокси.
func extractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}
	return r.RemoteAddr
}

// cors.go — CORS для SPA-фронтенда дашборда.
// Credentials включены: токен живёт в HttpOnly cookie.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS возвращает middleware с разрешёнными origin'ами SPA.
// Пустой список означает работу за одним origin (reverse proxy),
// заголовки CORS тогда не нужны, но middleware остаётся безвредным.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id", "X-Session-Refresh"},
		ExposedHeaders:   []string{"X-Request-Id"},
		MaxAge:           3600,
		AllowCredentials: true,
	})

	return handler.Handler
}

// requestid.go — присвоение запросу уникального идентификатора.
// Идентификатор попадает в логи и возвращается клиенту
// в заголовке X-Request-Id.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader — заголовок с идентификатором запроса.
const requestIDHeader = "X-Request-Id"

// contextKeyRequestID — идентификатор запроса в контексте.
const contextKeyRequestID contextKey = "request_id"

// RequestID возвращает middleware, присваивающий запросу идентификатор.
// Идентификатор клиента принимается как есть; отсутствующий генерируется.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса (пустая строка
// вне цепочки middleware).
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// Пакет middleware — HTTP middleware Dashboard Module.
// session.go — гидратация сессии из токен-cookie на каждый запрос.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// contextKeySession — сессия запроса в контексте.
const contextKeySession contextKey = "session"

// SessionHydrator — middleware восстановления сессии.
// Каждый запрос получает полностью собранный снимок сессии в контексте;
// guard и обработчики читают его, не обращаясь к cookie повторно.
type SessionHydrator struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewSessionHydrator создаёт middleware гидратации сессии.
func NewSessionHydrator(sessions *session.Manager, logger *slog.Logger) *SessionHydrator {
	return &SessionHydrator{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_middleware")),
	}
}

// Middleware восстанавливает сессию и кладёт её в контекст запроса.
// Деактивированный аккаунт уже разлогинен менеджером — запрос идёт
// дальше с пустой сессией, guard перенаправит на вход.
func (h *SessionHydrator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := h.sessions.Initialize(r.Context(), w, r)
			if err != nil {
				if errors.Is(err, session.ErrAccountDisabled) {
					h.logger.Info("Сессия деактивированного аккаунта завершена",
						slog.String("remote_addr", r.RemoteAddr),
					)
				}
				sess = session.Empty()
			}

			ctx := context.WithValue(r.Context(), contextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext возвращает сессию запроса.
// Вне цепочки гидратации возвращает пустую сессию, не nil.
func SessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(contextKeySession).(*session.Session); ok {
		return sess
	}
	return session.Empty()
}

// SessionFromRequest — удобная форма SessionFromContext для guard.
func SessionFromRequest(r *http.Request) *session.Session {
	return SessionFromContext(r.Context())
}

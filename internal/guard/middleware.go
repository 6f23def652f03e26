// middleware.go — перевод решений guard в HTTP-ответы.
// Навигационные запросы получают 303 redirect, запросы SPA
// с Accept: application/json — JSON-ошибку в стандартном конверте.
package guard

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/arturkryukov/candystore/dashboard-module/internal/api/errors"
	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

// SessionFunc извлекает сессию текущего запроса.
// Сессию в контекст кладёт middleware аутентификации.
type SessionFunc func(r *http.Request) *session.Session

// Middleware проверяет доступ к пути запроса по полной поверхности
// маршрутов и пропускает дальше только решение Allow.
func Middleware(sessions SessionFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "guard"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions(r)
			decision := Evaluate(r.URL.Path, sess)

			if decision != Allow {
				log.Debug("Доступ к маршруту отклонён",
					slog.String("path", r.URL.Path),
					slog.String("decision", decision.String()),
					slog.String("role", string(sess.Profile.Role)),
				)
			}

			switch decision {
			case Allow:
				next.ServeHTTP(w, r)
			case RedirectToLogin:
				if wantsJSON(r) {
					apierrors.Unauthorized(w, "требуется вход")
					return
				}
				// Исходный путь сохраняется для возврата после входа.
				target := "/sign-in?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			case RedirectToUnauthorized:
				if wantsJSON(r) {
					apierrors.Forbidden(w, "недостаточно прав")
					return
				}
				http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
			case RedirectHome:
				if wantsJSON(r) {
					apierrors.NotFound(w, "маршрут не найден")
					return
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
			}
		})
	}
}

// wantsJSON — true для запросов SPA, ожидающих JSON вместо redirect'а.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

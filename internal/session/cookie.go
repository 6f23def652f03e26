// cookie.go — хранение bearer-токена в HTTP cookie.
// Одна cookie с именем token, срок жизни сутки. Очищается при logout
// и при обнаружении деактивированного аккаунта.
package session

import (
	"errors"
	"net/http"
)

// CookieName — имя cookie с bearer-токеном.
const CookieName = "token"

// cookieMaxAge — срок жизни cookie (24 часа).
const cookieMaxAge = 24 * 60 * 60

// CookieStore — чтение и запись токен-cookie.
type CookieStore struct {
	// secure — ставить Secure flag (true для HTTPS).
	secure bool
}

// NewCookieStore создаёт хранилище токен-cookie.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

// Read извлекает токен из запроса. ok=false — cookie отсутствует.
func (s *CookieStore) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", false
		}
		return "", false
	}
	if cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Write устанавливает токен-cookie со сроком жизни сутки.
func (s *CookieStore) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет токен-cookie. Безопасно вызывать повторно.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arturkryukov/candystore/dashboard-module/internal/api/middleware"
	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func makeToken(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("подпись тестового токена: %v", err)
	}
	return token
}

// newTestHandler собирает Handler поверх фейкового Catalog API.
func newTestHandler(t *testing.T, srv *httptest.Server) (*Handler, *session.Manager) {
	t.Helper()
	logger := testLogger()
	client := catalog.New(srv.URL, "", srv.Client(), logger)
	sessions := session.NewManager(client, session.NewTokenDecoder(0, logger), session.NewCookieStore(false), logger)
	return NewHandler(client, sessions, 10, time.Minute, logger), sessions
}

// hydrate пропускает запрос через middleware гидратации сессии.
func hydrate(sessions *session.Manager, next http.HandlerFunc) http.Handler {
	return middleware.NewSessionHydrator(sessions, testLogger()).Middleware()(next)
}

// TestSignIn_ValidationNeverReachesAPI — ошибки формы отклоняются
// до любого сетевого вызова.
func TestSignIn_ValidationNeverReachesAPI(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	h, _ := newTestHandler(t, srv)

	tests := []struct {
		name string
		body string
	}{
		{"пустой email", `{"email":"","password":"secret"}`},
		{"email без @", `{"email":"not-an-email","password":"secret"}`},
		{"пустой пароль", `{"email":"a@b.com","password":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(tt.body))
			h.SignIn(rec, r)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("статус = %d", rec.Code)
			}
		})
	}

	if hits != 0 {
		t.Errorf("ошибки валидации дошли до API: %d запросов", hits)
	}
}

// TestSignIn_Success — успешный вход возвращает профиль
// и устанавливает токен-cookie.
func TestSignIn_Success(t *testing.T) {
	token := makeToken(t, "A1", "admin")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/superadmin/login":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"не найден"}`))
		case "/admin/login":
			_, _ = w.Write([]byte(`{"token":"` + token + `","message":"Добро пожаловать"}`))
		case "/admin/me":
			_, _ = w.Write([]byte(`{"data":{"_id":"A1","name":"Админ","isActive":true,"permissions":["Products"]}}`))
		default:
			t.Errorf("неожиданный путь %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	h, _ := newTestHandler(t, srv)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(`{"email":"a@b.com","password":"secret"}`))
	h.SignIn(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, тело %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string          `json:"message"`
		Profile profileResponse `json:"profile"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Profile.ID != "A1" || resp.Profile.Role != "admin" {
		t.Errorf("profile = %+v", resp.Profile)
	}
	if len(resp.Profile.Capabilities) != 1 || resp.Profile.Capabilities[0] != "Products" {
		t.Errorf("capabilities = %v", resp.Profile.Capabilities)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value == token {
			found = true
		}
	}
	if !found {
		t.Error("токен-cookie не установлена")
	}
}

// TestSignIn_BothRejected — оба endpoint'а отклонили вход: 401
// с сообщением admin endpoint'а.
func TestSignIn_BothRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		if r.URL.Path == "/admin/login" {
			_, _ = w.Write([]byte(`{"message":"Неверный email или пароль"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"не найден"}`))
	}))
	defer srv.Close()

	h, _ := newTestHandler(t, srv)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(`{"email":"a@b.com","password":"bad"}`))
	h.SignIn(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("статус = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Неверный email или пароль") {
		t.Errorf("тело = %s", rec.Body.String())
	}
}

// TestSession_Authenticated — GET /auth/session возвращает профиль
// и capabilities для восстановленной из cookie сессии.
func TestSession_Authenticated(t *testing.T) {
	token := makeToken(t, "A1", "admin")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"_id":"A1","name":"Админ","isActive":true,"permissions":["Products","Users"]}}`))
	}))
	defer srv.Close()

	h, sessions := newTestHandler(t, srv)

	r := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()
	hydrate(sessions, h.Session).ServeHTTP(rec, r)

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if !resp.Authenticated || resp.Profile == nil {
		t.Fatalf("ответ = %+v", resp)
	}
	if len(resp.Profile.Capabilities) != 2 {
		t.Errorf("capabilities = %v", resp.Profile.Capabilities)
	}
}

// TestSession_Anonymous — без cookie сессия не аутентифицирована.
func TestSession_Anonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("неожиданный запрос к API: %s", r.URL.Path)
	}))
	defer srv.Close()

	h, sessions := newTestHandler(t, srv)

	rec := httptest.NewRecorder()
	hydrate(sessions, h.Session).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session", nil))

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Authenticated || resp.Profile != nil {
		t.Errorf("ответ = %+v", resp)
	}
}

// TestForgotPassword_FlowStateMachine — трёхшаговый сброс пароля:
// неверный код не продвигает состояние, несовпадающие пароли
// отклоняются без сетевого вызова, шаги идут строго по порядку.
func TestForgotPassword_FlowStateMachine(t *testing.T) {
	var resetHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/send-otp":
			_, _ = w.Write([]byte(`{"message":"Код отправлен"}`))
		case "/admin/verify-otp":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["otp"] != "123456" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"Неверный код"}`))
				return
			}
			_, _ = w.Write([]byte(`{"message":"Код подтверждён"}`))
		case "/admin/reset-password":
			resetHits++
			_, _ = w.Write([]byte(`{"message":"Пароль обновлён"}`))
		default:
			t.Errorf("неожиданный путь %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	h, _ := newTestHandler(t, srv)

	post := func(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		return rec
	}

	// Сброс до отправки кода отклоняется.
	if rec := post(h.ForgotPasswordReset, `{"email":"a@b.com","newPassword":"p1","confirmNewPassword":"p1"}`); rec.Code != http.StatusConflict {
		t.Fatalf("сброс без отправки кода: статус %d", rec.Code)
	}

	// Шаг 1: отправка кода.
	if rec := post(h.ForgotPasswordSendOTP, `{"email":"a@b.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("отправка кода: статус %d", rec.Code)
	}

	// Неверный код: ошибка, состояние остаётся на проверке.
	if rec := post(h.ForgotPasswordVerifyOTP, `{"email":"a@b.com","otp":"000000"}`); rec.Code == http.StatusOK {
		t.Fatal("неверный код принят")
	}

	// Сброс всё ещё недоступен — код не подтверждён.
	if rec := post(h.ForgotPasswordReset, `{"email":"a@b.com","newPassword":"p1","confirmNewPassword":"p1"}`); rec.Code != http.StatusConflict {
		t.Fatalf("сброс без подтверждения кода: статус %d", rec.Code)
	}

	// Верный код продвигает состояние.
	if rec := post(h.ForgotPasswordVerifyOTP, `{"email":"a@b.com","otp":"123456"}`); rec.Code != http.StatusOK {
		t.Fatalf("верный код: статус %d", rec.Code)
	}

	// Несовпадающие пароли отклоняются до сетевого вызова.
	if rec := post(h.ForgotPasswordReset, `{"email":"a@b.com","newPassword":"p1","confirmNewPassword":"p2"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("несовпадающие пароли: статус %d", rec.Code)
	}
	if resetHits != 0 {
		t.Fatalf("несовпадающие пароли дошли до API: %d запросов", resetHits)
	}

	// Совпадающие пароли завершают сброс.
	if rec := post(h.ForgotPasswordReset, `{"email":"a@b.com","newPassword":"p1","confirmNewPassword":"p1"}`); rec.Code != http.StatusOK {
		t.Fatalf("завершение сброса: статус %d", rec.Code)
	}
	if resetHits != 1 {
		t.Errorf("resetHits = %d", resetHits)
	}

	// Состояние удалено: повторный сброс требует нового кода.
	if rec := post(h.ForgotPasswordReset, `{"email":"a@b.com","newPassword":"p1","confirmNewPassword":"p1"}`); rec.Code != http.StatusConflict {
		t.Fatalf("повторный сброс: статус %d", rec.Code)
	}
}

// TestUpdateProfile_MergesSession — успешное обновление вливает поля
// в сессию без повторной загрузки профиля.
func TestUpdateProfile_MergesSession(t *testing.T) {
	token := makeToken(t, "A1", "admin")
	meHits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/admin/me" && r.Method == http.MethodGet:
			meHits++
			_, _ = w.Write([]byte(`{"data":{"_id":"A1","name":"Старое имя","isActive":true}}`))
		case r.URL.Path == "/admin/me" && r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"message":"Профиль обновлён"}`))
		default:
			t.Errorf("неожиданный запрос %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	h, sessions := newTestHandler(t, srv)

	r := httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(`{"name":"Новое имя"}`))
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()
	hydrate(sessions, h.UpdateProfile).ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, тело %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Profile profileResponse `json:"profile"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Profile.Name != "Новое имя" {
		t.Errorf("Name = %q", resp.Profile.Name)
	}
	if meHits != 1 {
		t.Errorf("профиль перезагружался после обновления: %d GET /admin/me", meHits)
	}
}

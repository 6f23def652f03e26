package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// asAPIError — обёртка errors.As для читаемости тестов.
func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestBearerTokenFromContext проверяет, что токен из контекста
// прикрепляется к запросу, а без него заголовок отсутствует.
func TestBearerTokenFromContext(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", srv.Client(), testLogger())

	// Без токена
	if _, err := Sizes.List(context.Background(), c, ListParams{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("List без токена: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, ожидался пустой заголовок", gotAuth)
	}

	// С токеном из контекста
	ctx := ContextWithToken(context.Background(), "abc123")
	if _, err := Sizes.List(ctx, c, ListParams{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("List с токеном: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, ожидался Bearer abc123", gotAuth)
	}
}

// TestListQueryParams проверяет сериализацию page/limit/search.
func TestListQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", srv.Client(), testLogger())
	_, err := Products.List(context.Background(), c, ListParams{Page: 2, Limit: 10, Search: "торт"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := "limit=10&page=2&search=%D1%82%D0%BE%D1%80%D1%82"
	if gotQuery != want {
		t.Errorf("query = %q, хотели %q", gotQuery, want)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "message из тела",
			status:  http.StatusBadRequest,
			body:    `{"message":"Название обязательно"}`,
			wantMsg: "Название обязательно",
		},
		{
			name:    "список errors",
			status:  http.StatusUnprocessableEntity,
			body:    `{"errors":["email обязателен","телефон обязателен"]}`,
			wantMsg: "email обязателен; телефон обязателен",
		},
		{
			name:    "пустое тело",
			status:  http.StatusBadGateway,
			body:    "",
			wantMsg: "Catalog API вернул статус 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "", srv.Client(), testLogger())
			_, err := Sizes.List(context.Background(), c, ListParams{Page: 1})
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}

			var apiErr *APIError
			if !asAPIError(err, &apiErr) {
				t.Fatalf("ошибка %T не содержит *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, хотели %d", apiErr.Status, tt.status)
			}
			if apiErr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, хотели %q", apiErr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCheckReady(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus string
	}{
		{name: "доступен", status: http.StatusOK, wantStatus: "ok"},
		{name: "клиентская ошибка — degraded", status: http.StatusNotFound, wantStatus: "degraded"},
		{name: "серверная ошибка — fail", status: http.StatusInternalServerError, wantStatus: "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %q, ожидался /health", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New(srv.URL, "/health", srv.Client(), testLogger())
			status, _ := c.CheckReady()
			if status != tt.wantStatus {
				t.Errorf("CheckReady() = %q, хотели %q", status, tt.wantStatus)
			}
		})
	}
}

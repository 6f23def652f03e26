// Пакет catalog — HTTP-клиент к удалённому Catalog API.
// Единственный сетевой коллаборатор Dashboard Module: все данные
// дашборда читаются и изменяются через него, локального хранилища нет.
// Bearer-токен пользователя прикрепляется на уровне клиента из контекста
// запроса, а не в каждом вызове. Поддерживает TLS с кастомным CA
// (DM_API_CA_CERT_PATH).
package catalog

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// tokenContextKey — ключ контекста для bearer-токена текущего запроса.
type tokenContextKey struct{}

// ContextWithToken возвращает контекст с bearer-токеном пользователя.
// Клиент прикрепляет его ко всем исходящим запросам.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// tokenFromContext извлекает bearer-токен из контекста.
// Пустая строка — запрос без авторизации (login, OTP).
func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// Client — HTTP-клиент к Catalog API.
type Client struct {
	baseURL    string // Базовый URL без trailing slash
	healthPath string // Путь health endpoint для readiness probe
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент Catalog API.
// baseURL — базовый URL удалённого API.
// healthPath — путь readiness-проверки (обычно /health).
// httpClient — HTTP-клиент (nil — стандартный с таймаутом 30s).
func New(baseURL, healthPath string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if healthPath == "" {
		healthPath = "/health"
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		healthPath: healthPath,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "catalog_client")),
	}
}

// NewHTTPClientWithCA создаёт HTTP-клиент с кастомным CA-сертификатом.
// timeout — таймаут всех запросов к Catalog API.
func NewHTTPClientWithCA(caCertPath string, timeout time.Duration) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: caCertPool,
			},
		},
	}, nil
}

// BaseURL возвращает базовый URL Catalog API (для dephealth-метрик).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthURL возвращает полный URL readiness-проверки Catalog API.
func (c *Client) HealthURL() string {
	return c.baseURL + c.healthPath
}

// ListParams — параметры запроса списка ресурсов.
type ListParams struct {
	// Page — номер страницы, нумерация с 1.
	Page int
	// Limit — размер страницы.
	Limit int
	// Search — поисковая строка; сервер — источник истины для фильтрации.
	Search string
}

// query сериализует параметры в query string.
func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

// do выполняет HTTP-запрос к Catalog API, прикрепляя bearer-токен
// из контекста (если есть). body и contentType могут быть пустыми.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}

	if token := tokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

// doJSON выполняет запрос с JSON-телом (nil — без тела).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	return c.do(ctx, method, path, query, bodyReader, contentType)
}

// decodeResponse декодирует JSON-ответ в target.
// Неуспешный статус превращается в *APIError.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа Catalog API: %w", err)
		}
	}

	return nil
}

// CheckReady проверяет доступность Catalog API через health endpoint.
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.healthPath, nil, nil, "")
	if err != nil {
		return "fail", fmt.Sprintf("Catalog API недоступен: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return "fail", fmt.Sprintf("Catalog API вернул статус %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "degraded", fmt.Sprintf("Catalog API вернул статус %d", resp.StatusCode)
	}

	return "ok", "Catalog API доступен"
}

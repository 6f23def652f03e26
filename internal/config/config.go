// Пакет config — загрузка и валидация конфигурации Dashboard Module
// из переменных окружения. Локальный .env подхватывается через godotenv
// (удобно при разработке, в кластере файл отсутствует).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Dashboard Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Catalog API ---

	// Базовый URL удалённого Catalog API
	APIBaseURL string
	// Путь health endpoint'а Catalog API
	APIHealthPath string
	// Таймаут HTTP-клиента Catalog API
	APITimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с Catalog API (опционально)
	APICACertPath string

	// --- Токены ---

	// URL JWKS endpoint для проверки подписи токенов (опционально;
	// пустой — claims читаются без проверки подписи)
	JWKSURL string
	// Интервал обновления JWKS
	JWKSRefreshInterval time.Duration
	// Допуск рассинхронизации часов при проверке срока токена
	JWTLeeway time.Duration
	// Ставить Secure flag на токен-cookie (true за HTTPS)
	SecureCookie bool

	// --- SPA ---

	// Разрешённые CORS origin'ы SPA (через запятую; пусто — один origin)
	CORSOrigins []string
	// Лимит запросов аутентификации в минуту на клиента
	AuthRateLimit int
	// Размер страницы списков по умолчанию
	PageSize int
	// Срок жизни состояния сброса пароля
	ResetFlowTTL time.Duration

	// --- Мониторинг ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	// .env необязателен; в кластере конфигурация приходит из окружения.
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DM_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("DM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("DM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// DM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DM_LOG_LEVEL: %w", err)
	}

	// DM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Catalog API ---

	// DM_API_BASE_URL — обязательный
	cfg.APIBaseURL, err = getEnvRequired("DM_API_BASE_URL")
	if err != nil {
		return nil, err
	}
	if _, parseErr := url.ParseRequestURI(cfg.APIBaseURL); parseErr != nil {
		return nil, fmt.Errorf("DM_API_BASE_URL: некорректный URL %q", cfg.APIBaseURL)
	}

	// DM_API_HEALTH_PATH — health endpoint Catalog API (по умолчанию /health)
	cfg.APIHealthPath = getEnvDefault("DM_API_HEALTH_PATH", "/health")
	if !strings.HasPrefix(cfg.APIHealthPath, "/") {
		return nil, fmt.Errorf("DM_API_HEALTH_PATH: путь должен начинаться с /")
	}

	// DM_API_TIMEOUT — таймаут HTTP-клиента (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDuration("DM_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_API_TIMEOUT: %w", err)
	}

	// DM_API_CA_CERT_PATH — CA-сертификат для TLS (опционально)
	cfg.APICACertPath = os.Getenv("DM_API_CA_CERT_PATH")

	// --- Токены ---

	// DM_JWKS_URL — JWKS endpoint (опционально)
	cfg.JWKSURL = os.Getenv("DM_JWKS_URL")
	if cfg.JWKSURL != "" {
		if _, parseErr := url.ParseRequestURI(cfg.JWKSURL); parseErr != nil {
			return nil, fmt.Errorf("DM_JWKS_URL: некорректный URL %q", cfg.JWKSURL)
		}
	}

	// DM_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("DM_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DM_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// DM_JWT_LEEWAY — допуск рассинхронизации часов (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("DM_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_JWT_LEEWAY: %w", err)
	}

	// DM_SECURE_COOKIE — Secure flag на cookie (по умолчанию false)
	cfg.SecureCookie, err = getEnvBool("DM_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("DM_SECURE_COOKIE: %w", err)
	}

	// --- SPA ---

	// DM_CORS_ORIGINS — origin'ы SPA через запятую (по умолчанию пусто)
	cfg.CORSOrigins = parseCSV(os.Getenv("DM_CORS_ORIGINS"))

	// DM_AUTH_RATE_LIMIT — лимит запросов аутентификации (по умолчанию 10/мин)
	cfg.AuthRateLimit, err = getEnvInt("DM_AUTH_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("DM_AUTH_RATE_LIMIT: %w", err)
	}
	if cfg.AuthRateLimit < 1 {
		return nil, fmt.Errorf("DM_AUTH_RATE_LIMIT: значение должно быть положительным")
	}

	// DM_PAGE_SIZE — размер страницы списков (по умолчанию 10)
	cfg.PageSize, err = getEnvInt("DM_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("DM_PAGE_SIZE: %w", err)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("DM_PAGE_SIZE: значение %d вне допустимого диапазона 1-100", cfg.PageSize)
	}

	// DM_RESET_FLOW_TTL — срок жизни состояния сброса пароля (по умолчанию 10m)
	cfg.ResetFlowTTL, err = getEnvDuration("DM_RESET_FLOW_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DM_RESET_FLOW_TTL: %w", err)
	}

	// --- Мониторинг ---

	// DM_DEPHEALTH_GROUP — имя группы topologymetrics (по умолчанию candystore)
	cfg.DephealthGroup = getEnvDefault("DM_DEPHEALTH_GROUP", "candystore")

	// DM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 30s)
	cfg.DephealthCheckInterval, err = getEnvDuration("DM_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// DM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("DM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Точка входа Dashboard Module — backend админ-дашборда Candystore.
// Загружает конфигурацию, создаёт клиент удалённого Catalog API,
// декодер токенов, менеджер сессий и обработчики, запускает
// мониторинг зависимостей (topologymetrics) и HTTP-сервер
// с graceful shutdown. Локального хранилища у сервиса нет —
// все данные живут в Catalog API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/arturkryukov/candystore/dashboard-module/internal/api/handlers"
	"github.com/arturkryukov/candystore/dashboard-module/internal/api/middleware"
	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/config"
	"github.com/arturkryukov/candystore/dashboard-module/internal/server"
	"github.com/arturkryukov/candystore/dashboard-module/internal/service"
	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Dashboard Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("DM_DEPHEALTH_GROUP") == "" {
		logger.Warn("DM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. HTTP-клиент Catalog API (с кастомным CA при необходимости)
	var httpClient *http.Client
	if cfg.APICACertPath != "" {
		httpClient, err = catalog.NewHTTPClientWithCA(cfg.APICACertPath, cfg.APITimeout)
		if err != nil {
			logger.Error("Ошибка загрузки CA-сертификата",
				slog.String("path", cfg.APICACertPath),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Info("CA-сертификат загружен", slog.String("path", cfg.APICACertPath))
	} else {
		httpClient = &http.Client{Timeout: cfg.APITimeout}
	}

	// 4. Клиент Catalog API
	client := catalog.New(cfg.APIBaseURL, cfg.APIHealthPath, httpClient, logger)
	logger.Info("Клиент Catalog API создан", slog.String("base_url", cfg.APIBaseURL))

	// 5. Декодер токенов: с проверкой подписи через JWKS, если задан
	// DM_JWKS_URL, иначе claims читаются без проверки.
	var decoder *session.TokenDecoder
	if cfg.JWKSURL != "" {
		decoder, err = session.NewTokenDecoderWithJWKS(
			cfg.JWKSURL, cfg.JWKSRefreshInterval, cfg.JWTLeeway, httpClient, logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWKS-декодера", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Декодер токенов с JWKS", slog.String("jwks_url", cfg.JWKSURL))
	} else {
		decoder = session.NewTokenDecoder(cfg.JWTLeeway, logger)
		logger.Info("Декодер токенов без проверки подписи (DM_JWKS_URL не задан)")
	}

	// 6. Менеджер сессий
	sessions := session.NewManager(client, decoder, session.NewCookieStore(cfg.SecureCookie), logger)
	hydrator := middleware.NewSessionHydrator(sessions, logger)

	// 7. topologymetrics — мониторинг Catalog API
	ctx := context.Background()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"dashboard-module",
		cfg.DephealthGroup,
		cfg.APIBaseURL,
		cfg.APIHealthPath,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. Обработчики
	handler := handlers.NewHandler(client, sessions, cfg.PageSize, cfg.ResetFlowTTL, logger)
	healthHandler := handlers.NewHealthHandler(client)

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, handler, healthHandler, hydrator)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Graceful shutdown фоновых задач
	if dephealthSvc != nil && dephealthErr == nil {
		dephealthSvc.Stop()
	}

	logger.Info("Dashboard Module остановлен")
}

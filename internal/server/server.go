// Пакет server — HTTP-сервер Dashboard Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/candystore/dashboard-module/internal/api/errors"
	"github.com/arturkryukov/candystore/dashboard-module/internal/api/handlers"
	"github.com/arturkryukov/candystore/dashboard-module/internal/api/middleware"
	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/config"
	"github.com/arturkryukov/candystore/dashboard-module/internal/guard"
	"github.com/arturkryukov/candystore/dashboard-module/internal/listctl"
)

// Server — HTTP-сервер Dashboard Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	handler *handlers.Handler,
	health *handlers.HealthHandler,
	hydrator *middleware.SessionHydrator,
) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health и metrics проверяются Kubernetes напрямую,
	// сессия им не нужна.
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	// Всё остальное идёт с восстановленной сессией.
	router.Group(func(r chi.Router) {
		r.Use(hydrator.Middleware())

		// Endpoint'ы аутентификации. Вход и сброс пароля — под
		// rate limiter'ом: перебор паролей и OTP гасится здесь.
		authLimiter := middleware.NewAuthRateLimiter(cfg.AuthRateLimit)
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())
			r.Post("/auth/sign-in", handler.SignIn)
			r.Post("/auth/forgot-password/send-otp", handler.ForgotPasswordSendOTP)
			r.Post("/auth/forgot-password/verify-otp", handler.ForgotPasswordVerifyOTP)
			r.Post("/auth/forgot-password/reset", handler.ForgotPasswordReset)
		})
		r.Post("/auth/sign-out", handler.SignOut)
		r.Get("/auth/session", handler.Session)
		r.Put("/auth/profile", handler.UpdateProfile)

		// Сводка главной страницы: обработчик сам требует
		// аутентификацию, роль не важна.
		r.Get("/dashboard/summary", handler.DashboardSummary)

		// Разделы дашборда — за guard'ом: роль и capability
		// проверяются до обработчика.
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(middleware.SessionFromRequest, logger))

			handlers.Mount(r, handler, catalog.Admins, listctl.Options{})
			handlers.Mount(r, handler, catalog.Users, listctl.Options{})
			handlers.Mount(r, handler, catalog.Categories, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Sizes, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Flavors, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Products, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Quotations, listctl.Options{})
			handlers.Mount(r, handler, catalog.Jobs, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Files, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Galleries, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Videos, listctl.Options{ResetPageOnCreate: true})
			handlers.Mount(r, handler, catalog.Contacts, listctl.Options{})
		})

		// Незнакомый путь: аутентифицированных возвращаем на корень,
		// остальных — на вход.
		r.NotFound(notFoundHandler)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// notFoundHandler повторяет поведение guard для незарегистрированных
// путей вне защищённой группы.
func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		apierrors.NotFound(w, "маршрут не найден")
		return
	}
	if middleware.SessionFromRequest(r).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}

// handler.go — корневой обработчик Dashboard Module.
// Объединяет доменные обработчики: аутентификация, ресурсы дашборда,
// сводка, health. Все данные живут в удалённом Catalog API —
// обработчики транслируют запросы SPA в вызовы типизированного клиента.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

// Handler — корневой обработчик.
type Handler struct {
	client    *catalog.Client
	sessions  *session.Manager
	resetFlow *resetFlowStore
	pageSize  int
	logger    *slog.Logger
}

// NewHandler создаёт корневой обработчик.
// pageSize — размер страницы списков по умолчанию,
// resetTTL — срок жизни состояния сброса пароля.
func NewHandler(client *catalog.Client, sessions *session.Manager, pageSize int, resetTTL time.Duration, logger *slog.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Handler{
		client:    client,
		sessions:  sessions,
		resetFlow: newResetFlowStore(resetTTL),
		pageSize:  pageSize,
		logger:    logger.With(slog.String("component", "handlers")),
	}
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

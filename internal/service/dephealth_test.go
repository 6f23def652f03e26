package service

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewDephealthService — конструктор с изолированным registerer.
func TestNewDephealthService(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	ds, err := NewDephealthServiceWithRegisterer(
		"dashboard-module",
		"test-group",
		"http://catalog-api.example.com:3000",
		"/api/health",
		30*time.Second,
		logger,
		prometheus.NewRegistry(),
	)
	if err != nil {
		t.Fatalf("NewDephealthServiceWithRegisterer: %v", err)
	}
	if ds == nil {
		t.Fatal("сервис не создан")
	}
}

// TestNewDephealthService_BadURL — некорректный URL зависимости
// отклоняется на этапе конструирования.
func TestNewDephealthService_BadURL(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	_, err := NewDephealthServiceWithRegisterer(
		"dashboard-module",
		"test-group",
		"://не-url",
		"/health",
		30*time.Second,
		logger,
		prometheus.NewRegistry(),
	)
	if err == nil {
		t.Fatal("ожидалась ошибка для некорректного URL")
	}
}

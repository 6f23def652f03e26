// Пакет toast — транзитные уведомления пользователя.
// Center накапливает уведомления в рамках одного запроса; обработчик
// отдаёт их SPA в теле ответа через Drain. Уведомления не блокируют
// поток выполнения и не переживают запрос.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level — тип уведомления.
type Level string

const (
	// LevelSuccess — операция завершилась успешно.
	LevelSuccess Level = "success"
	// LevelError — операция завершилась ошибкой.
	LevelError Level = "error"
)

// Toast — одно уведомление.
type Toast struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier — приёмник уведомлений. Контроллеры списков зависят
// от интерфейса, а не от конкретного Center.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Center — накопитель уведомлений одного запроса.
// Безопасен для конкурентного использования.
type Center struct {
	mu     sync.Mutex
	toasts []Toast
}

// NewCenter создаёт пустой накопитель.
func NewCenter() *Center {
	return &Center{}
}

// Success добавляет уведомление об успехе.
func (c *Center) Success(message string) {
	c.add(LevelSuccess, message)
}

// Error добавляет уведомление об ошибке.
func (c *Center) Error(message string) {
	c.add(LevelError, message)
}

func (c *Center) add(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, Toast{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      time.Now(),
	})
}

// Drain возвращает накопленные уведомления и очищает накопитель.
// Возвращаемый срез никогда не nil — сериализуется в [] вместо null.
func (c *Center) Drain() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.toasts
	c.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

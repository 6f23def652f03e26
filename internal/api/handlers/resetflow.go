// resetflow.go — серверное состояние трёхшагового сброса пароля.
// Шаги идут строго по порядку: отправка OTP → проверка OTP → новый
// пароль. Неверный код оставляет состояние на месте; успешный сброс
// и истечение срока состояние удаляют.
package handlers

import (
	"strings"
	"sync"
	"time"
)

// resetStep — достигнутый шаг сброса пароля.
type resetStep int

const (
	// stepOTPSent — код отправлен, ожидается проверка.
	stepOTPSent resetStep = iota
	// stepOTPVerified — код подтверждён, ожидается новый пароль.
	stepOTPVerified
)

// resetFlowEntry — состояние сброса одного email.
type resetFlowEntry struct {
	step      resetStep
	expiresAt time.Time
}

// resetFlowStore — in-memory состояние сброса пароля по email.
// Срок жизни ограничен: брошенный на полпути сброс не висит вечно.
type resetFlowStore struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]*resetFlowEntry
}

func newResetFlowStore(ttl time.Duration) *resetFlowStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &resetFlowStore{
		ttl:     ttl,
		entries: map[string]*resetFlowEntry{},
	}
}

// normalizeEmail — ключ состояния, без регистра и пробелов.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// start фиксирует отправку OTP: состояние переходит на шаг проверки
// кода. Повторная отправка перезапускает срок жизни.
func (s *resetFlowStore) start(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()
	s.entries[normalizeEmail(email)] = &resetFlowEntry{
		step:      stepOTPSent,
		expiresAt: time.Now().Add(s.ttl),
	}
}

// step возвращает текущий шаг сброса. ok=false — сброс не начинался
// или истёк.
func (s *resetFlowStore) step(email string) (resetStep, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[normalizeEmail(email)]
	if !ok || time.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.step, true
}

// advance переводит состояние на шаг нового пароля после успешной
// проверки кода.
func (s *resetFlowStore) advance(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[normalizeEmail(email)]; ok {
		entry.step = stepOTPVerified
	}
}

// finish удаляет состояние после успешного сброса.
func (s *resetFlowStore) finish(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalizeEmail(email))
}

// gcLocked выбрасывает истёкшие записи. Вызывается под мьютексом.
func (s *resetFlowStore) gcLocked() {
	now := time.Now()
	for email, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, email)
		}
	}
}

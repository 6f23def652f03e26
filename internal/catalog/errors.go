// errors.go — ошибки удалённого Catalog API.
// Сервер при неудаче отвечает HTTP-статусом с телом {message} или
// {errors: [...]}; оба варианта сводятся к *APIError.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError — ошибка, возвращённая удалённым Catalog API.
type APIError struct {
	// Status — HTTP статус-код ответа.
	Status int
	// Message — человекочитаемое сообщение сервера (может быть пустым).
	Message string
	// Errors — список ошибок из поля errors (валидация на стороне сервера).
	Errors []string
}

// Error реализует error. Предпочитает message, затем склейку errors,
// затем generic-описание со статусом.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("Catalog API вернул статус %d", e.Status)
}

// errorEnvelope — варианты тела ошибки Catalog API.
type errorEnvelope struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// newAPIError строит APIError из ответа с неуспешным статусом.
// Тело читается целиком; если это не JSON — используется как текст.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var env errorEnvelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr == nil {
		apiErr.Message = env.Message
		apiErr.Errors = env.Errors
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// resources.go — обобщённые endpoint'ы разделов дашборда.
// Один набор обработчиков list/create/update/delete/toggle
// инстанцируется на каждый ресурс через дескриптор — вместо
// пятнадцати копий одинакового кода.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/candystore/dashboard-module/internal/api/errors"
	"github.com/arturkryukov/candystore/dashboard-module/internal/api/middleware"
	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/listctl"
	"github.com/arturkryukov/candystore/dashboard-module/internal/toast"
)

// maxMultipartMemory — лимит памяти разбора multipart-форм (32 МБ).
const maxMultipartMemory = 32 << 20

// listResponse — ответ спискового endpoint'а.
type listResponse[T any] struct {
	Items      []T           `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	Search     string        `json:"search"`
	Toasts     []toast.Toast `json:"toasts"`
}

// mutationResponse — ответ мутирующего endpoint'а: свежий список
// плюс накопленные уведомления.
type mutationResponse[T any] struct {
	Items      []T           `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Toasts     []toast.Toast `json:"toasts"`
}

// resourceEndpoints — обработчики одного ресурса.
type resourceEndpoints[T any] struct {
	h        *Handler
	resource catalog.Resource[T]
	opts     listctl.Options
}

// Mount регистрирует endpoint'ы ресурса на его разделе дашборда.
func Mount[T any](r chi.Router, h *Handler, resource catalog.Resource[T], opts listctl.Options) {
	if opts.PageSize <= 0 {
		opts.PageSize = h.pageSize
	}
	e := &resourceEndpoints[T]{h: h, resource: resource, opts: opts}

	r.Route("/"+resource.Name, func(r chi.Router) {
		r.Get("/", e.list)
		r.Post("/", e.create)
		r.Put("/{id}", e.update)
		r.Delete("/{id}", e.remove)
		r.Post("/{id}/toggle", e.toggle)
	})
}

// controller собирает контроллер списка на текущий запрос:
// страница и поиск берутся из query, токен сессии кладётся в контекст.
func (e *resourceEndpoints[T]) controller(r *http.Request) (*listctl.Controller[T], *toast.Center, *http.Request) {
	notifier := toast.NewCenter()
	ctrl := listctl.New(e.resource, e.h.client, notifier, e.opts, e.h.logger)

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}
	ctrl.Seek(page, r.URL.Query().Get("search"))

	sess := middleware.SessionFromRequest(r)
	ctx := catalog.ContextWithToken(r.Context(), sess.Token)
	return ctrl, notifier, r.WithContext(ctx)
}

// list — GET /<ресурс>?page=&search=.
func (e *resourceEndpoints[T]) list(w http.ResponseWriter, r *http.Request) {
	ctrl, notifier, r := e.controller(r)

	_ = ctrl.Fetch(r.Context())

	snap := ctrl.Snapshot()
	status := http.StatusOK
	if snap.State == listctl.StateError {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, listResponse[T]{
		Items:      snap.Items,
		Page:       snap.Page,
		PageSize:   snap.PageSize,
		TotalPages: snap.TotalPages,
		Search:     snap.Search,
		Toasts:     notifier.Drain(),
	})
}

// create — POST /<ресурс>. Тело — JSON или multipart с файлами.
func (e *resourceEndpoints[T]) create(w http.ResponseWriter, r *http.Request) {
	e.mutate(w, r, func(ctrl *listctl.Controller[T], r *http.Request) error {
		payload, err := decodePayload(r)
		if err != nil {
			return err
		}
		return ctrl.Create(r.Context(), payload)
	})
}

// update — PUT /<ресурс>/{id}.
func (e *resourceEndpoints[T]) update(w http.ResponseWriter, r *http.Request) {
	e.mutate(w, r, func(ctrl *listctl.Controller[T], r *http.Request) error {
		payload, err := decodePayload(r)
		if err != nil {
			return err
		}
		return ctrl.Update(r.Context(), chi.URLParam(r, "id"), payload)
	})
}

// remove — DELETE /<ресурс>/{id}.
func (e *resourceEndpoints[T]) remove(w http.ResponseWriter, r *http.Request) {
	e.mutate(w, r, func(ctrl *listctl.Controller[T], r *http.Request) error {
		return ctrl.Remove(r.Context(), chi.URLParam(r, "id"))
	})
}

// toggle — POST /<ресурс>/{id}/toggle.
func (e *resourceEndpoints[T]) toggle(w http.ResponseWriter, r *http.Request) {
	e.mutate(w, r, func(ctrl *listctl.Controller[T], r *http.Request) error {
		return ctrl.Toggle(r.Context(), chi.URLParam(r, "id"))
	})
}

// mutate — общий каркас мутирующих endpoint'ов.
// Успех возвращает перезагруженный список и уведомления;
// ошибка удалённого API — его статус и сообщение.
func (e *resourceEndpoints[T]) mutate(w http.ResponseWriter, r *http.Request, op func(*listctl.Controller[T], *http.Request) error) {
	ctrl, notifier, r := e.controller(r)

	if err := op(ctrl, r); err != nil {
		var badPayload *payloadError
		switch {
		case errors.As(err, &badPayload):
			apierrors.ValidationError(w, badPayload.Error())
		case errors.Is(err, listctl.ErrBusy):
			apierrors.Conflict(w, "операция уже выполняется")
		default:
			e.h.writeCatalogError(w, "Мутация ресурса "+e.resource.Name+" не удалась", err)
		}
		return
	}

	snap := ctrl.Snapshot()
	writeJSON(w, http.StatusOK, mutationResponse[T]{
		Items:      snap.Items,
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		Toasts:     notifier.Drain(),
	})
}

// payloadError — некорректное тело мутации; до удалённого API не доходит.
type payloadError struct {
	message string
}

func (e *payloadError) Error() string {
	return e.message
}

// decodePayload разбирает тело мутации. Multipart-формы (файлы)
// пробрасываются на удалённый API форм-кодированием, JSON — как есть.
func decodePayload(r *http.Request) (any, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, &payloadError{message: "некорректная multipart-форма"}
		}

		form := &catalog.Form{Fields: r.MultipartForm.Value}
		for field, headers := range r.MultipartForm.File {
			for _, header := range headers {
				file, err := header.Open()
				if err != nil {
					return nil, &payloadError{message: "не удалось прочитать файл " + header.Filename}
				}
				content, err := io.ReadAll(file)
				_ = file.Close()
				if err != nil {
					return nil, &payloadError{message: "не удалось прочитать файл " + header.Filename}
				}
				form.Files = append(form.Files, catalog.FileField{
					Field:       field,
					Filename:    header.Filename,
					ContentType: header.Header.Get("Content-Type"),
					Content:     content,
				})
			}
		}
		return form, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &payloadError{message: "не удалось прочитать тело запроса"}
	}
	if len(body) == 0 {
		return nil, &payloadError{message: "пустое тело запроса"}
	}
	if !json.Valid(body) {
		return nil, &payloadError{message: "тело запроса не является корректным JSON"}
	}
	return json.RawMessage(body), nil
}

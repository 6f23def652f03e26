// resources.go — обобщённое описание CRUD-ресурса Catalog API.
// Один дескриптор Resource[T] на ресурс вместо ~15 дублей одного и того же
// паттерна fetch/paginate/mutate. Конверты списковых ответов у API
// неоднородны (органический дрейф: часть ресурсов кладёт коллекцию и
// пагинацию внутрь data), поэтому каждый дескриптор выбирает свой адаптер.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// ListPage — нормализованная страница спискового ответа.
type ListPage[T any] struct {
	// Items — записи страницы; никогда не nil.
	Items []T
	// TotalPages — количество страниц по данным сервера (минимум 1).
	TotalPages int
}

// FileField — бинарное поле multipart-формы.
type FileField struct {
	// Field — имя поля формы.
	Field string
	// Filename — имя файла.
	Filename string
	// ContentType — MIME-тип содержимого.
	ContentType string
	// Content — содержимое файла.
	Content []byte
}

// Form — multipart-нагрузка мутации. Payload с бинарными полями
// отправляется multipart-кодированием, всё остальное — JSON.
type Form struct {
	Fields url.Values
	Files  []FileField
}

// encode сериализует форму в multipart-тело.
func (f *Form) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for field, values := range f.Fields {
		for _, v := range values {
			if err := mw.WriteField(field, v); err != nil {
				return nil, "", fmt.Errorf("запись поля %s: %w", field, err)
			}
		}
	}

	for _, file := range f.Files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		} else {
			header.Set("Content-Type", "application/octet-stream")
		}

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("создание файлового поля %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("запись файла %s: %w", file.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("завершение multipart: %w", err)
	}

	return body, mw.FormDataContentType(), nil
}

// Resource — дескриптор CRUD-ресурса Catalog API.
// Name задаёт сегмент пути коллекции (/products, /sizes, ...).
type Resource[T any] struct {
	// Name — сегмент пути ресурса на удалённом API.
	Name string
	// Collection — ключ коллекции во вложенном конверте ответа.
	// Пустая строка — плоский конверт {data: [...], pagination: {...}}.
	Collection string
	// TogglePath — суффикс toggle endpoint (пустая строка — ресурс без toggle).
	TogglePath string
	// ToggleMethod — HTTP-метод toggle (по умолчанию PUT).
	ToggleMethod string
}

// basePath возвращает путь коллекции.
func (r Resource[T]) basePath() string {
	return "/" + r.Name
}

// itemPath возвращает путь записи.
func (r Resource[T]) itemPath(id string) string {
	return "/" + r.Name + "/" + url.PathEscape(id)
}

// pagination — блок пагинации спискового ответа.
type pagination struct {
	TotalPages int `json:"totalPages"`
}

// flatEnvelope — плоский конверт: {data: [...], pagination: {...}}.
type flatEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination"`
}

// nestedEnvelope — вложенный конверт: {data: {<collection>: [...], pagination: {...}}}.
type nestedEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

// List запрашивает страницу коллекции с параметрами page/limit/search
// и нормализует конверт ответа.
func (r Resource[T]) List(ctx context.Context, c *Client, params ListParams) (*ListPage[T], error) {
	resp, err := c.doJSON(ctx, http.MethodGet, r.basePath(), params.query(), nil)
	if err != nil {
		return nil, fmt.Errorf("список %s: %w", r.Name, err)
	}

	var rawItems json.RawMessage
	var pg *pagination

	if r.Collection == "" {
		var env flatEnvelope
		if err := decodeResponse(resp, &env); err != nil {
			return nil, fmt.Errorf("список %s: %w", r.Name, err)
		}
		rawItems = env.Data
		pg = env.Pagination
	} else {
		var env nestedEnvelope
		if err := decodeResponse(resp, &env); err != nil {
			return nil, fmt.Errorf("список %s: %w", r.Name, err)
		}
		rawItems = env.Data[r.Collection]
		if rawPg, ok := env.Data["pagination"]; ok {
			pg = &pagination{}
			if err := json.Unmarshal(rawPg, pg); err != nil {
				return nil, fmt.Errorf("пагинация %s: %w", r.Name, err)
			}
		}
	}

	page := &ListPage[T]{Items: []T{}, TotalPages: 1}
	if len(rawItems) > 0 {
		if err := json.Unmarshal(rawItems, &page.Items); err != nil {
			return nil, fmt.Errorf("записи %s: %w", r.Name, err)
		}
		if page.Items == nil {
			page.Items = []T{}
		}
	}
	if pg != nil && pg.TotalPages > 0 {
		page.TotalPages = pg.TotalPages
	}

	return page, nil
}

// Create создаёт запись. payload типа *Form отправляется multipart,
// любой другой — JSON.
func (r Resource[T]) Create(ctx context.Context, c *Client, payload any) (*MutationResult, error) {
	return r.mutate(ctx, c, http.MethodPost, r.basePath(), payload)
}

// Update обновляет запись по id.
func (r Resource[T]) Update(ctx context.Context, c *Client, id string, payload any) (*MutationResult, error) {
	return r.mutate(ctx, c, http.MethodPut, r.itemPath(id), payload)
}

// Delete удаляет запись по id.
func (r Resource[T]) Delete(ctx context.Context, c *Client, id string) (*MutationResult, error) {
	return r.mutate(ctx, c, http.MethodDelete, r.itemPath(id), nil)
}

// Toggle переключает статус записи через toggle endpoint ресурса.
func (r Resource[T]) Toggle(ctx context.Context, c *Client, id string) (*MutationResult, error) {
	if r.TogglePath == "" {
		return nil, fmt.Errorf("ресурс %s не поддерживает переключение статуса", r.Name)
	}

	method := r.ToggleMethod
	if method == "" {
		method = http.MethodPut
	}

	return r.mutate(ctx, c, method, r.itemPath(id)+"/"+r.TogglePath, nil)
}

// mutate выполняет мутацию и декодирует ответ {message, data?}.
func (r Resource[T]) mutate(ctx context.Context, c *Client, method, path string, payload any) (*MutationResult, error) {
	var resp *http.Response
	var err error

	if form, ok := payload.(*Form); ok && form != nil {
		body, contentType, encErr := form.encode()
		if encErr != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, encErr)
		}
		resp, err = c.do(ctx, method, path, nil, body, contentType)
	} else {
		resp, err = c.doJSON(ctx, method, path, nil, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var result MutationResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DashboardSummaryFetch запрашивает сводные счётчики главной страницы.
func (c *Client) DashboardSummaryFetch(ctx context.Context) (*DashboardSummary, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/dashboard/summary", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("сводка дашборда: %w", err)
	}

	var env struct {
		Data DashboardSummary `json:"data"`
	}
	if err := decodeResponse(resp, &env); err != nil {
		return nil, fmt.Errorf("сводка дашборда: %w", err)
	}

	return &env.Data, nil
}

// --- Дескрипторы ресурсов ---

// Quotations и Contacts исторически используют вложенный конверт —
// различие зафиксировано в адаптерах, а не размазано по обработчикам.
var (
	Admins     = Resource[Admin]{Name: "admins", TogglePath: "toggle-status"}
	Users      = Resource[User]{Name: "users", TogglePath: "toggle-status"}
	Categories = Resource[Category]{Name: "categories", TogglePath: "toggle-status"}
	Sizes      = Resource[Size]{Name: "sizes", TogglePath: "toggle-status"}
	Flavors    = Resource[Flavor]{Name: "flavors", TogglePath: "toggle-status"}
	Products   = Resource[Product]{Name: "products", TogglePath: "toggle-status"}
	Quotations = Resource[Quotation]{Name: "quotations", Collection: "quotations", TogglePath: "status", ToggleMethod: http.MethodPatch}
	Jobs       = Resource[Job]{Name: "jobs", TogglePath: "toggle-status"}
	Files      = Resource[FileAsset]{Name: "files"}
	Galleries  = Resource[Gallery]{Name: "galleries", TogglePath: "toggle-status"}
	Videos     = Resource[Video]{Name: "videos", TogglePath: "toggle-status"}
	Contacts   = Resource[ContactMessage]{Name: "contact-us", Collection: "contacts"}
)

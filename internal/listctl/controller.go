// Пакет listctl — обобщённый контроллер списка ресурса.
// Один параметризованный контроллер вместо пятнадцати копий логики
// fetch/пагинация/поиск/мутации: инстанцируется на ресурс через
// дескриптор catalog.Resource. Снимок состояния отдаётся целиком
// под мьютексом — наполовину обновлённого списка не бывает.
package listctl

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/toast"
)

// ErrBusy — мутация уже выполняется; повторный вызов отклонён,
// дубликат запроса к API не уходит.
var ErrBusy = errors.New("операция уже выполняется")

// fetchFailedMessage — текст уведомления при ошибке загрузки списка.
const fetchFailedMessage = "Не удалось загрузить данные"

// State — состояние контроллера.
type State string

const (
	// StateIdle — загрузка ещё не запускалась.
	StateIdle State = "idle"
	// StateLoading — запрос списка в полёте.
	StateLoading State = "loading"
	// StateReady — список загружен.
	StateReady State = "ready"
	// StateError — последняя загрузка не удалась; показываются
	// прежние данные (stale-but-visible).
	StateError State = "error"
)

// Snapshot — атомарный снимок состояния контроллера.
type Snapshot[T any] struct {
	State      State
	Items      []T
	Page       int
	PageSize   int
	TotalPages int
	Search     string
	SelectedID string
}

// Options — параметры поведения контроллера.
type Options struct {
	// PageSize — размер страницы (limit запроса списка).
	PageSize int
	// ResetPageOnCreate — после успешного создания вернуться
	// на первую страницу (новая запись обычно появляется там).
	ResetPageOnCreate bool
}

// Controller — контроллер списка одного ресурса.
// Безопасен для конкурентного использования.
type Controller[T any] struct {
	resource catalog.Resource[T]
	client   *catalog.Client
	notifier toast.Notifier
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	items      []T
	page       int
	pageSize   int
	totalPages int
	search     string
	selectedID string

	// fetchSeq — монотонный номер загрузки; ответ с номером меньше
	// текущего отбрасывается (пришёл позже более нового запроса).
	fetchSeq uint64
	// submitting — мутация в полёте; вторая параллельная отклоняется.
	submitting bool

	resetPageOnCreate bool
}

// New создаёт контроллер списка ресурса.
func New[T any](resource catalog.Resource[T], client *catalog.Client, notifier toast.Notifier, opts Options, logger *slog.Logger) *Controller[T] {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Controller[T]{
		resource:          resource,
		client:            client,
		notifier:          notifier,
		logger:            logger.With(slog.String("component", "listctl"), slog.String("resource", resource.Name)),
		state:             StateIdle,
		items:             []T{},
		page:              1,
		pageSize:          pageSize,
		totalPages:        1,
		resetPageOnCreate: opts.ResetPageOnCreate,
	}
}

// Snapshot возвращает атомарный снимок состояния.
// Items — копия: читатель не видит последующих обновлений.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		State:      c.state,
		Items:      items,
		Page:       c.page,
		PageSize:   c.pageSize,
		TotalPages: c.totalPages,
		Search:     c.search,
		SelectedID: c.selectedID,
	}
}

// Fetch загружает текущую страницу с текущим поиском.
// Успех замещает items и totalPages; ошибка оставляет прежние данные
// на месте и добавляет уведомление об ошибке. Ответ, который обогнал
// более новый запрос, отбрасывается молча.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.state = StateLoading
	params := catalog.ListParams{Page: c.page, Limit: c.pageSize, Search: c.search}
	c.mu.Unlock()

	page, err := c.resource.List(ctx, c.client, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.fetchSeq {
		// Пока запрос летел, запустили более новый. Его результат
		// главнее независимо от порядка прихода ответов.
		return nil
	}

	if err != nil {
		c.state = StateError
		c.logger.Warn("Загрузка списка не удалась",
			slog.Int("page", params.Page),
			slog.String("search", params.Search),
			slog.String("error", err.Error()),
		)
		c.notifier.Error(fetchFailedMessage)
		return err
	}

	c.state = StateReady
	c.items = page.Items
	c.totalPages = page.TotalPages
	return nil
}

// Seek устанавливает страницу и поиск без перезагрузки.
// Используется для контроллера, собираемого на один запрос:
// параметры выставляются до единственного Fetch.
func (c *Controller[T]) Seek(page int, search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	c.page = page
	c.search = search
}

// SetPage переходит на страницу и перезагружает список.
// Границу сверху знает только сервер: номер за пределами диапазона
// вернёт пустую страницу, а не ошибку.
func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	c.mu.Lock()
	if page < 1 {
		page = 1
	}
	c.page = page
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// SetSearch меняет строку поиска, сбрасывает страницу на первую
// и перезагружает список.
func (c *Controller[T]) SetSearch(ctx context.Context, search string) error {
	c.mu.Lock()
	c.search = search
	c.page = 1
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// Select отмечает выбранную запись (строку таблицы).
func (c *Controller[T]) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = id
}

// Create создаёт запись. Успех — уведомление с сообщением сервера
// и перезагрузка; ошибка возвращается вызывающей стороне (форма
// остаётся открытой для повтора) и дублируется уведомлением.
func (c *Controller[T]) Create(ctx context.Context, payload any) error {
	return c.mutate(ctx, "Запись создана", c.resetPageOnCreate, func(ctx context.Context) (*catalog.MutationResult, error) {
		return c.resource.Create(ctx, c.client, payload)
	})
}

// Update обновляет запись по id.
func (c *Controller[T]) Update(ctx context.Context, id string, payload any) error {
	return c.mutate(ctx, "Запись обновлена", false, func(ctx context.Context) (*catalog.MutationResult, error) {
		return c.resource.Update(ctx, c.client, id, payload)
	})
}

// Remove удаляет запись по id.
func (c *Controller[T]) Remove(ctx context.Context, id string) error {
	return c.mutate(ctx, "Запись удалена", false, func(ctx context.Context) (*catalog.MutationResult, error) {
		return c.resource.Delete(ctx, c.client, id)
	})
}

// Toggle переключает статус записи по id.
func (c *Controller[T]) Toggle(ctx context.Context, id string) error {
	return c.mutate(ctx, "Статус обновлён", false, func(ctx context.Context) (*catalog.MutationResult, error) {
		return c.resource.Toggle(ctx, c.client, id)
	})
}

// mutate — общий каркас мутаций: submit-guard, уведомление
// с сообщением сервера (или запасным fallback), перезагрузка списка
// с текущими page/search. Ошибка мутации список не трогает.
func (c *Controller[T]) mutate(ctx context.Context, fallback string, resetPage bool, op func(context.Context) (*catalog.MutationResult, error)) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	result, err := op(ctx)
	if err != nil {
		c.notifier.Error(mutationErrorMessage(err))
		return err
	}

	message := fallback
	if result.Message != "" {
		message = result.Message
	}
	c.notifier.Success(message)

	if resetPage {
		c.mu.Lock()
		c.page = 1
		c.mu.Unlock()
	}

	// Мутация удалась; ошибка перезагрузки уже показана уведомлением
	// и не отменяет успех операции.
	_ = c.Fetch(ctx)
	return nil
}

// mutationErrorMessage — текст уведомления об ошибке мутации:
// сообщение сервера, если оно есть, иначе общий текст.
func mutationErrorMessage(err error) string {
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Операция не выполнена"
}

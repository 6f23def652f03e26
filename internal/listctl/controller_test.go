package listctl

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/toast"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// recordingNotifier запоминает уведомления для проверок.
type recordingNotifier struct {
	mu     sync.Mutex
	toasts []toast.Toast
}

func (n *recordingNotifier) Success(message string) { n.add(toast.LevelSuccess, message) }
func (n *recordingNotifier) Error(message string)   { n.add(toast.LevelError, message) }

func (n *recordingNotifier) add(level toast.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast.Toast{Level: level, Message: message})
}

func (n *recordingNotifier) all() []toast.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]toast.Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

func newTestController(t *testing.T, srv *httptest.Server, notifier toast.Notifier, opts Options) *Controller[catalog.Product] {
	t.Helper()
	client := catalog.New(srv.URL, "", srv.Client(), testLogger())
	return New(catalog.Products, client, notifier, opts, testLogger())
}

// TestFetch_Success — успешная загрузка замещает items и totalPages.
func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("путь %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","name":"Торт"},{"_id":"p2","name":"Капкейк"}],"pagination":{"totalPages":3}}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv, &recordingNotifier{}, Options{})
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	snap := c.Snapshot()
	if snap.State != StateReady {
		t.Errorf("State = %q", snap.State)
	}
	if len(snap.Items) != 2 || snap.Items[0].ID != "p1" {
		t.Errorf("Items = %+v", snap.Items)
	}
	if snap.TotalPages != 3 {
		t.Errorf("TotalPages = %d", snap.TotalPages)
	}
}

// TestFetch_FailureKeepsPriorData — ошибка загрузки оставляет прежние
// items и totalPages на месте и показывает уведомление об ошибке.
func TestFetch_FailureKeepsPriorData(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","name":"Торт"}],"pagination":{"totalPages":5}}`))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := newTestController(t, srv, notifier, Options{})

	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("первая загрузка: %v", err)
	}

	fail = true
	if err := c.Fetch(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка загрузки")
	}

	snap := c.Snapshot()
	if snap.State != StateError {
		t.Errorf("State = %q", snap.State)
	}
	if len(snap.Items) != 1 || snap.Items[0].ID != "p1" {
		t.Errorf("items изменились при ошибке: %+v", snap.Items)
	}
	if snap.TotalPages != 5 {
		t.Errorf("totalPages изменился при ошибке: %d", snap.TotalPages)
	}

	toasts := notifier.all()
	if len(toasts) != 1 || toasts[0].Message != "Не удалось загрузить данные" {
		t.Errorf("уведомления = %+v", toasts)
	}
}

// TestFetch_StaleResponseDiscarded — ответ первого запроса, пришедший
// после запуска второго, отбрасывается: состояние определяет
// последний выданный запрос, а не порядок прихода ответов.
func TestFetch_StaleResponseDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-release
			_, _ = w.Write([]byte(`{"data":[{"_id":"stale","name":"Старый"}],"pagination":{"totalPages":9}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"_id":"fresh","name":"Новый"}],"pagination":{"totalPages":2}}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv, &recordingNotifier{}, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Fetch(context.Background())
	}()

	<-firstStarted
	// Второй запрос выдан и завершён, пока первый ещё висит.
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("вторая загрузка: %v", err)
	}

	close(release)
	wg.Wait()

	snap := c.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "fresh" {
		t.Errorf("устаревший ответ перезаписал свежий: %+v", snap.Items)
	}
	if snap.TotalPages != 2 {
		t.Errorf("TotalPages = %d, хотели 2", snap.TotalPages)
	}
}

// TestSetSearch_ResetsPage — смена поиска сбрасывает страницу на первую.
func TestSetSearch_ResetsPage(t *testing.T) {
	var lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[],"pagination":{"totalPages":4}}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv, &recordingNotifier{}, Options{PageSize: 10})
	ctx := context.Background()

	_ = c.Fetch(ctx)
	_ = c.SetPage(ctx, 3)
	if c.Snapshot().Page != 3 {
		t.Fatalf("Page = %d", c.Snapshot().Page)
	}

	_ = c.SetSearch(ctx, "торт")
	snap := c.Snapshot()
	if snap.Page != 1 {
		t.Errorf("поиск не сбросил страницу: Page = %d", snap.Page)
	}
	if snap.Search != "торт" {
		t.Errorf("Search = %q", snap.Search)
	}
	if lastQuery != "limit=10&page=1&search=%D1%82%D0%BE%D1%80%D1%82" {
		t.Errorf("query = %q", lastQuery)
	}
}

// TestToggle_SuccessToastAndRefetch — успешный toggle показывает
// уведомление с сообщением сервера и перезагружает список
// с текущими page/search.
func TestToggle_SuccessToastAndRefetch(t *testing.T) {
	type call struct{ method, path, query string }
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery})
		if r.Method == http.MethodPut {
			_, _ = w.Write([]byte(`{"message":"Статус записи обновлён"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[],"pagination":{"totalPages":4}}`))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := newTestController(t, srv, notifier, Options{PageSize: 10})
	ctx := context.Background()

	_ = c.Fetch(ctx)
	_ = c.SetPage(ctx, 2)
	calls = nil

	if err := c.Toggle(ctx, "p1"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	toasts := notifier.all()
	if len(toasts) != 1 || toasts[0].Message != "Статус записи обновлён" || toasts[0].Level != toast.LevelSuccess {
		t.Errorf("уведомления = %+v", toasts)
	}

	if len(calls) != 2 {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].method != http.MethodPut || calls[0].path != "/products/p1/toggle-status" {
		t.Errorf("toggle-запрос: %+v", calls[0])
	}
	if calls[1].path != "/products" || calls[1].query != "limit=10&page=2" {
		t.Errorf("перезагрузка не с текущими параметрами: %+v", calls[1])
	}
}

// TestMutate_FallbackMessage — пустое сообщение сервера заменяется
// общим текстом.
func TestMutate_FallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := newTestController(t, srv, notifier, Options{})

	if err := c.Remove(context.Background(), "p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	toasts := notifier.all()
	if len(toasts) != 1 || toasts[0].Message != "Запись удалена" {
		t.Errorf("уведомления = %+v", toasts)
	}
}

// TestMutate_Busy — вторая мутация при ещё не завершённой первой
// отклоняется с ErrBusy, запрос к API не уходит.
func TestMutate_Busy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			close(started)
			<-release
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv, &recordingNotifier{}, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Remove(ctx, "p1")
	}()

	<-started
	err := c.Remove(ctx, "p2")
	close(release)
	wg.Wait()

	if err != ErrBusy {
		t.Errorf("err = %v, хотели ErrBusy", err)
	}
}

// TestMutate_FailureKeepsList — ошибка мутации не трогает список
// и показывает сообщение сервера.
func TestMutate_FailureKeepsList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Продукт с таким именем уже существует"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","name":"Торт"}],"pagination":{"totalPages":1}}`))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := newTestController(t, srv, notifier, Options{})
	ctx := context.Background()

	_ = c.Fetch(ctx)

	err := c.Create(ctx, map[string]string{"name": "Торт"})
	if err == nil {
		t.Fatal("ожидалась ошибка создания")
	}

	snap := c.Snapshot()
	if len(snap.Items) != 1 {
		t.Errorf("список изменился при ошибке мутации: %+v", snap.Items)
	}

	toasts := notifier.all()
	if len(toasts) != 1 || toasts[0].Message != "Продукт с таким именем уже существует" {
		t.Errorf("уведомления = %+v", toasts)
	}
}

// models.go — data-transfer записи ресурсов Catalog API.
// Записи описывают только форму данных на проводе; бизнес-семантика
// каталога принадлежит удалённому серверу.
package catalog

import "encoding/json"

// MutationResult — ответ сервера на мутацию ({message, data?}).
type MutationResult struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ProfileRecord — профиль аутентифицированного субъекта
// (ответ GET /admin/me и GET /superadmin/:id).
type ProfileRecord struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Image       string   `json:"image"`
	Role        string   `json:"role"`
	IsActive    *bool    `json:"isActive"`
	Permissions []string `json:"permissions"`
}

// LoginResponse — ответ POST /superadmin/login и POST /admin/login.
// Raw сохраняет тело целиком: вызывающая сторона (форма входа)
// использует его для немедленного redirect.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	Raw     json.RawMessage `json:"-"`
}

// Admin — запись администратора.
type Admin struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Image       string   `json:"image"`
	IsActive    bool     `json:"isActive"`
	Permissions []string `json:"permissions"`
}

// User — запись пользователя каталога.
type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"isActive"`
}

// Category — категория продуктов.
type Category struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	IsActive bool   `json:"isActive"`
}

// Size — размер продукта.
type Size struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Flavor — вкус продукта.
type Flavor struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	IsActive bool   `json:"isActive"`
}

// Product — продукт каталога.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Sizes       []string `json:"sizes"`
	Flavors     []string `json:"flavors"`
	Images      []string `json:"images"`
	IsActive    bool     `json:"isActive"`
}

// Quotation — заявка на расчёт стоимости.
type Quotation struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Job — вакансия.
type Job struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	IsActive    bool   `json:"isActive"`
}

// FileAsset — файл из файлового раздела.
type FileAsset struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	MimeType  string `json:"mimeType"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"createdAt"`
}

// Gallery — альбом галереи.
type Gallery struct {
	ID       string   `json:"_id"`
	Title    string   `json:"title"`
	Images   []string `json:"images"`
	IsActive bool     `json:"isActive"`
}

// Video — видео-запись.
type Video struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	IsActive bool   `json:"isActive"`
}

// ContactMessage — сообщение со страницы «Связаться с нами».
type ContactMessage struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// DashboardSummary — сводные счётчики для главной страницы
// (ответ GET /dashboard/summary).
type DashboardSummary struct {
	Products   int `json:"products"`
	Categories int `json:"categories"`
	Quotations int `json:"quotations"`
	Users      int `json:"users"`
	Jobs       int `json:"jobs"`
	Contacts   int `json:"contacts"`
}

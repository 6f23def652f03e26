// Пакет session — клиентская сессия Dashboard Module.
// Владеет жизненным циклом bearer-токена (cookie), декодированием
// identity и гидратацией профиля с удалённого Catalog API.
// Manager создаётся один раз на сервер и внедряется зависимостью;
// тесты конструируют независимые экземпляры — пакетного мутабельного
// состояния здесь нет.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/domain/rbac"
)

// ErrAccountDisabled — профиль деактивирован; сессия принудительно
// завершена, токен-cookie очищена.
var ErrAccountDisabled = errors.New("аккаунт деактивирован")

// AuthError — отказ входа: оба endpoint'а (superadmin, затем admin)
// отклонили credentials. Message — сообщение admin endpoint'а.
type AuthError struct {
	Message string
}

// Error реализует error.
func (e *AuthError) Error() string {
	if e.Message == "" {
		return "неверный email или пароль"
	}
	return e.Message
}

// Profile — профиль аутентифицированного субъекта.
// Пустой ID — незаутентифицированное состояние (sentinel).
type Profile struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Image       string
	Role        rbac.Role
	IsActive    bool
	Permissions rbac.CapabilitySet
}

// Session — снимок состояния сессии одного запроса.
// Все поля заполняются целиком до того, как снимок становится виден
// читателям: наполовину обновлённой пары identity/profile не бывает.
type Session struct {
	// Token — bearer-токен из cookie (пустой — нет токена).
	Token string
	// Identity — субъект, декодированный из токена.
	Identity Identity
	// Profile — профиль, загруженный с удалённого API.
	Profile Profile
	// Loading — true до завершения инициализации.
	Loading bool
}

// Empty возвращает пустую (незаутентифицированную) сессию.
func Empty() *Session {
	return &Session{Profile: Profile{Permissions: rbac.CapabilitySet{}}}
}

// IsAuthenticated — true если профиль загружен. Без побочных эффектов.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Profile.ID != ""
}

// ProfileUpdate — частичное обновление профиля.
// nil-поля не трогаются.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
	Image *string
}

// ApplyUpdate вливает заданные поля в профиль на месте, без повторной
// загрузки: вызывающая сторона уже сохранила изменения на сервере.
func (s *Session) ApplyUpdate(u ProfileUpdate) {
	if u.Name != nil {
		s.Profile.Name = *u.Name
	}
	if u.Email != nil {
		s.Profile.Email = *u.Email
	}
	if u.Phone != nil {
		s.Profile.Phone = *u.Phone
	}
	if u.Image != nil {
		s.Profile.Image = *u.Image
	}
}

// Manager — менеджер сессий: единственная точка входа/выхода
// и гидратации профиля.
type Manager struct {
	client  *catalog.Client
	decoder *TokenDecoder
	cookies *CookieStore
	logger  *slog.Logger
}

// NewManager создаёт менеджер сессий.
func NewManager(client *catalog.Client, decoder *TokenDecoder, cookies *CookieStore, logger *slog.Logger) *Manager {
	return &Manager{
		client:  client,
		decoder: decoder,
		cookies: cookies,
		logger:  logger.With(slog.String("component", "session")),
	}
}

// Initialize восстанавливает сессию из токен-cookie запроса.
// Отсутствующий или недекодируемый токен — тихая деградация к пустой
// сессии. Ошибка загрузки профиля — logout без ошибки (guard дальше
// сам перенаправит на вход). Деактивированный профиль — logout
// и ErrAccountDisabled: такой сессии доступ не выдаётся никогда.
func (m *Manager) Initialize(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	token, ok := m.cookies.Read(r)
	if !ok {
		return Empty(), nil
	}

	identity, err := m.decoder.Decode(ctx, token)
	if err != nil {
		m.logger.Debug("Токен не декодируется, сессия сброшена",
			slog.String("error", err.Error()),
		)
		m.Logout(w)
		return Empty(), nil
	}

	sess, err := m.fetchProfile(ctx, token, identity)
	if err != nil {
		m.Logout(w)
		if errors.Is(err, ErrAccountDisabled) {
			return Empty(), ErrAccountDisabled
		}
		m.logger.Info("Профиль не загружен, сессия сброшена",
			slog.String("subject", identity.SubjectID),
			slog.String("error", err.Error()),
		)
		return Empty(), nil
	}

	return sess, nil
}

// Login выполняет вход: сначала superadmin endpoint, при отказе —
// admin endpoint с теми же credentials. Оба отказа — *AuthError
// с сообщением admin endpoint'а, состояние сессии не меняется.
// Успех требует непустого токена в ответе; токен persist'ится на сутки,
// профиль загружается сразу. Сырой ответ сервера возвращается
// вызывающей стороне (форма входа использует его для redirect).
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, email, password string) (*Session, *catalog.LoginResponse, error) {
	login, err := m.client.LoginSuperadmin(ctx, email, password)
	if err != nil {
		m.logger.Debug("Superadmin endpoint отклонил вход, пробуем admin",
			slog.String("email", email),
		)
		login, err = m.client.LoginAdmin(ctx, email, password)
		if err != nil {
			var apiErr *catalog.APIError
			if errors.As(err, &apiErr) {
				return nil, nil, &AuthError{Message: apiErr.Message}
			}
			return nil, nil, fmt.Errorf("вход: %w", err)
		}
	}

	if login.Token == "" {
		return nil, nil, &AuthError{Message: "сервер не вернул токен"}
	}

	identity, err := m.decoder.Decode(ctx, login.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("декодирование выданного токена: %w", err)
	}

	m.cookies.Write(w, login.Token)

	sess, err := m.fetchProfile(ctx, login.Token, identity)
	if err != nil {
		m.Logout(w)
		if errors.Is(err, ErrAccountDisabled) {
			return nil, nil, ErrAccountDisabled
		}
		return nil, nil, fmt.Errorf("загрузка профиля после входа: %w", err)
	}

	m.logger.Info("Пользователь вошёл",
		slog.String("subject", identity.SubjectID),
		slog.String("role", string(identity.Role)),
	)

	return sess, login, nil
}

// Logout очищает токен-cookie. Идемпотентен: безопасен и для
// уже разлогиненного состояния.
func (m *Manager) Logout(w http.ResponseWriter) {
	m.cookies.Clear(w)
}

// fetchProfile загружает профиль с role-зависимого endpoint'а:
// superadmin читает собственную запись по id, остальные — /admin/me.
// Сессия собирается целиком до возврата.
func (m *Manager) fetchProfile(ctx context.Context, token string, identity Identity) (*Session, error) {
	ctx = catalog.ContextWithToken(ctx, token)

	var record *catalog.ProfileRecord
	var err error
	if identity.Role == rbac.RoleSuperadmin {
		record, err = m.client.Superadmin(ctx, identity.SubjectID)
	} else {
		record, err = m.client.Me(ctx)
	}
	if err != nil {
		return nil, err
	}

	profile := mapProfile(record, identity, m.logger)
	if !profile.IsActive {
		return nil, ErrAccountDisabled
	}

	return &Session{
		Token:    token,
		Identity: identity,
		Profile:  profile,
	}, nil
}

// mapProfile переводит запись сервера в профиль сессии.
// Отсутствующие опциональные поля — пустые строки и пустой набор.
// isActive отсутствует в ответе — считается true (logout только
// по явному false). Нераспознанные permissions логируются и не выдаются.
func mapProfile(record *catalog.ProfileRecord, identity Identity, logger *slog.Logger) Profile {
	role := identity.Role
	if parsed, ok := rbac.ParseRole(record.Role); ok {
		role = parsed
	}

	permissions, unknown := rbac.ParseCapabilitySet(record.Permissions)
	if len(unknown) > 0 {
		logger.Warn("Профиль содержит неизвестные permissions",
			slog.String("subject", record.ID),
			slog.Any("unknown", unknown),
		)
	}

	isActive := true
	if record.IsActive != nil {
		isActive = *record.IsActive
	}

	return Profile{
		ID:          record.ID,
		Name:        record.Name,
		Email:       record.Email,
		Phone:       record.Phone,
		Image:       record.Image,
		Role:        role,
		IsActive:    isActive,
		Permissions: permissions,
	}
}

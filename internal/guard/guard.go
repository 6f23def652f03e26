// Пакет guard — авторизация маршрутов дашборда.
// Decide — чистая процедура решения без побочных эффектов; таблица
// маршрутов задаёт поверхность доступа целиком. HTTP-перевод решений
// в redirect'ы и JSON-ответы — в middleware.go.
package guard

import (
	"github.com/arturkryukov/candystore/dashboard-module/internal/domain/rbac"
	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

// Decision — результат проверки доступа к маршруту.
type Decision int

const (
	// Allow — доступ разрешён.
	Allow Decision = iota
	// RedirectToLogin — субъект не аутентифицирован, отправить на вход.
	RedirectToLogin
	// RedirectToUnauthorized — аутентифицирован, но прав недостаточно.
	RedirectToUnauthorized
	// RedirectHome — путь не зарегистрирован, вернуть на корень.
	RedirectHome
)

// String — имя решения для логов.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToUnauthorized:
		return "redirect_to_unauthorized"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Rule — требования одного маршрута.
type Rule struct {
	// Public — маршрут доступен без аутентификации.
	Public bool
	// AuthenticatedOnly — достаточно любой аутентифицированной сессии,
	// роли и capabilities не проверяются (страница /unauthorized).
	AuthenticatedOnly bool
	// Roles — роли, которым маршрут доступен. Пустой список при
	// Public=false и AuthenticatedOnly=false не встречается в таблице.
	Roles []rbac.Role
}

// anyRole — маршрут для обеих ролей; для admin дополнительно
// проверяется capability маршрута.
var anyRole = []rbac.Role{rbac.RoleAdmin, rbac.RoleSuperadmin}

// routeRules — поверхность маршрутов дашборда.
// Ключ — первый сегмент пути ("/products/42/edit" сводится к "/products").
// Незарегистрированный путь — RedirectHome для аутентифицированных
// и RedirectToLogin для остальных.
var routeRules = map[string]Rule{
	"/":                {Roles: anyRole},
	"/sign-in":         {Public: true},
	"/forgot-password": {Public: true},
	"/unauthorized":    {AuthenticatedOnly: true},
	"/admins":          {Roles: []rbac.Role{rbac.RoleSuperadmin}},
	"/users":           {Roles: anyRole},
	"/categories":      {Roles: anyRole},
	"/sizes":           {Roles: anyRole},
	"/flavors":         {Roles: anyRole},
	"/products":        {Roles: anyRole},
	"/quotations":      {Roles: anyRole},
	"/jobs":            {Roles: anyRole},
	"/files":           {Roles: anyRole},
	"/galleries":       {Roles: anyRole},
	"/videos":          {Roles: anyRole},
	"/contact-us":      {Roles: anyRole},
}

// RuleFor возвращает правило маршрута по первому сегменту пути.
func RuleFor(path string) (Rule, bool) {
	rule, ok := routeRules[normalizeRoute(path)]
	return rule, ok
}

// Routes возвращает все зарегистрированные маршруты (для теста полноты
// таблицы capability).
func Routes() []string {
	out := make([]string, 0, len(routeRules))
	for path := range routeRules {
		out = append(out, path)
	}
	return out
}

// Decide решает вопрос доступа к пути. Проверки применяются по порядку,
// первая сработавшая определяет результат:
//  1. нет аутентификации — RedirectToLogin;
//  2. роль не входит в requiredRoles — RedirectToUnauthorized;
//  3. роль admin и путь не корень — у профиля должна быть capability
//     маршрута из явной таблицы; отсутствие записи в таблице — отказ
//     (fail closed), а не допуск. Superadmin шаг 3 обходит целиком.
func Decide(path string, requiredRoles []rbac.Role, sess *session.Session) Decision {
	if !sess.IsAuthenticated() {
		return RedirectToLogin
	}

	if len(requiredRoles) > 0 && !containsRole(requiredRoles, sess.Profile.Role) {
		return RedirectToUnauthorized
	}

	if sess.Profile.Role == rbac.RoleAdmin && normalizeRoute(path) != "/" {
		capability, ok := rbac.RouteCapability(path)
		if !ok || !sess.Profile.Permissions.Has(capability) {
			return RedirectToUnauthorized
		}
	}

	return Allow
}

// Evaluate применяет полную поверхность маршрутов: публичные маршруты
// всегда доступны, /unauthorized требует лишь аутентификации,
// незарегистрированный путь — RedirectHome (или RedirectToLogin без
// сессии), остальное — Decide.
func Evaluate(path string, sess *session.Session) Decision {
	rule, ok := RuleFor(path)
	if !ok {
		if sess.IsAuthenticated() {
			return RedirectHome
		}
		return RedirectToLogin
	}

	if rule.Public {
		return Allow
	}

	if rule.AuthenticatedOnly {
		if sess.IsAuthenticated() {
			return Allow
		}
		return RedirectToLogin
	}

	return Decide(path, rule.Roles, sess)
}

// normalizeRoute сводит путь к маршруту раздела: "/products/42" → "/products".
func normalizeRoute(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	trimmed := path[1:]
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '/' {
			return path[:i+1]
		}
	}
	return path
}

func containsRole(roles []rbac.Role, role rbac.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Пакет rbac — роли и capabilities Dashboard Module.
// Роли — закрытый тип (admin, superadmin), capabilities — закрытое
// перечисление разделов дашборда. Соответствие маршрут → capability
// задаётся явной таблицей, а не преобразованием строки пути:
// переименование маршрута без обновления таблицы ломает тест,
// а не авторизацию.
package rbac

import "strings"

// Role — роль аутентифицированного субъекта.
type Role string

const (
	// RoleAdmin — администратор с ограниченным набором capabilities.
	RoleAdmin Role = "admin"
	// RoleSuperadmin — суперадминистратор, неявно владеет всеми capabilities.
	RoleSuperadmin Role = "superadmin"
)

// ParseRole преобразует строку роли из токена в Role.
// Неизвестная роль — ошибка декодирования, а не молчаливый допуск.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(s)) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSuperadmin:
		return RoleSuperadmin, true
	default:
		return "", false
	}
}

// Capability — именованный раздел дашборда, доступ к которому выдаётся
// роли admin поимённо. Значения совпадают со строками permissions,
// которые возвращает удалённый API.
type Capability string

const (
	CapabilityAdmins     Capability = "Admins"
	CapabilityUsers      Capability = "Users"
	CapabilityCategories Capability = "Categories"
	CapabilitySizes      Capability = "Sizes"
	CapabilityFlavors    Capability = "Flavors"
	CapabilityProducts   Capability = "Products"
	CapabilityQuotations Capability = "Quotations"
	CapabilityJobs       Capability = "Jobs"
	CapabilityFiles      Capability = "Files"
	CapabilityGalleries  Capability = "Galleries"
	CapabilityVideos     Capability = "Videos"
	CapabilityContactUs  Capability = "Contact-us"
	CapabilityDashboard  Capability = "Dashboard"
)

// allCapabilities — полный закрытый список. Используется ParseCapability
// и тестами полноты таблицы маршрутов.
var allCapabilities = []Capability{
	CapabilityAdmins,
	CapabilityUsers,
	CapabilityCategories,
	CapabilitySizes,
	CapabilityFlavors,
	CapabilityProducts,
	CapabilityQuotations,
	CapabilityJobs,
	CapabilityFiles,
	CapabilityGalleries,
	CapabilityVideos,
	CapabilityContactUs,
	CapabilityDashboard,
}

// All возвращает копию полного списка capabilities.
func All() []Capability {
	out := make([]Capability, len(allCapabilities))
	copy(out, allCapabilities)
	return out
}

// ParseCapability преобразует строку permission из ответа сервера
// в Capability. Неизвестные строки отбрасываются (ok=false) —
// вызывающая сторона логирует их, но не выдаёт доступ.
func ParseCapability(s string) (Capability, bool) {
	for _, c := range allCapabilities {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// CapabilitySet — неупорядоченный набор capabilities роли admin.
// Для роли superadmin набор не консультируется.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet создаёт набор из списка capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// ParseCapabilitySet преобразует строки permissions сервера в набор.
// Вторым значением возвращает строки, которые не удалось распознать.
func ParseCapabilitySet(raw []string) (CapabilitySet, []string) {
	set := make(CapabilitySet, len(raw))
	var unknown []string
	for _, s := range raw {
		c, ok := ParseCapability(s)
		if !ok {
			unknown = append(unknown, s)
			continue
		}
		set[c] = struct{}{}
	}
	return set, unknown
}

// Has проверяет наличие capability в наборе.
func (s CapabilitySet) Has(c Capability) bool {
	_, found := s[c]
	return found
}

// Strings возвращает capabilities набора в виде строк
// (для сериализации профиля в ответ /auth/session).
// Порядок стабилен и совпадает с порядком объявления.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, c := range allCapabilities {
		if _, ok := s[c]; ok {
			out = append(out, string(c))
		}
	}
	return out
}

// routeCapabilities — явная таблица маршрут → capability.
// Ключ — путь раздела дашборда (без параметров). Корень "/" capability
// не требует и в таблице отсутствует намеренно.
var routeCapabilities = map[string]Capability{
	"/admins":     CapabilityAdmins,
	"/users":      CapabilityUsers,
	"/categories": CapabilityCategories,
	"/sizes":      CapabilitySizes,
	"/flavors":    CapabilityFlavors,
	"/products":   CapabilityProducts,
	"/quotations": CapabilityQuotations,
	"/jobs":       CapabilityJobs,
	"/files":      CapabilityFiles,
	"/galleries":  CapabilityGalleries,
	"/videos":     CapabilityVideos,
	"/contact-us": CapabilityContactUs,
}

// RouteCapability возвращает capability, требуемую для пути раздела.
// Путь сводится к первому сегменту: /products/42/edit → /products.
// Если записи нет — ok=false, guard трактует это как отказ (fail closed).
func RouteCapability(path string) (Capability, bool) {
	seg := firstSegment(path)
	if seg == "" {
		return "", false
	}
	c, ok := routeCapabilities["/"+seg]
	return c, ok
}

// firstSegment возвращает первый сегмент пути без ведущего слэша.
func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return ""
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

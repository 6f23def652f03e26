package rbac

import (
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Role
		wantOK bool
	}{
		{name: "admin", input: "admin", want: RoleAdmin, wantOK: true},
		{name: "superadmin", input: "superadmin", want: RoleSuperadmin, wantOK: true},
		{name: "регистр не важен", input: "Admin", want: RoleAdmin, wantOK: true},
		{name: "неизвестная роль", input: "manager", wantOK: false},
		{name: "пустая строка", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRole(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRole(%q) ok = %v, хотели %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseRole(%q) = %q, хотели %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCapabilitySet(t *testing.T) {
	set, unknown := ParseCapabilitySet([]string{"Products", "Contact-us", "Delivery", "Users"})

	if !set.Has(CapabilityProducts) {
		t.Error("набор не содержит Products")
	}
	if !set.Has(CapabilityContactUs) {
		t.Error("набор не содержит Contact-us")
	}
	if !set.Has(CapabilityUsers) {
		t.Error("набор не содержит Users")
	}
	if set.Has(CapabilityAdmins) {
		t.Error("набор содержит Admins, хотя он не выдавался")
	}
	if len(unknown) != 1 || unknown[0] != "Delivery" {
		t.Errorf("unknown = %v, хотели [Delivery]", unknown)
	}
}

func TestCapabilitySetStrings_StableOrder(t *testing.T) {
	set := NewCapabilitySet(CapabilityUsers, CapabilityAdmins, CapabilityProducts)
	got := set.Strings()
	want := []string{"Admins", "Users", "Products"}

	if len(got) != len(want) {
		t.Fatalf("Strings() = %v, хотели %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Strings()[%d] = %q, хотели %q", i, got[i], want[i])
		}
	}
}

func TestRouteCapability(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   Capability
		wantOK bool
	}{
		{name: "раздел products", path: "/products", want: CapabilityProducts, wantOK: true},
		{name: "вложенный путь сводится к разделу", path: "/products/42/edit", want: CapabilityProducts, wantOK: true},
		{name: "дефис в имени раздела", path: "/contact-us", want: CapabilityContactUs, wantOK: true},
		{name: "корень без capability", path: "/", wantOK: false},
		{name: "незарегистрированный раздел", path: "/reports", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RouteCapability(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("RouteCapability(%q) ok = %v, хотели %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("RouteCapability(%q) = %q, хотели %q", tt.path, got, tt.want)
			}
		})
	}
}

// Каждый раздел из закрытого перечисления (кроме Dashboard — это корень "/")
// обязан иметь запись в таблице маршрутов. Ловит переименование маршрута
// без обновления таблицы.
func TestRouteTable_CoversAllCapabilities(t *testing.T) {
	covered := make(map[Capability]bool)
	for _, c := range routeCapabilities {
		covered[c] = true
	}

	for _, c := range All() {
		if c == CapabilityDashboard {
			continue
		}
		if !covered[c] {
			t.Errorf("capability %q не привязана ни к одному маршруту", c)
		}
	}
}

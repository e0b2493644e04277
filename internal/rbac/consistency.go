package rbac

import "fmt"

// RouteDecl is a guarded route as declared by a screen catalog.
type RouteDecl struct {
	Path        string
	MenuKey     MenuKey
	Requirement Requirement
}

// Mismatch is a role for which a route and its menu item disagree.
type Mismatch struct {
	Path         string  `json:"path"`
	MenuKey      MenuKey `json:"menu_key"`
	Role         Role    `json:"role,omitempty"`
	RouteAllowed bool    `json:"route_allowed"`
	MenuVisible  bool    `json:"menu_visible"`
	Reason       string  `json:"reason"`
}

func (m Mismatch) String() string {
	if m.Role == "" {
		return fmt.Sprintf("%s [%s]: %s", m.Path, m.MenuKey, m.Reason)
	}
	return fmt.Sprintf("%s [%s] role=%s: %s", m.Path, m.MenuKey, m.Role, m.Reason)
}

// CheckConsistency compares, for every role, the guard decision of each
// route with the visibility of the menu item sharing its key. Routes without
// a menu key are skipped. Nothing is enforced; callers decide what to do with
// the mismatches.
func CheckConsistency(pol *Policy, routes []RouteDecl, menu []MenuItem) []Mismatch {
	index := make(map[MenuKey]MenuItem, len(menu))
	for _, item := range menu {
		index[item.Key] = item
	}
	eval := NewEvaluator(NewStaticStore(pol), menu)

	var out []Mismatch
	for _, route := range routes {
		if route.MenuKey == "" {
			continue
		}
		item, ok := index[route.MenuKey]
		if !ok {
			out = append(out, Mismatch{
				Path:    route.Path,
				MenuKey: route.MenuKey,
				Reason:  ErrUnknownMenuKey.Error(),
			})
			continue
		}
		for _, role := range Roles() {
			allowed := route.Requirement.allows(eval, pol, role)
			visible := eval.menuVisible(pol, role, item)
			if allowed == visible {
				continue
			}
			reason := "menu shown but route denies"
			if allowed {
				reason = "route allows but menu hidden"
			}
			out = append(out, Mismatch{
				Path:         route.Path,
				MenuKey:      route.MenuKey,
				Role:         role,
				RouteAllowed: allowed,
				MenuVisible:  visible,
				Reason:       reason,
			})
		}
	}
	return out
}

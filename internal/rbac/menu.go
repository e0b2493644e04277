package rbac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MenuItem is a compiled-in navigation entry.
type MenuItem struct {
	Key           MenuKey `json:"key" validate:"required,menukey"`
	Path          string  `json:"path" validate:"required,startswith=/"`
	Label         string  `json:"label,omitempty"`
	AdminOnly     bool    `json:"admin_only,omitempty"`
	RequiredRoles []Role  `json:"required_roles,omitempty" validate:"omitempty,dive,role"`
	ExcludedRoles []Role  `json:"excluded_roles,omitempty" validate:"omitempty,dive,role"`
}

// DisplayLabel returns Label, or a title derived from the key.
func (m MenuItem) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(string(m.Key), "-", " "))
}

// MenuFilter narrows a static menu to what a principal may see.
type MenuFilter struct {
	items     []MenuItem
	evaluator *Evaluator
}

// NewMenuFilter copies items so later edits by the caller have no effect.
func NewMenuFilter(items []MenuItem, evaluator *Evaluator) *MenuFilter {
	copied := make([]MenuItem, len(items))
	copy(copied, items)
	return &MenuFilter{items: copied, evaluator: evaluator}
}

// Items returns the unfiltered menu.
func (f *MenuFilter) Items() []MenuItem {
	out := make([]MenuItem, len(f.items))
	copy(out, f.items)
	return out
}

// Visible returns the items visible to p, keeping menu order. It reads the
// current snapshot on every call.
func (f *MenuFilter) Visible(p Principal) []MenuItem {
	pol := f.evaluator.snapshot()
	out := make([]MenuItem, 0, len(f.items))
	for _, item := range f.items {
		if f.evaluator.menuVisible(pol, p.Role, item) {
			out = append(out, item)
		}
	}
	return out
}

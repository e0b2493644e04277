package rbac

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
)

var menuKeyPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// NewValidator returns a validator with the rbac tags registered:
// permission, role and menukey.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
		return Permission(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("menukey", func(fl validator.FieldLevel) bool {
		return menuKeyPattern.MatchString(fl.Field().String())
	})
	return v
}

// Report collects problems found in a policy document. Errors block
// deployment; warnings are coverage gaps and stray menu keys.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the document has no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateDocument checks doc against the role enumeration, the permission
// grammar and the declared menu. Output is sorted for stable diffs.
func ValidateDocument(doc Document, menu []MenuItem) Report {
	v := NewValidator()
	declared := make(map[MenuKey]struct{}, len(menu))
	for _, item := range menu {
		declared[item.Key] = struct{}{}
	}

	report := Report{Errors: []string{}, Warnings: []string{}}
	for rawRole, entry := range doc {
		role, err := ParseRole(rawRole)
		if err != nil {
			report.errorf("%v", err)
			continue
		}
		if err := v.Struct(entry); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fe := range fieldErrs {
					report.errorf("role %s: %s %q fails %s", role, fe.Field(), fe.Value(), fe.Tag())
				}
			} else {
				report.errorf("role %s: %v", role, err)
			}
		}
		for _, key := range entry.Menus {
			if key == "" {
				continue
			}
			if _, ok := declared[MenuKey(key)]; !ok {
				report.warnf("role %s: %v: %q", role, ErrUnknownMenuKey, key)
			}
		}
	}

	for _, role := range Roles() {
		if !documentCovers(doc, role) {
			report.warnf("role %s has no policy entry", role)
		}
	}

	sort.Strings(report.Errors)
	sort.Strings(report.Warnings)
	return report
}

func documentCovers(doc Document, role Role) bool {
	for raw := range doc {
		if r, err := ParseRole(raw); err == nil && r == role {
			return true
		}
	}
	return false
}

// ValidateMenu checks the static menu declarations: tags, unique keys and
// unique paths.
func ValidateMenu(items []MenuItem) error {
	v := NewValidator()
	var errs []error
	keys := make(map[MenuKey]struct{}, len(items))
	paths := make(map[string]struct{}, len(items))
	for i, item := range items {
		if err := v.Struct(item); err != nil {
			errs = append(errs, fmt.Errorf("menu item %d (%s): %w", i, item.Key, err))
		}
		if _, dup := keys[item.Key]; dup {
			errs = append(errs, fmt.Errorf("menu item %d: duplicate key %s", i, item.Key))
		}
		keys[item.Key] = struct{}{}
		if _, dup := paths[item.Path]; dup {
			errs = append(errs, fmt.Errorf("menu item %d: duplicate path %s", i, item.Path))
		}
		paths[item.Path] = struct{}{}
	}
	return errors.Join(errs...)
}

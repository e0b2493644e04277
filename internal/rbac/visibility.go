package rbac

// RuleKind names a menu visibility rule.
type RuleKind int

// Visibility rules in precedence order.
const (
	RuleNone RuleKind = iota
	RuleExcludedRoles
	RuleRequiredRoles
	RuleAdminOnly
	RuleMenuSet
)

func (k RuleKind) String() string {
	switch k {
	case RuleExcludedRoles:
		return "excluded_roles"
	case RuleRequiredRoles:
		return "required_roles"
	case RuleAdminOnly:
		return "admin_only"
	case RuleMenuSet:
		return "menu_set"
	default:
		return "none"
	}
}

// visibilityRule decides an item or passes. applies reports whether the rule
// owns the decision for item; visible is only meaningful when it does.
type visibilityRule struct {
	kind    RuleKind
	applies func(item MenuItem, role Role) bool
	visible func(pol *Policy, item MenuItem, role Role) bool
}

// visibilityRules is evaluated top to bottom; the first rule that applies
// decides.
var visibilityRules = []visibilityRule{
	{
		kind: RuleExcludedRoles,
		applies: func(item MenuItem, role Role) bool {
			return RoleGroup(item.ExcludedRoles).Contains(role)
		},
		visible: func(*Policy, MenuItem, Role) bool { return false },
	},
	{
		kind: RuleRequiredRoles,
		applies: func(item MenuItem, _ Role) bool {
			return len(item.RequiredRoles) > 0
		},
		visible: func(_ *Policy, item MenuItem, role Role) bool {
			return RoleGroup(item.RequiredRoles).Contains(role)
		},
	},
	{
		kind: RuleAdminOnly,
		applies: func(item MenuItem, _ Role) bool {
			return item.AdminOnly
		},
		visible: func(_ *Policy, _ MenuItem, role Role) bool {
			return role == RoleAdmin
		},
	},
	{
		kind:    RuleMenuSet,
		applies: func(MenuItem, Role) bool { return true },
		visible: func(pol *Policy, item MenuItem, role Role) bool {
			return pol.shows(role, item.Key)
		},
	},
}

// decideVisibility runs the pipeline and returns the deciding rule.
func decideVisibility(pol *Policy, item MenuItem, role Role) (RuleKind, bool) {
	for _, rule := range visibilityRules {
		if rule.applies(item, role) {
			return rule.kind, rule.visible(pol, item, role)
		}
	}
	return RuleNone, false
}

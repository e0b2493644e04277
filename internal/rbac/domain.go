package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownRole indicates a role outside the closed role enumeration.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrInvalidPermission indicates a permission not shaped as resource.action.
	ErrInvalidPermission = errors.New("rbac: invalid permission")
	// ErrUnknownMenuKey indicates a menu key with no declared menu item.
	ErrUnknownMenuKey = errors.New("rbac: unknown menu key")
	// ErrPolicyNotLoaded is returned while waiting on a policy that never arrived.
	ErrPolicyNotLoaded = errors.New("rbac: policy not loaded")
	// ErrNoPolicy is returned by a source that has no policy document to offer.
	ErrNoPolicy = errors.New("rbac: no policy available")
)

// Role identifies a user's job function and is the only key into the policy.
type Role string

// Roles known to the platform.
const (
	RoleAdmin             Role = "admin"
	RoleSales             Role = "sales"
	RolePurchase          Role = "purchase"
	RoleClientServicing   Role = "client_servicing"
	RoleOperationsManager Role = "operations_manager"
	RoleOperator          Role = "operator"
	RoleDriver            Role = "driver"
	RolePromoter          Role = "promoter"
	RoleAnchor            Role = "anchor"
	RoleVendor            Role = "vendor"
	RoleVehicleManager    Role = "vehicle_manager"
	RoleGodownManager     Role = "godown_manager"
	RoleAccounts          Role = "accounts"
	RoleClient            Role = "client"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:             {},
	RoleSales:             {},
	RolePurchase:          {},
	RoleClientServicing:   {},
	RoleOperationsManager: {},
	RoleOperator:          {},
	RoleDriver:            {},
	RolePromoter:          {},
	RoleAnchor:            {},
	RoleVendor:            {},
	RoleVehicleManager:    {},
	RoleGodownManager:     {},
	RoleAccounts:          {},
	RoleClient:            {},
}

// Roles returns every known role sorted by name.
func Roles() []Role {
	roles := make([]Role, 0, len(knownRoles))
	for r := range knownRoles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// ParseRole normalises raw and checks it against the role enumeration.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

// Valid reports whether r is a member of the role enumeration.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }

// Role groups carried over from the operations playbook.
var (
	RolesWithClientAccess     = RoleGroup{RoleAdmin, RoleSales, RoleClientServicing}
	RolesWithProjectWrite     = RoleGroup{RoleAdmin, RoleSales, RoleClientServicing}
	RolesWithCampaignWrite    = RoleGroup{RoleAdmin, RoleClientServicing, RoleOperationsManager, RoleOperator}
	RolesWithExpenseApproval  = RoleGroup{RoleAdmin, RoleAccounts}
	RolesWithUserManagement   = RoleGroup{RoleAdmin}
	RolesWithSettingsAccess   = RoleGroup{RoleAdmin}
	RolesWithOperationsAccess = RoleGroup{RoleAdmin, RoleOperationsManager, RoleSales, RoleClientServicing}
)

// RoleGroup is an explicit role allow-list.
type RoleGroup []Role

// Contains reports whether role is listed in the group.
func (g RoleGroup) Contains(role Role) bool {
	for _, r := range g {
		if r == role {
			return true
		}
	}
	return false
}

// Permission is a resource.action capability compared by exact equality.
type Permission string

var knownActions = map[string]struct{}{
	"create":       {},
	"read":         {},
	"update":       {},
	"delete":       {},
	"approve":      {},
	"submit":       {},
	"view":         {},
	"password.set": {},
}

// ParsePermission checks that raw has the resource.action shape.
func ParsePermission(raw string) (Permission, error) {
	p := Permission(strings.TrimSpace(raw))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPermission, raw)
	}
	return p, nil
}

// Valid reports whether p is syntactically a resource.action permission.
func (p Permission) Valid() bool {
	resource, action, ok := strings.Cut(string(p), ".")
	if !ok || resource == "" || action == "" {
		return false
	}
	for _, c := range resource {
		if (c < 'a' || c > 'z') && c != '_' {
			return false
		}
	}
	_, known := knownActions[action]
	return known
}

// Resource returns the resource half of the permission.
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ".")
	return resource
}

// Action returns the action half of the permission.
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ".")
	return action
}

func (p Permission) String() string { return string(p) }

// MenuKey names a single navigation entry. It does not share a namespace with
// permissions.
type MenuKey string

func (k MenuKey) String() string { return string(k) }

// Principal describes the authenticated actor. Only Role drives decisions.
type Principal struct {
	ID          int64  `json:"id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	VendorID    *int64 `json:"vendor_id,omitempty"`
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

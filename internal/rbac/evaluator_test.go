package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/shared"
	_ "github.com/fleetops/fleetops/testing"
)

func newEvaluator(t *testing.T, doc rbac.Document) *rbac.Evaluator {
	t.Helper()
	pol, err := rbac.NewPolicy(doc, "test")
	require.NoError(t, err)
	return rbac.NewEvaluator(rbac.NewStaticStore(pol), nil)
}

func principal(role rbac.Role) rbac.Principal {
	return rbac.Principal{ID: 7, Role: role, DisplayName: "Test " + string(role)}
}

func salesDoc() rbac.Document {
	return rbac.Document{
		"sales": {Permissions: []string{"client.read", "client.create", "project.read"}},
		"admin": {Permissions: []string{}},
	}
}

func TestHasPermissionSalesScenario(t *testing.T) {
	eval := newEvaluator(t, salesDoc())

	assert.True(t, eval.HasPermission(principal(rbac.RoleSales), "client.read"))
	assert.False(t, eval.HasPermission(principal(rbac.RoleSales), "client.delete"))
	assert.True(t, eval.HasPermission(principal(rbac.RoleAdmin), "client.delete"))
}

func TestAdminHoldsEveryValidPermission(t *testing.T) {
	eval := newEvaluator(t, rbac.Document{"admin": {}})
	admin := principal(rbac.RoleAdmin)

	for _, perm := range shared.AllScopes() {
		assert.True(t, eval.HasPermission(admin, rbac.Permission(perm)), perm)
	}
	// Never listed anywhere, still granted.
	assert.True(t, eval.HasPermission(admin, "fuel_card.approve"))
	assert.True(t, eval.HasPermission(admin, "warehouse_transfer.submit"))

	// Malformed strings are not permissions at all.
	assert.False(t, eval.HasPermission(admin, "client"))
	assert.False(t, eval.HasPermission(admin, "client.fly"))
	assert.False(t, eval.HasPermission(admin, ""))
}

func TestNonAdminMembershipAndMonotonicity(t *testing.T) {
	doc := rbac.Document{"driver": {Permissions: []string{"expense.create"}}}
	before := newEvaluator(t, doc)
	driver := principal(rbac.RoleDriver)

	assert.True(t, before.HasPermission(driver, "expense.create"))
	assert.False(t, before.HasPermission(driver, "expense.approve"))

	doc["driver"] = rbac.DocumentEntry{Permissions: []string{"expense.create", "expense.approve"}}
	after := newEvaluator(t, doc)
	assert.True(t, after.HasPermission(driver, "expense.approve"))
	assert.True(t, after.HasPermission(driver, "expense.create"))
}

func TestDefaultPolicyMatchesTableForNonAdmins(t *testing.T) {
	pol := rbac.DefaultPolicy()
	eval := rbac.NewEvaluator(rbac.NewStaticStore(pol), nil)

	for _, role := range rbac.Roles() {
		if role == rbac.RoleAdmin {
			continue
		}
		granted := pol.PermissionsFor(role)
		for _, raw := range shared.AllScopes() {
			perm := rbac.Permission(raw)
			assert.Equal(t, granted.Has(perm), eval.HasPermission(principal(role), perm), "%s %s", role, perm)
		}
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())
	ghost := rbac.Principal{ID: 1, Role: rbac.Role("superuser")}

	for _, perm := range shared.AllScopes() {
		assert.False(t, eval.HasPermission(ghost, rbac.Permission(perm)))
	}
	for _, item := range rbac.DefaultMenu() {
		assert.False(t, eval.IsMenuVisible(ghost, item), item.Key)
	}
	assert.False(t, eval.IsAdmin(ghost))
}

func TestRoleMissingFromPolicyFailsClosed(t *testing.T) {
	eval := newEvaluator(t, rbac.Document{"sales": {Permissions: []string{"client.read"}, Menus: []string{"clients"}}})
	anchor := principal(rbac.RoleAnchor)

	assert.False(t, eval.HasPermission(anchor, "campaign.read"))
	assert.False(t, eval.IsMenuKeyVisible(anchor, "campaigns"))
}

func TestHasAnyHasAll(t *testing.T) {
	eval := newEvaluator(t, salesDoc())
	sales := principal(rbac.RoleSales)

	assert.True(t, eval.HasAny(sales, "client.delete", "client.read"))
	assert.False(t, eval.HasAny(sales, "client.delete", "vendor.delete"))
	assert.False(t, eval.HasAny(sales))

	assert.True(t, eval.HasAll(sales, "client.read", "project.read"))
	assert.False(t, eval.HasAll(sales, "client.read", "project.update"))
	assert.False(t, eval.HasAll(sales))
}

func TestCanReadCanWrite(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())

	assert.True(t, eval.CanRead(principal(rbac.RoleClient), "report"))
	assert.False(t, eval.CanWrite(principal(rbac.RoleClient), "report"))
	// Operators may only update vehicles, which still counts as write.
	assert.True(t, eval.CanWrite(principal(rbac.RoleOperator), "vehicle"))
	assert.False(t, eval.CanWrite(principal(rbac.RoleAnchor), "vehicle"))
	assert.True(t, eval.CanWrite(principal(rbac.RoleAdmin), "godown"))
}

func TestMenuPrecedenceExclusionBeatsRequired(t *testing.T) {
	eval := newEvaluator(t, rbac.Document{
		"vendor": {Menus: []string{"fleet-board"}},
		"admin":  {},
	})
	item := rbac.MenuItem{
		Key:           "fleet-board",
		Path:          "/fleet-board",
		ExcludedRoles: []rbac.Role{rbac.RoleVendor},
		RequiredRoles: []rbac.Role{rbac.RoleAdmin, rbac.RoleVendor},
	}

	assert.False(t, eval.IsMenuVisible(principal(rbac.RoleVendor), item))
	assert.True(t, eval.IsMenuVisible(principal(rbac.RoleAdmin), item))

	rule, visible := eval.ExplainMenu(principal(rbac.RoleVendor), item)
	assert.Equal(t, rbac.RuleExcludedRoles, rule)
	assert.False(t, visible)
}

func TestMenuPrecedenceRequiredBeatsAdminOnly(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())
	item := rbac.MenuItem{
		Key:           "stock-audit",
		Path:          "/stock-audit",
		AdminOnly:     true,
		RequiredRoles: []rbac.Role{rbac.RoleGodownManager},
	}

	assert.True(t, eval.IsMenuVisible(principal(rbac.RoleGodownManager), item))
	assert.False(t, eval.IsMenuVisible(principal(rbac.RoleAdmin), item))

	item.RequiredRoles = append(item.RequiredRoles, rbac.RoleAdmin)
	assert.True(t, eval.IsMenuVisible(principal(rbac.RoleAdmin), item))

	rule, _ := eval.ExplainMenu(principal(rbac.RoleAdmin), item)
	assert.Equal(t, rbac.RuleRequiredRoles, rule)
}

func TestMenuAdminOnlyAndMenuSet(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())
	settings := rbac.MenuItem{Key: "settings", Path: "/settings", AdminOnly: true}
	clients := rbac.MenuItem{Key: "clients", Path: "/clients"}

	assert.True(t, eval.IsMenuVisible(principal(rbac.RoleAdmin), settings))
	assert.False(t, eval.IsMenuVisible(principal(rbac.RoleSales), settings))

	assert.True(t, eval.IsMenuVisible(principal(rbac.RoleSales), clients))
	assert.False(t, eval.IsMenuVisible(principal(rbac.RoleDriver), clients))

	rule, _ := eval.ExplainMenu(principal(rbac.RoleSales), clients)
	assert.Equal(t, rbac.RuleMenuSet, rule)
	assert.Equal(t, "menu_set", rule.String())
}

func TestGodownInventoryScenario(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())

	assert.False(t, eval.IsMenuKeyVisible(principal(rbac.RoleDriver), "godown-inventory"))
	assert.True(t, eval.IsMenuKeyVisible(principal(rbac.RoleGodownManager), "godown-inventory"))
	assert.True(t, eval.IsMenuKeyVisible(principal(rbac.RoleAdmin), "godown-inventory"))
}

func TestUnknownMenuKeyIsHidden(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())
	assert.False(t, eval.IsMenuKeyVisible(principal(rbac.RoleAdmin), "does-not-exist"))
}

func TestEvaluationIsDeterministic(t *testing.T) {
	eval := newEvaluator(t, rbac.DefaultDocument())
	filter := rbac.NewMenuFilter(rbac.DefaultMenu(), eval)

	type result struct {
		perm bool
		menu []rbac.MenuItem
	}
	run := func(role rbac.Role) result {
		p := principal(role)
		return result{perm: eval.HasPermission(p, "campaign.update"), menu: filter.Visible(p)}
	}

	first := make(map[rbac.Role]result)
	for _, role := range rbac.Roles() {
		first[role] = run(role)
	}
	roles := rbac.Roles()
	for i := len(roles) - 1; i >= 0; i-- {
		assert.Equal(t, first[roles[i]], run(roles[i]), roles[i])
	}
}

func TestEvaluatorDeniesWithoutSnapshot(t *testing.T) {
	store := rbac.NewStore(rbac.NewStaticSource(nil))
	eval := rbac.NewEvaluator(store, nil)
	admin := principal(rbac.RoleAdmin)

	assert.False(t, eval.IsAdmin(admin))
	assert.False(t, eval.HasPermission(admin, "client.read"))
	assert.False(t, eval.IsMenuKeyVisible(admin, "godown-inventory"))
	rule, visible := eval.ExplainMenu(admin, rbac.MenuItem{Key: "clients", Path: "/clients"})
	assert.Equal(t, rbac.RuleNone, rule)
	assert.False(t, visible)
}

func TestDefaultPolicyExpenseGrants(t *testing.T) {
	eval := rbac.NewEvaluator(rbac.NewStaticStore(rbac.DefaultPolicy()), nil)

	for _, role := range rbac.Roles() {
		if role == rbac.RoleAdmin {
			continue
		}
		assert.False(t, eval.HasPermission(principal(role), "expense.submit"), role)
	}
	for _, role := range []rbac.Role{rbac.RoleOperator, rbac.RoleDriver, rbac.RolePromoter, rbac.RoleAnchor, rbac.RoleVendor} {
		assert.True(t, eval.HasPermission(principal(role), "expense.create"), role)
		assert.False(t, eval.HasPermission(principal(role), "expense.approve"), role)
	}
	assert.True(t, eval.HasPermission(principal(rbac.RoleAccounts), "expense.approve"))
}

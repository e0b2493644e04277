package rbac_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetops/internal/rbac"
)

func TestDefaultDocumentValidates(t *testing.T) {
	report := rbac.ValidateDocument(rbac.DefaultDocument(), rbac.DefaultMenu())

	assert.True(t, report.OK(), report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateDocumentFindsProblems(t *testing.T) {
	doc := rbac.Document{
		"salse":  {Permissions: []string{"client.read"}},
		"sales":  {Permissions: []string{"client.read", "client", "client.fly"}, Menus: []string{"clients", "crm"}},
		"vendor": {Menus: []string{""}},
	}

	report := rbac.ValidateDocument(doc, rbac.DefaultMenu())

	require.False(t, report.OK())
	assert.Len(t, report.Errors, 4)
	assert.Contains(t, strings.Join(report.Errors, "\n"), `"salse"`)

	var unknownMenu, gaps int
	for _, w := range report.Warnings {
		switch {
		case strings.Contains(w, "role sales") && strings.Contains(w, `"crm"`):
			unknownMenu++
		case strings.Contains(w, "has no policy entry"):
			gaps++
		}
	}
	assert.Equal(t, 1, unknownMenu)
	assert.Equal(t, len(rbac.Roles())-2, gaps)
}

func TestValidateMenu(t *testing.T) {
	require.NoError(t, rbac.ValidateMenu(rbac.DefaultMenu()))

	bad := []rbac.MenuItem{
		{Key: "clients", Path: "/clients"},
		{Key: "clients", Path: "clients"},
		{Key: "Bad Key", Path: "/clients"},
		{Key: "ops", Path: "/ops", RequiredRoles: []rbac.Role{"overlord"}},
	}
	err := rbac.ValidateMenu(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key clients")
	assert.Contains(t, err.Error(), "duplicate path /clients")
	assert.Contains(t, err.Error(), "menu item 1")
	assert.Contains(t, err.Error(), "menu item 2")
	assert.Contains(t, err.Error(), "menu item 3")
}

func TestValidatorTags(t *testing.T) {
	v := rbac.NewValidator()

	assert.NoError(t, v.Var("expense.submit", "permission"))
	assert.Error(t, v.Var("expense", "permission"))
	assert.NoError(t, v.Var("godown_manager", "role"))
	assert.Error(t, v.Var("root", "role"))
	assert.NoError(t, v.Var("godown-inventory", "menukey"))
	assert.Error(t, v.Var("Godown Inventory", "menukey"))
}

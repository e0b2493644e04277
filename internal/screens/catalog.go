// Package screens declares the back-office screens, the guard each one sits
// behind and the controls the UI may offer on it.
package screens

import (
	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/shared"
)

// Screen is one guarded page of the back office.
type Screen struct {
	Key         rbac.MenuKey
	Path        string
	Title       string
	Resource    string
	Requirement rbac.Requirement
}

// Actions are the controls a screen shows for a principal.
type Actions struct {
	Create  bool `json:"create"`
	Update  bool `json:"update"`
	Delete  bool `json:"delete"`
	Approve bool `json:"approve"`
	Submit  bool `json:"submit"`
}

func perm(p string) rbac.Requirement { return rbac.RequirePermission(rbac.Permission(p)) }

// Catalog lists every screen in menu order. Paths and keys line up with
// rbac.DefaultMenu.
func Catalog() []Screen {
	return []Screen{
		{Key: "dashboard", Path: "/dashboard", Title: "Dashboard", Requirement: perm(shared.PermDashboardView)},
		{Key: "vendor-dashboard", Path: "/vendor-dashboard", Title: "Vendor Dashboard", Requirement: perm(shared.PermVendorDashboardView)},
		{Key: "client-servicing-dashboard", Path: "/client-servicing-dashboard", Title: "Client Servicing", Requirement: perm(shared.PermClientServicingDashboardView)},
		{Key: "driver-dashboard", Path: "/driver-dashboard", Title: "Driver Dashboard", Requirement: perm(shared.PermDriverDashboardView)},
		{Key: "clients", Path: "/clients", Title: "Clients", Resource: "client", Requirement: perm(shared.PermClientRead)},
		{Key: "projects", Path: "/projects", Title: "Projects", Resource: "project", Requirement: perm(shared.PermProjectRead)},
		{Key: "campaigns", Path: "/campaigns", Title: "Campaigns", Resource: "campaign", Requirement: perm(shared.PermCampaignRead)},
		{Key: "operations", Path: "/operations", Title: "Operations", Resource: "campaign", Requirement: perm(shared.PermCampaignUpdate)},
		{Key: "vendors", Path: "/vendors", Title: "Vendors", Resource: "vendor", Requirement: perm(shared.PermVendorRead)},
		{Key: "vehicles", Path: "/vehicles", Title: "Vehicles", Resource: "vehicle", Requirement: perm(shared.PermVehicleRead)},
		{Key: "drivers", Path: "/drivers", Title: "Drivers", Resource: "driver", Requirement: perm(shared.PermDriverRead)},
		{Key: "promoters", Path: "/promoters", Title: "Promoters", Resource: "promoter", Requirement: perm(shared.PermPromoterRead)},
		{Key: "promoter-activities", Path: "/promoter-activities", Title: "Promoter Activities", Resource: "promoter_activity", Requirement: perm(shared.PermPromoterActivityRead)},
		{Key: "events", Path: "/events", Title: "Events", Resource: "campaign", Requirement: perm(shared.PermCampaignRead)},
		{Key: "maintenance", Path: "/maintenance", Title: "Maintenance", Resource: "vehicle", Requirement: perm(shared.PermVehicleUpdate)},
		{Key: "expenses", Path: "/expenses", Title: "Expenses", Resource: "expense", Requirement: perm(shared.PermExpenseRead)},
		{Key: "payments", Path: "/payments", Title: "Payments", Resource: "payment", Requirement: perm(shared.PermPaymentRead)},
		{Key: "accounts", Path: "/accounts", Title: "Accounts", Resource: "invoice", Requirement: perm(shared.PermInvoiceRead)},
		{Key: "reports", Path: "/reports", Title: "Reports", Resource: "report", Requirement: perm(shared.PermReportRead)},
		{Key: "godown-inventory", Path: "/godown-inventory", Title: "Godown Inventory", Resource: "godown", Requirement: perm(shared.PermGodownRead)},
		{Key: "inventory", Path: "/inventory", Title: "Inventory", Resource: "inventory", Requirement: perm(shared.PermInventoryRead)},
		{Key: "stock", Path: "/stock", Title: "Stock", Resource: "inventory", Requirement: perm(shared.PermInventoryRead)},
		{Key: "analytics", Path: "/analytics", Title: "Analytics", Requirement: rbac.RequireAdminOnly()},
		{Key: "users", Path: "/users", Title: "Users", Resource: "user", Requirement: rbac.RequireAdminOnly()},
		{Key: "settings", Path: "/settings", Title: "Settings", Resource: "settings", Requirement: rbac.RequireAdminOnly()},
	}
}

// Routes converts the catalog into declarations for rbac.CheckConsistency.
func Routes() []rbac.RouteDecl {
	catalog := Catalog()
	out := make([]rbac.RouteDecl, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, rbac.RouteDecl{Path: s.Path, MenuKey: s.Key, Requirement: s.Requirement})
	}
	return out
}

// ActionsFor resolves the controls of s for p. Screens without a resource
// offer none.
func ActionsFor(e *rbac.Evaluator, p rbac.Principal, s Screen) Actions {
	if s.Resource == "" {
		return Actions{}
	}
	can := func(action string) bool {
		return e.HasPermission(p, rbac.Permission(s.Resource+"."+action))
	}
	return Actions{
		Create:  can("create"),
		Update:  can("update"),
		Delete:  can("delete"),
		Approve: can("approve"),
		Submit:  can("submit"),
	}
}

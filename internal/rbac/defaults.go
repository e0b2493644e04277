package rbac

import "github.com/fleetops/fleetops/internal/shared"

// DefaultDocument returns the compiled-in role matrix. Admin carries the full
// scope list for display purposes only; the evaluator grants admin
// everything regardless.
func DefaultDocument() Document {
	return Document{
		string(RoleAdmin): {
			Permissions: shared.AllScopes(),
			Menus: []string{
				"dashboard", "clients", "projects", "campaigns", "vendors",
				"vendor-dashboard", "client-servicing-dashboard", "driver-dashboard",
				"vehicles", "drivers", "promoters", "promoter-activities", "operations",
				"expenses", "reports", "accounts", "analytics", "settings",
				"godown-inventory", "users",
			},
		},
		string(RoleSales): {
			Permissions: []string{
				shared.PermClientCreate, shared.PermClientRead, shared.PermClientUpdate,
				shared.PermProjectCreate, shared.PermProjectRead, shared.PermProjectUpdate,
				shared.PermCampaignRead,
				shared.PermVendorRead,
				shared.PermReportRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "clients", "projects", "campaigns", "vendors", "reports"},
		},
		string(RolePurchase): {
			Permissions: []string{
				shared.PermVendorCreate, shared.PermVendorRead, shared.PermVendorUpdate,
				shared.PermProjectRead,
				shared.PermCampaignRead,
				shared.PermExpenseRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "vendors", "projects", "campaigns"},
		},
		string(RoleClientServicing): {
			Permissions: []string{
				shared.PermClientRead,
				shared.PermProjectCreate, shared.PermProjectRead, shared.PermProjectUpdate,
				shared.PermCampaignCreate, shared.PermCampaignRead, shared.PermCampaignUpdate,
				shared.PermVendorRead,
				shared.PermVehicleRead,
				shared.PermDriverRead,
				shared.PermPromoterRead,
				shared.PermPromoterActivityRead,
				shared.PermReportCreate, shared.PermReportRead, shared.PermReportUpdate,
				shared.PermExpenseRead,
				shared.PermDashboardView,
				shared.PermClientServicingDashboardView,
			},
			Menus: []string{
				"dashboard", "client-servicing-dashboard", "clients", "projects", "campaigns",
				"reports", "operations", "vendors", "vehicles",
			},
		},
		string(RoleOperationsManager): {
			Permissions: []string{
				shared.PermProjectRead,
				shared.PermCampaignCreate, shared.PermCampaignRead, shared.PermCampaignUpdate,
				shared.PermVehicleCreate, shared.PermVehicleRead, shared.PermVehicleUpdate,
				shared.PermDriverCreate, shared.PermDriverRead, shared.PermDriverUpdate,
				shared.PermPromoterCreate, shared.PermPromoterRead, shared.PermPromoterUpdate,
				shared.PermExpenseRead,
				shared.PermReportRead,
				shared.PermDriverDashboardView,
				shared.PermDashboardView,
			},
			Menus: []string{
				"dashboard", "driver-dashboard", "projects", "campaigns", "operations", "drivers",
				"vehicles", "promoters", "promoter-activities", "expenses", "reports",
			},
		},
		string(RoleOperator): {
			Permissions: []string{
				shared.PermCampaignRead, shared.PermCampaignUpdate,
				shared.PermVehicleRead, shared.PermVehicleUpdate,
				shared.PermDriverRead, shared.PermDriverUpdate,
				shared.PermVendorRead,
				shared.PermPromoterRead, shared.PermPromoterUpdate,
				shared.PermExpenseCreate, shared.PermExpenseRead,
				shared.PermDashboardView,
			},
			Menus: []string{
				"dashboard", "campaigns", "operations", "drivers", "vehicles", "vendors",
				"promoters", "promoter-activities",
			},
		},
		string(RoleDriver): {
			Permissions: []string{
				shared.PermCampaignRead,
				shared.PermVehicleRead,
				shared.PermExpenseCreate, shared.PermExpenseRead,
				shared.PermDriverDashboardView,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "driver-dashboard", "expenses", "campaigns"},
		},
		string(RolePromoter): {
			Permissions: []string{
				shared.PermCampaignRead,
				shared.PermPromoterRead, shared.PermPromoterUpdate,
				shared.PermPromoterActivityCreate, shared.PermPromoterActivityRead,
				shared.PermExpenseCreate, shared.PermExpenseRead,
				shared.PermReportCreate, shared.PermReportRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "campaigns", "promoter-activities", "reports", "expenses"},
		},
		string(RoleAnchor): {
			Permissions: []string{
				shared.PermCampaignRead,
				shared.PermExpenseCreate, shared.PermExpenseRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "events", "campaigns", "promoter-activities"},
		},
		string(RoleVendor): {
			Permissions: []string{
				shared.PermCampaignRead,
				shared.PermVehicleCreate, shared.PermVehicleRead, shared.PermVehicleUpdate,
				shared.PermDriverCreate, shared.PermDriverRead, shared.PermDriverUpdate,
				shared.PermInvoiceCreate, shared.PermInvoiceRead, shared.PermInvoiceUpdate,
				shared.PermPaymentRead,
				shared.PermVendorDashboardView,
				shared.PermExpenseCreate, shared.PermExpenseRead,
				shared.PermDashboardView,
			},
			Menus: []string{"vendor-dashboard", "campaigns", "vehicles", "drivers"},
		},
		string(RoleVehicleManager): {
			Permissions: []string{
				shared.PermVehicleCreate, shared.PermVehicleRead, shared.PermVehicleUpdate,
				shared.PermDriverRead,
				shared.PermCampaignRead,
				shared.PermExpenseRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "vehicles", "drivers", "maintenance"},
		},
		string(RoleGodownManager): {
			Permissions: []string{
				shared.PermCampaignRead,
				shared.PermProjectRead,
				shared.PermDashboardView,
				shared.PermGodownCreate, shared.PermGodownRead, shared.PermGodownUpdate, shared.PermGodownDelete,
				shared.PermInventoryCreate, shared.PermInventoryRead, shared.PermInventoryUpdate, shared.PermInventoryDelete,
			},
			Menus: []string{"dashboard", "inventory", "stock", "campaigns"},
		},
		string(RoleAccounts): {
			Permissions: []string{
				shared.PermProjectRead,
				shared.PermCampaignRead,
				shared.PermVendorRead,
				shared.PermExpenseCreate, shared.PermExpenseRead, shared.PermExpenseUpdate,
				shared.PermExpenseApprove,
				shared.PermInvoiceRead, shared.PermInvoiceApprove,
				shared.PermPaymentCreate, shared.PermPaymentRead, shared.PermPaymentUpdate,
				shared.PermReportRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "expenses", "payments", "reports", "projects", "campaigns", "vendors"},
		},
		string(RoleClient): {
			Permissions: []string{
				shared.PermProjectRead,
				shared.PermCampaignRead,
				shared.PermReportRead,
				shared.PermDashboardView,
			},
			Menus: []string{"dashboard", "reports", "projects", "campaigns"},
		},
	}
}

// DefaultPolicy freezes DefaultDocument. The compiled-in document is known to
// be valid, so a failure here is a programming error.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultDocument(), "static")
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultMenu is the navigation shell's static menu, in display order.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Key: "dashboard", Path: "/dashboard", ExcludedRoles: []Role{RoleVendor}},
		{Key: "vendor-dashboard", Path: "/vendor-dashboard"},
		{Key: "client-servicing-dashboard", Path: "/client-servicing-dashboard"},
		{Key: "driver-dashboard", Path: "/driver-dashboard"},
		{Key: "clients", Path: "/clients"},
		{Key: "projects", Path: "/projects"},
		{Key: "campaigns", Path: "/campaigns"},
		{Key: "operations", Path: "/operations"},
		{Key: "vendors", Path: "/vendors"},
		{Key: "vehicles", Path: "/vehicles"},
		{Key: "drivers", Path: "/drivers"},
		{Key: "promoters", Path: "/promoters"},
		{Key: "promoter-activities", Path: "/promoter-activities"},
		{Key: "events", Path: "/events"},
		{Key: "maintenance", Path: "/maintenance"},
		{Key: "expenses", Path: "/expenses"},
		{Key: "payments", Path: "/payments"},
		{Key: "accounts", Path: "/accounts"},
		{Key: "reports", Path: "/reports"},
		{Key: "godown-inventory", Path: "/godown-inventory", Label: "Godown Inventory", RequiredRoles: []Role{RoleAdmin, RoleGodownManager}},
		{Key: "inventory", Path: "/inventory"},
		{Key: "stock", Path: "/stock"},
		{Key: "analytics", Path: "/analytics", AdminOnly: true},
		{Key: "users", Path: "/users", AdminOnly: true},
		{Key: "settings", Path: "/settings", AdminOnly: true},
	}
}

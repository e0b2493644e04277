// Package shared holds the permission vocabulary used by the compiled-in
// policy and the screen catalog.
package shared

// Core platform permissions.
const (
	PermUserCreate      = "user.create"
	PermUserRead        = "user.read"
	PermUserUpdate      = "user.update"
	PermUserDelete      = "user.delete"
	PermUserPasswordSet = "user.password.set"

	PermSettingsView   = "settings.view"
	PermSettingsUpdate = "settings.update"
)

// Dashboard and analytics permissions. These only carry the view action.
const (
	PermDashboardView                = "dashboard.view"
	PermVendorDashboardView          = "vendor_dashboard.view"
	PermClientServicingDashboardView = "client_servicing_dashboard.view"
	PermDriverDashboardView          = "driver_dashboard.view"
	PermAnalyticsView                = "analytics.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUserCreate,
		PermUserRead,
		PermUserUpdate,
		PermUserDelete,
		PermUserPasswordSet,
		PermSettingsView,
		PermSettingsUpdate,
	}
}

// DashboardScopes lists the dashboard and analytics permissions.
func DashboardScopes() []string {
	return []string{
		PermDashboardView,
		PermVendorDashboardView,
		PermClientServicingDashboardView,
		PermDriverDashboardView,
		PermAnalyticsView,
	}
}

package shared

// Fleet and field-force permissions declared for RBAC.
const (
	// Vehicle permissions
	PermVehicleCreate = "vehicle.create"
	PermVehicleRead   = "vehicle.read"
	PermVehicleUpdate = "vehicle.update"
	PermVehicleDelete = "vehicle.delete"

	// Driver permissions
	PermDriverCreate = "driver.create"
	PermDriverRead   = "driver.read"
	PermDriverUpdate = "driver.update"
	PermDriverDelete = "driver.delete"

	// Promoter permissions
	PermPromoterCreate = "promoter.create"
	PermPromoterRead   = "promoter.read"
	PermPromoterUpdate = "promoter.update"
	PermPromoterDelete = "promoter.delete"

	// Promoter activity permissions
	PermPromoterActivityCreate = "promoter_activity.create"
	PermPromoterActivityRead   = "promoter_activity.read"
	PermPromoterActivityUpdate = "promoter_activity.update"
	PermPromoterActivityDelete = "promoter_activity.delete"

	// Godown (warehouse) permissions
	PermGodownCreate = "godown.create"
	PermGodownRead   = "godown.read"
	PermGodownUpdate = "godown.update"
	PermGodownDelete = "godown.delete"

	// Inventory permissions
	PermInventoryCreate = "inventory.create"
	PermInventoryRead   = "inventory.read"
	PermInventoryUpdate = "inventory.update"
	PermInventoryDelete = "inventory.delete"
)

// FleetScopes lists vehicle, driver and promoter permissions.
func FleetScopes() []string {
	return []string{
		PermVehicleCreate,
		PermVehicleRead,
		PermVehicleUpdate,
		PermVehicleDelete,
		PermDriverCreate,
		PermDriverRead,
		PermDriverUpdate,
		PermDriverDelete,
		PermPromoterCreate,
		PermPromoterRead,
		PermPromoterUpdate,
		PermPromoterDelete,
		PermPromoterActivityCreate,
		PermPromoterActivityRead,
		PermPromoterActivityUpdate,
		PermPromoterActivityDelete,
	}
}

// GodownScopes lists godown and inventory permissions.
func GodownScopes() []string {
	return []string{
		PermGodownCreate,
		PermGodownRead,
		PermGodownUpdate,
		PermGodownDelete,
		PermInventoryCreate,
		PermInventoryRead,
		PermInventoryUpdate,
		PermInventoryDelete,
	}
}

// AllScopes returns every permission known to the platform.
func AllScopes() []string {
	all := make([]string, 0, 96)
	all = append(all, CoreScopes()...)
	all = append(all, DashboardScopes()...)
	all = append(all, CommercialScopes()...)
	all = append(all, AccountsScopes()...)
	all = append(all, FleetScopes()...)
	all = append(all, GodownScopes()...)
	return all
}

package shared

// Commercial permissions declared for RBAC: clients, projects, campaigns,
// vendors and the money flowing between them.
const (
	// Client permissions
	PermClientCreate = "client.create"
	PermClientRead   = "client.read"
	PermClientUpdate = "client.update"
	PermClientDelete = "client.delete"

	// Project permissions
	PermProjectCreate = "project.create"
	PermProjectRead   = "project.read"
	PermProjectUpdate = "project.update"
	PermProjectDelete = "project.delete"

	// Campaign permissions
	PermCampaignCreate = "campaign.create"
	PermCampaignRead   = "campaign.read"
	PermCampaignUpdate = "campaign.update"
	PermCampaignDelete = "campaign.delete"

	// Vendor permissions
	PermVendorCreate = "vendor.create"
	PermVendorRead   = "vendor.read"
	PermVendorUpdate = "vendor.update"
	PermVendorDelete = "vendor.delete"

	// Expense permissions
	PermExpenseCreate  = "expense.create"
	PermExpenseRead    = "expense.read"
	PermExpenseUpdate  = "expense.update"
	PermExpenseDelete  = "expense.delete"
	PermExpenseApprove = "expense.approve"

	// Report permissions
	PermReportCreate = "report.create"
	PermReportRead   = "report.read"
	PermReportUpdate = "report.update"
	PermReportDelete = "report.delete"

	// Invoice permissions
	PermInvoiceCreate  = "invoice.create"
	PermInvoiceRead    = "invoice.read"
	PermInvoiceUpdate  = "invoice.update"
	PermInvoiceDelete  = "invoice.delete"
	PermInvoiceApprove = "invoice.approve"

	// Payment permissions
	PermPaymentCreate = "payment.create"
	PermPaymentRead   = "payment.read"
	PermPaymentUpdate = "payment.update"
	PermPaymentDelete = "payment.delete"
)

// CommercialScopes lists client, project, campaign and vendor permissions.
func CommercialScopes() []string {
	return []string{
		PermClientCreate,
		PermClientRead,
		PermClientUpdate,
		PermClientDelete,
		PermProjectCreate,
		PermProjectRead,
		PermProjectUpdate,
		PermProjectDelete,
		PermCampaignCreate,
		PermCampaignRead,
		PermCampaignUpdate,
		PermCampaignDelete,
		PermVendorCreate,
		PermVendorRead,
		PermVendorUpdate,
		PermVendorDelete,
	}
}

// AccountsScopes lists expense, report, invoice and payment permissions.
func AccountsScopes() []string {
	return []string{
		PermExpenseCreate,
		PermExpenseRead,
		PermExpenseUpdate,
		PermExpenseDelete,
		PermExpenseApprove,
		PermReportCreate,
		PermReportRead,
		PermReportUpdate,
		PermReportDelete,
		PermInvoiceCreate,
		PermInvoiceRead,
		PermInvoiceUpdate,
		PermInvoiceDelete,
		PermInvoiceApprove,
		PermPaymentCreate,
		PermPaymentRead,
		PermPaymentUpdate,
		PermPaymentDelete,
	}
}

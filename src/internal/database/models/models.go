package models

// ControlPlaneModels returns the models stored in the shared control-plane
// database: tenant registry, users, and the webhook subsystem.
func ControlPlaneModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&WebhookSubscription{},
		&WebhookEvent{},
	}
}

// TenantModels returns the business models stored in each tenant's own
// database. The tenant resolver migrates these lazily on first resolution.
func TenantModels() []interface{} {
	return []interface{}{
		&Customer{},
		&Product{},
		&RFIDTag{},
		&StockMovement{},
		&Quotation{},
		&QuotationItem{},
		&Invoice{},
		&InvoiceItem{},
	}
}

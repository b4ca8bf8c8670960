package services

import (
	"context"

	"github.com/gemvault/gemvault/src/internal/cache"
	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/errors"
	"github.com/gemvault/gemvault/src/internal/tenant"
	"github.com/gemvault/gemvault/src/internal/webhook"
)

// DashboardService aggregates per-tenant summary figures, cached briefly
// because the queries fan out across several tables.
type DashboardService struct {
	resolver *tenant.Resolver
	store    *webhook.Store
	cache    *cache.CacheManager
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(resolver *tenant.Resolver, store *webhook.Store, cacheManager *cache.CacheManager) *DashboardService {
	return &DashboardService{
		resolver: resolver,
		store:    store,
		cache:    cacheManager,
	}
}

// Summary is the dashboard aggregate for one tenant
type Summary struct {
	Customers         int64   `json:"customers"`
	Products          int64   `json:"products"`
	StockUnits        int64   `json:"stock_units"`
	PendingQuotations int64   `json:"pending_quotations"`
	OpenInvoices      int64   `json:"open_invoices"`
	InvoicedTotal     float64 `json:"invoiced_total"`
	FailedWebhooks    int64   `json:"failed_webhooks"`
}

// GetSummary returns the tenant's dashboard summary
func (s *DashboardService) GetSummary(ctx context.Context, clientCode string) (*Summary, error) {
	if s.cache != nil {
		var cached Summary
		if err := s.cache.GetJSON(ctx, cache.DashboardKey(clientCode), &cached); err == nil {
			return &cached, nil
		}
	}

	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}

	if err := db.Model(&models.Customer{}).Where("deleted_at IS NULL").Count(&summary.Customers).Error; err != nil {
		return nil, errors.DatabaseError("failed to count customers", err)
	}
	if err := db.Model(&models.Product{}).Where("deleted_at IS NULL").Count(&summary.Products).Error; err != nil {
		return nil, errors.DatabaseError("failed to count products", err)
	}

	var stockUnits *int64
	if err := db.Model(&models.Product{}).Where("deleted_at IS NULL").
		Select("SUM(quantity)").Scan(&stockUnits).Error; err != nil {
		return nil, errors.DatabaseError("failed to sum stock", err)
	}
	if stockUnits != nil {
		summary.StockUnits = *stockUnits
	}

	if err := db.Model(&models.Quotation{}).
		Where("deleted_at IS NULL AND status IN ?", []string{models.QuotationStatusDraft, models.QuotationStatusSent}).
		Count(&summary.PendingQuotations).Error; err != nil {
		return nil, errors.DatabaseError("failed to count quotations", err)
	}

	if err := db.Model(&models.Invoice{}).
		Where("deleted_at IS NULL AND status = ?", models.InvoiceStatusIssued).
		Count(&summary.OpenInvoices).Error; err != nil {
		return nil, errors.DatabaseError("failed to count invoices", err)
	}

	var invoicedTotal *float64
	if err := db.Model(&models.Invoice{}).
		Where("deleted_at IS NULL AND status IN ?", []string{models.InvoiceStatusIssued, models.InvoiceStatusPaid}).
		Select("SUM(grand_total)").Scan(&invoicedTotal).Error; err != nil {
		return nil, errors.DatabaseError("failed to sum invoices", err)
	}
	if invoicedTotal != nil {
		summary.InvoicedTotal = *invoicedTotal
	}

	// Failed webhook deliveries live in the control plane
	_, failed, err := s.store.ListEvents(clientCode, webhook.EventHistoryFilter{Status: models.WebhookStatusFailed, Limit: 1})
	if err != nil {
		return nil, err
	}
	summary.FailedWebhooks = failed

	if s.cache != nil {
		s.cache.SetJSON(ctx, cache.DashboardKey(clientCode), summary, cache.TTLShort)
	}

	return summary, nil
}

package server

import (
	"github.com/gemvault/gemvault/src/internal/api/handlers"
	"github.com/gemvault/gemvault/src/internal/auth"
	"github.com/gemvault/gemvault/src/internal/services"
)

// setupRoutes wires all HTTP routes
func (s *Server) setupRoutes() {
	version := s.config.GetString("version")

	healthHandler := handlers.NewHealthHandler(s.db, version)
	healthHandler.RegisterRoutes(s.echo)

	api := s.echo.Group("/api/v1")

	// Authentication
	authHandler := handlers.NewAuthHandler(s.db, s.auth)
	authHandler.RegisterRoutes(api)

	// Webhook subscriptions and delivery history
	webhookHandler := handlers.NewWebhookHandler(s.config, s.store, s.recorder)
	webhookHandler.RegisterRoutes(api)

	// Domain services, all scoped by the authenticated client code
	customerHandler := handlers.NewCustomerHandler(
		services.NewCustomerService(s.resolver, s.dispatcher))
	customerHandler.RegisterRoutes(api)

	inventoryHandler := handlers.NewInventoryHandler(
		services.NewInventoryService(s.resolver, s.dispatcher))
	inventoryHandler.RegisterRoutes(api)

	quotationHandler := handlers.NewQuotationHandler(
		services.NewQuotationService(s.resolver, s.dispatcher))
	quotationHandler.RegisterRoutes(api)

	invoiceHandler := handlers.NewInvoiceHandler(
		services.NewInvoiceService(s.resolver, s.dispatcher))
	invoiceHandler.RegisterRoutes(api)

	dashboardHandler := handlers.NewDashboardHandler(
		services.NewDashboardService(s.resolver, s.store, s.cache))
	dashboardHandler.RegisterRoutes(api)

	// Tenant administration requires admin privileges
	authMiddleware := auth.NewMiddleware(s.auth)
	admin := api.Group("", authMiddleware.RequireAdmin())
	tenantHandler := handlers.NewTenantHandler(s.db, s.resolver)
	tenantHandler.RegisterRoutes(admin)
}

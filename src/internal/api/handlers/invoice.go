package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gemvault/gemvault/src/internal/services"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	service *services.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(service *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Create creates an invoice directly
func (h *InvoiceHandler) Create(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var input services.InvoiceInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	invoice, err := h.service.Create(code, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, invoice)
}

// Get returns one invoice with its items
func (h *InvoiceHandler) Get(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	invoice, err := h.service.Get(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, invoice)
}

// List returns invoices with optional status filter
func (h *InvoiceHandler) List(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	invoices, total, err := h.service.List(code, c.QueryParam("status"), limit, offset)
	if err != nil {
		return err
	}

	return listResponse(c, "invoices", invoices, total, limit, offset)
}

// Issue marks a draft invoice as issued
func (h *InvoiceHandler) Issue(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	invoice, err := h.service.Issue(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, invoice)
}

// MarkPaid marks an issued invoice as paid
func (h *InvoiceHandler) MarkPaid(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	invoice, err := h.service.MarkPaid(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, invoice)
}

// Cancel cancels a draft or issued invoice
func (h *InvoiceHandler) Cancel(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	invoice, err := h.service.Cancel(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, invoice)
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/invoices", h.Create)
	g.GET("/invoices", h.List)
	g.GET("/invoices/:id", h.Get)
	g.POST("/invoices/:id/issue", h.Issue)
	g.POST("/invoices/:id/pay", h.MarkPaid)
	g.POST("/invoices/:id/cancel", h.Cancel)
}

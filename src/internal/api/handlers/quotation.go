package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gemvault/gemvault/src/internal/services"
)

// QuotationHandler handles quotation endpoints
type QuotationHandler struct {
	service *services.QuotationService
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(service *services.QuotationService) *QuotationHandler {
	return &QuotationHandler{service: service}
}

// Create creates a quotation
func (h *QuotationHandler) Create(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var input services.QuotationInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	quotation, err := h.service.Create(code, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, quotation)
}

// Get returns one quotation with its items
func (h *QuotationHandler) Get(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	quotation, err := h.service.Get(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quotation)
}

// List returns quotations with optional status filter
func (h *QuotationHandler) List(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	quotations, total, err := h.service.List(code, c.QueryParam("status"), limit, offset)
	if err != nil {
		return err
	}

	return listResponse(c, "quotations", quotations, total, limit, offset)
}

// UpdateStatus moves a quotation through its lifecycle
func (h *QuotationHandler) UpdateStatus(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	quotation, err := h.service.UpdateStatus(code, id, req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quotation)
}

// Convert creates an invoice from an accepted quotation
func (h *QuotationHandler) Convert(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	invoice, err := h.service.ConvertToInvoice(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, invoice)
}

// RegisterRoutes registers quotation routes
func (h *QuotationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/quotations", h.Create)
	g.GET("/quotations", h.List)
	g.GET("/quotations/:id", h.Get)
	g.PUT("/quotations/:id/status", h.UpdateStatus)
	g.POST("/quotations/:id/convert", h.Convert)
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gemvault/gemvault/src/internal/services"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	service *services.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(service *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// Create creates a customer
func (h *CustomerHandler) Create(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var input services.CustomerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	customer, err := h.service.Create(code, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, customer)
}

// Get returns one customer
func (h *CustomerHandler) Get(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	customer, err := h.service.Get(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, customer)
}

// List returns customers with optional search
func (h *CustomerHandler) List(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	customers, total, err := h.service.List(code, c.QueryParam("search"), limit, offset)
	if err != nil {
		return err
	}

	return listResponse(c, "customers", customers, total, limit, offset)
}

// Update updates a customer
func (h *CustomerHandler) Update(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	var input services.CustomerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	customer, err := h.service.Update(code, id, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, customer)
}

// Delete soft-deletes a customer
func (h *CustomerHandler) Delete(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(code, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// RegisterRoutes registers customer routes
func (h *CustomerHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/customers", h.Create)
	g.GET("/customers", h.List)
	g.GET("/customers/:id", h.Get)
	g.PUT("/customers/:id", h.Update)
	g.DELETE("/customers/:id", h.Delete)
}

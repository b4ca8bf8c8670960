package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gemvault/gemvault/src/internal/services"
)

// InventoryHandler handles product, stock movement, and RFID endpoints
type InventoryHandler struct {
	service *services.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// CreateProduct creates a product
func (h *InventoryHandler) CreateProduct(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var input services.ProductInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	product, err := h.service.CreateProduct(code, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, product)
}

// GetProduct returns one product
func (h *InventoryHandler) GetProduct(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	product, err := h.service.GetProduct(code, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

// ListProducts returns products with optional category and metal filters
func (h *InventoryHandler) ListProducts(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	products, total, err := h.service.ListProducts(code,
		c.QueryParam("category"), c.QueryParam("metal_type"), limit, offset)
	if err != nil {
		return err
	}

	return listResponse(c, "products", products, total, limit, offset)
}

// UpdateProduct updates a product
func (h *InventoryHandler) UpdateProduct(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	var input services.ProductInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	product, err := h.service.UpdateProduct(code, id, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

// DeleteProduct soft-deletes a product
func (h *InventoryHandler) DeleteProduct(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteProduct(code, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// RecordMovement records a stock movement and adjusts product quantity
func (h *InventoryHandler) RecordMovement(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var input services.MovementInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	movement, err := h.service.RecordMovement(code, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, movement)
}

// ListMovements returns a product's stock movement ledger
func (h *InventoryHandler) ListMovements(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(c.QueryParam("product_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product_id")
	}

	limit, offset := pagination(c)
	movements, total, err := h.service.ListMovements(code, productID, limit, offset)
	if err != nil {
		return err
	}

	return listResponse(c, "movements", movements, total, limit, offset)
}

// RegisterTag registers an RFID tag, optionally assigned to a product
func (h *InventoryHandler) RegisterTag(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var req struct {
		TagUID    string     `json:"tag_uid" validate:"required"`
		ProductID *uuid.UUID `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.service.RegisterTag(code, req.TagUID, req.ProductID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, tag)
}

// Scan processes a batch of scanned tag UIDs
func (h *InventoryHandler) Scan(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var req struct {
		TagUIDs []string `json:"tag_uids" validate:"required,min=1"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Scan(code, req.TagUIDs)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/products", h.CreateProduct)
	g.GET("/products", h.ListProducts)
	g.GET("/products/:id", h.GetProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)

	g.POST("/stock/movements", h.RecordMovement)
	g.GET("/stock/movements", h.ListMovements)

	g.POST("/rfid/tags", h.RegisterTag)
	g.POST("/rfid/scan", h.Scan)
}

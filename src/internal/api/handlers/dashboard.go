package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gemvault/gemvault/src/internal/services"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary returns the tenant's dashboard aggregate
func (h *DashboardHandler) Summary(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	summary, err := h.service.GetSummary(c.Request().Context(), code)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard/summary", h.Summary)
}

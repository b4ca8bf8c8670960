package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/auth"
	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/tenant"
)

// TenantHandler handles tenant and user administration endpoints
type TenantHandler struct {
	db       *gorm.DB
	resolver *tenant.Resolver
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(db *gorm.DB, resolver *tenant.Resolver) *TenantHandler {
	return &TenantHandler{
		db:       db,
		resolver: resolver,
	}
}

// Create registers a tenant and provisions its database
func (h *TenantHandler) Create(c echo.Context) error {
	var req struct {
		ClientCode string `json:"client_code" validate:"required,min=2,max=32"`
		Name       string `json:"name" validate:"required"`
		DBName     string `json:"db_name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t := &models.Tenant{
		ClientCode: strings.TrimSpace(req.ClientCode),
		Name:       strings.TrimSpace(req.Name),
		DBName:     strings.TrimSpace(req.DBName),
		IsActive:   true,
	}
	if err := h.db.Create(t).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			return echo.NewHTTPError(http.StatusConflict, "Client code already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create tenant")
	}

	// Open and migrate the tenant database right away so the first request
	// doesn't pay the provisioning cost
	if _, err := h.resolver.Resolve(t.ClientCode); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Tenant created but database provisioning failed")
	}

	return c.JSON(http.StatusCreated, t)
}

// List returns all registered tenants
func (h *TenantHandler) List(c echo.Context) error {
	var tenants []models.Tenant
	if err := h.db.Order("created_at DESC").Find(&tenants).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tenants")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"total":   len(tenants),
	})
}

// Deactivate disables a tenant without deleting its data
func (h *TenantHandler) Deactivate(c echo.Context) error {
	code := c.Param("client_code")

	result := h.db.Model(&models.Tenant{}).
		Where("client_code = ?", code).
		Update("is_active", false)
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to deactivate tenant")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateUser creates a user bound to a tenant
func (h *TenantHandler) CreateUser(c echo.Context) error {
	var req struct {
		ClientCode string `json:"client_code" validate:"required"`
		Username   string `json:"username" validate:"required,min=3,max=64"`
		Email      string `json:"email" validate:"omitempty,email"`
		Password   string `json:"password" validate:"required,min=8"`
		IsAdmin    bool   `json:"is_admin"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var t models.Tenant
	if err := h.db.Where("client_code = ? AND is_active = ?", req.ClientCode, true).First(&t).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		ClientCode:   req.ClientCode,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
		IsActive:     true,
	}
	if err := h.db.Create(user).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	return c.JSON(http.StatusCreated, user)
}

// RegisterRoutes registers tenant administration routes
func (h *TenantHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/admin/tenants", h.Create)
	g.GET("/admin/tenants", h.List)
	g.POST("/admin/tenants/:client_code/deactivate", h.Deactivate)
	g.POST("/admin/users", h.CreateUser)
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/auth"
	"github.com/gemvault/gemvault/src/internal/database/models"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	db      *gorm.DB
	service *auth.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, service *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		db:      db,
		service: service,
	}
}

// Login authenticates a user and returns a token pair
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.db.Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to look up user")
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	// The tenant must still be active for its users to log in
	var tenant models.Tenant
	if err := h.db.Where("client_code = ? AND is_active = ?", user.ClientCode, true).First(&tenant).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant is not active")
	}

	tokens, err := h.service.GenerateTokenPair(&user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue tokens")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"token_type":    "Bearer",
		"expires_at":    tokens.ExpiresAt,
		"user": map[string]interface{}{
			"id":          user.ID,
			"username":    user.Username,
			"client_code": user.ClientCode,
			"is_admin":    user.IsAdmin,
		},
	})
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.GET("/auth/me", h.Me)
}

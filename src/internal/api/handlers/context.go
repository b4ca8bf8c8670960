package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// clientCode extracts the authenticated tenant's client code from context
func clientCode(c echo.Context) (string, error) {
	code, ok := c.Get("client_code").(string)
	if !ok || code == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return code, nil
}

// pathID parses the :id route parameter as a UUID
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}

// pagination reads limit/offset query parameters with sane bounds
func pagination(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// listResponse is the standard paginated list envelope
func listResponse(c echo.Context, key string, items interface{}, total int64, limit, offset int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		key:      items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

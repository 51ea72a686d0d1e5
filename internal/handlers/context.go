package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/services"
)

// actorIDFromContext returns the authenticated actor ID placed in the
// context by the auth middleware, or 0 when unauthenticated. The ID is
// read here once and passed explicitly to every service call; nothing
// below the handler layer touches request-scoped state.
func actorIDFromContext(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok && id != 0 {
		return id
	}
	if claims, ok := c.Get("user").(*models.JwtCustomClaims); ok {
		return claims.UserID
	}
	return 0
}

// isAdmin reports whether the authenticated actor carries the admin role.
func isAdmin(c echo.Context) bool {
	if role, ok := c.Get("userRole").(string); ok {
		return role == "admin"
	}
	if claims, ok := c.Get("user").(*models.JwtCustomClaims); ok {
		return claims.Role == "admin"
	}
	return false
}

// serviceError maps the service error taxonomy onto HTTP status codes.
func serviceError(err error) error {
	switch {
	case services.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPermission):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case services.IsTransient(err):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable, retry the request")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

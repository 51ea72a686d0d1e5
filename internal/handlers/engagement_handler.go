package handlers

import (
	"net/http"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// EngagementHandler handles HTTP requests for likes, follows and
// memberships through the engagement ledger.
type EngagementHandler struct {
	ledger *services.Ledger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(ledger *services.Ledger) *EngagementHandler {
	return &EngagementHandler{ledger: ledger}
}

// RegisterEngagementRoutes registers engagement routes
func (h *EngagementHandler) RegisterEngagementRoutes(g *echo.Group) {
	g.POST("/engagements", h.ToggleOn)
	g.DELETE("/engagements", h.ToggleOff)
	g.GET("/engagements/count", h.Count)
	g.GET("/engagements/status", h.Status)
}

// ToggleOn creates the engagement if absent. Repeating the request is not
// an error: the response carries changed=false.
func (h *EngagementHandler) ToggleOn(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	changed, err := h.ledger.ToggleOn(c.Request().Context(), actorID, req.TargetType, req.TargetID, req.Kind)
	if err != nil {
		return serviceError(err)
	}

	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"changed": changed})
}

// ToggleOff deletes the engagement if present.
func (h *EngagementHandler) ToggleOff(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	changed, err := h.ledger.ToggleOff(c.Request().Context(), actorID, req.TargetType, req.TargetID, req.Kind)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": changed})
}

// Count returns the number of engagements of a kind on a target.
func (h *EngagementHandler) Count(c echo.Context) error {
	targetType := c.QueryParam("target_type")
	targetID := c.QueryParam("target_id")
	kind := c.QueryParam("kind")

	count, err := h.ledger.Count(c.Request().Context(), targetType, targetID, kind)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"target_type": targetType,
		"target_id":   targetID,
		"kind":        kind,
		"count":       count,
	})
}

// Status reports whether the authenticated actor has the engagement.
func (h *EngagementHandler) Status(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetType := c.QueryParam("target_type")
	targetID := c.QueryParam("target_id")
	kind := c.QueryParam("kind")

	exists, err := h.ledger.Exists(c.Request().Context(), actorID, targetType, targetID, kind)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"target_type": targetType,
		"target_id":   targetID,
		"kind":        kind,
		"engaged":     exists,
	})
}

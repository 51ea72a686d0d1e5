package handlers

import (
	"net/http"
	"strconv"

	"github.com/campuslink/backend/internal/queue"
	"github.com/campuslink/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
	queue         queue.Queue
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService, q queue.Queue) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, queue: q}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.List)
	g.GET("/notifications/grouped", h.Grouped)
	g.GET("/notifications/unread-count", h.UnreadCount)
	g.PUT("/notifications/:id/read", h.MarkRead)
	g.PUT("/notifications/read-all", h.MarkAllRead)
	g.DELETE("/notifications/:id", h.Delete)
	g.GET("/notifications/dead-letters", h.DeadLetters)
	g.POST("/notifications/dead-letters/:id/redrive", h.Redrive)
}

// List returns one cursor-paginated page of the caller's notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, next, err := h.notifications.List(c.Request().Context(), actorID, c.QueryParam("cursor"), limit)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": items,
			"next_cursor":   next,
		},
	})
}

// Grouped returns notifications bucketed by time period, with the unread
// count.
func (h *NotificationHandler) Grouped(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	today, yesterday, thisWeek, older, err := h.notifications.Grouped(c.Request().Context(), actorID)
	if err != nil {
		return serviceError(err)
	}
	unreadCount, _ := h.notifications.UnreadCount(c.Request().Context(), actorID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": echo.Map{
				"today":     today,
				"yesterday": yesterday,
				"thisWeek":  thisWeek,
				"older":     older,
			},
			"unreadCount": unreadCount,
		},
	})
}

// UnreadCount returns the unread notification count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notifications.UnreadCount(c.Request().Context(), actorID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notifications.MarkRead(c.Request().Context(), actorID, uint(notifID)); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllRead marks all of the caller's notifications as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notifications.MarkAllRead(c.Request().Context(), actorID); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes one of the caller's notifications.
func (h *NotificationHandler) Delete(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notifications.Delete(c.Request().Context(), actorID, uint(notifID)); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeadLetters lists dead-lettered notification jobs. Admin only.
func (h *NotificationHandler) DeadLetters(c echo.Context) error {
	if !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Admin role required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	jobs, err := h.queue.DeadLetters(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"jobs": jobs}})
}

// Redrive re-enqueues a dead-lettered job. Admin only.
func (h *NotificationHandler) Redrive(c echo.Context) error {
	if !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Admin role required")
	}

	if err := h.queue.Redrive(c.Request().Context(), c.Param("id")); err != nil {
		if err == queue.ErrJobNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Dead-lettered job not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

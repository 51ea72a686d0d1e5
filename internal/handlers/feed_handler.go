package handlers

import (
	"net/http"
	"strconv"

	"github.com/campuslink/backend/internal/pagination"
	"github.com/campuslink/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the cursor-paginated recent-posts feed.
type FeedHandler struct {
	posts repositories.PostRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(posts repositories.PostRepository) *FeedHandler {
	return &FeedHandler{posts: posts}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns one page of recent posts, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	cur, err := pagination.Decode(c.QueryParam("cursor"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	limit = pagination.Clamp(limit)

	posts, next, err := h.posts.FeedPage(c.Request().Context(), cur, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"posts":       posts,
		"next_cursor": next,
	})
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/pagination"
	"github.com/campuslink/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.ListComments)
}

// CreateComment handles commenting on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	actorID := actorIDFromContext(c)
	if actorID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.Create(c.Request().Context(), actorID, c.Param("post_id"), req.Content)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// ListComments returns one cursor-paginated page of a post's comments,
// oldest first by default.
func (h *CommentHandler) ListComments(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	dir := pagination.Direction(c.QueryParam("direction"))

	items, next, err := h.comments.ListByPost(
		c.Request().Context(), c.Param("post_id"), c.QueryParam("cursor"), dir, limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"comments":    items,
		"next_cursor": next,
	})
}

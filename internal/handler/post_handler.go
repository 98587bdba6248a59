package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"forumhub/internal/errors"
	"forumhub/internal/middleware"
	"forumhub/internal/service"
)

// PostHandler handles post endpoints.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRequest represents a post create or update.
type PostRequest struct {
	Title    string    `json:"title" validate:"required,min=5,max=100"`
	Content  string    `json:"content" validate:"required,min=10,max=2000"`
	CourseID uuid.UUID `json:"course_id" validate:"required"`
}

func (r PostRequest) input() service.PostInput {
	return service.PostInput{Title: r.Title, Content: r.Content, CourseID: r.CourseID}
}

// ListPosts godoc
// @Summary List active posts, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} service.PostPage
// @Router /posts [get]
func (h *PostHandler) ListPosts(c echo.Context) error {
	page, err := h.postService.ListActive(c.Request().Context(), pageParams(c))
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, page)
}

// SearchPosts godoc
// @Summary Search active posts by title and/or content
// @Tags posts
// @Produce json
// @Param title query string false "Title contains"
// @Param content query string false "Content contains"
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} service.PostPage
// @Failure 400 {object} errors.ErrorResponse
// @Router /posts/search [get]
func (h *PostHandler) SearchPosts(c echo.Context) error {
	page, err := h.postService.Search(c.Request().Context(),
		c.QueryParam("title"), c.QueryParam("content"), pageParams(c))
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetPost godoc
// @Summary Get an active post with comments and like count
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} service.PostDetails
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.postService.GetActive(c.Request().Context(), id)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, post)
}

// ListByUser godoc
// @Summary List a user's active posts
// @Tags posts
// @Produce json
// @Param userId path string true "User ID"
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} service.PostPage
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/user/{userId} [get]
func (h *PostHandler) ListByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	page, err := h.postService.ListByUser(c.Request().Context(), userID, pageParams(c))
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListByCourse godoc
// @Summary List a course's active posts
// @Tags posts
// @Produce json
// @Param courseId path string true "Course ID"
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} service.PostPage
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/course/{courseId} [get]
func (h *PostHandler) ListByCourse(c echo.Context) error {
	courseID, err := pathID(c, "courseId")
	if err != nil {
		return err
	}
	page, err := h.postService.ListByCourse(c.Request().Context(), courseID, pageParams(c))
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, page)
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostRequest true "Post"
// @Success 201 {object} service.PostSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts [post]
func (h *PostHandler) CreatePost(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	var req PostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Create(c.Request().Context(), actor, req.input())
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary Update a post (owner or admin)
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body PostRequest true "Post"
// @Success 200 {object} service.PostSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req PostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Update(c.Request().Context(), actor, id, req.input())
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Soft-delete a post (owner or admin)
// @Tags posts
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.postService.Deactivate(c.Request().Context(), actor, id); err != nil {
		return errors.ToEcho(err)
	}
	return c.NoContent(http.StatusNoContent)
}

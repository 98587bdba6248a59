package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"forumhub/internal/errors"
	"forumhub/internal/middleware"
	"forumhub/internal/service"
)

// CommentHandler handles comment endpoints nested under a post.
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CommentRequest represents a comment create or edit.
type CommentRequest struct {
	Content string `json:"content" validate:"required,min=5,max=100"`
}

// ListComments godoc
// @Summary List comments of an active post
// @Tags comments
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {array} service.CommentView
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id}/comments [get]
func (h *CommentHandler) ListComments(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.commentService.ListByPost(c.Request().Context(), postID)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, comments)
}

// AddComment godoc
// @Summary Comment on an active post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} service.CommentView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id}/comments [post]
func (h *CommentHandler) AddComment(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.commentService.Add(c.Request().Context(), actor, postID, req.Content)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// UpdateComment godoc
// @Summary Edit a comment (comment owner or admin)
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} service.CommentView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id}/comments/{commentId} [put]
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.commentService.Update(c.Request().Context(), actor, postID, commentID, req.Content)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Delete a comment (comment owner or admin)
// @Tags comments
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id}/comments/{commentId} [delete]
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return err
	}

	if err := h.commentService.Delete(c.Request().Context(), actor, postID, commentID); err != nil {
		return errors.ToEcho(err)
	}
	return c.NoContent(http.StatusNoContent)
}

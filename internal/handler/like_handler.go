package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"forumhub/internal/errors"
	"forumhub/internal/middleware"
	"forumhub/internal/service"
)

// LikeHandler handles like and unlike.
type LikeHandler struct {
	likeService service.LikeService
}

// NewLikeHandler creates a new like handler.
func NewLikeHandler(likeService service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// LikeResponse carries the post's like count after the operation.
type LikeResponse struct {
	LikesCount int64 `json:"likes_count"`
}

// Like godoc
// @Summary Like an active post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} LikeResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /posts/{id}/like [post]
func (h *LikeHandler) Like(c echo.Context) error {
	return h.apply(c, h.likeService.Like)
}

// Unlike godoc
// @Summary Remove a like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} LikeResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /posts/{id}/like [delete]
func (h *LikeHandler) Unlike(c echo.Context) error {
	return h.apply(c, h.likeService.Unlike)
}

func (h *LikeHandler) apply(c echo.Context, op func(ctx context.Context, userID, postID uuid.UUID) (int64, error)) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	count, err := op(c.Request().Context(), actor.ID, postID)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, LikeResponse{LikesCount: count})
}

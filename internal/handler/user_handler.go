package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"forumhub/internal/errors"
	"forumhub/internal/middleware"
	"forumhub/internal/model"
	"forumhub/internal/service"
)

// UserHandler handles user administration endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateUserRequest represents an admin profile update. Omitted fields are kept.
type UpdateUserRequest struct {
	Role   *model.Role `json:"role" validate:"omitnil,oneof=USER ADMIN"`
	Active *bool       `json:"active"`
}

// UpdateUser godoc
// @Summary Update a user's role or active flag (admin only)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Profile fields"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), actor, id, service.UpdateProfileInput{
		Role:   req.Role,
		Active: req.Active,
	})
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, user)
}

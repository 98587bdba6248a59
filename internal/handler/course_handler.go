package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"forumhub/internal/errors"
	"forumhub/internal/middleware"
	"forumhub/internal/service"
)

// CourseHandler handles course endpoints.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// CourseRequest represents a course create or rename.
type CourseRequest struct {
	Name string `json:"name" validate:"required,min=5,max=100"`
}

// ListCourses godoc
// @Summary List courses
// @Tags courses
// @Produce json
// @Success 200 {array} model.Course
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c echo.Context) error {
	courses, err := h.courseService.List(c.Request().Context())
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, courses)
}

// GetCourse godoc
// @Summary Get a course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} model.Course
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.courseService.Get(c.Request().Context(), id)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, course)
}

// CreateCourse godoc
// @Summary Create a course (admin only)
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CourseRequest true "Course"
// @Success 201 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	var req CourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := h.courseService.Create(c.Request().Context(), actor, req.Name)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusCreated, course)
}

// UpdateCourse godoc
// @Summary Rename a course (admin only)
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body CourseRequest true "Course"
// @Success 200 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return errors.ToEcho(err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req CourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := h.courseService.Update(c.Request().Context(), actor, id, req.Name)
	if err != nil {
		return errors.ToEcho(err)
	}
	return c.JSON(http.StatusOK, course)
}

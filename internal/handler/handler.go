package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"forumhub/internal/errors"
	"forumhub/internal/repository"
)

// bind decodes and validates the request into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(dst); err != nil {
		return errors.ToEcho(err)
	}
	return nil
}

// pathID parses the named path parameter as a UUID.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ToEcho(errors.NewValidationError(errors.FieldError{
			Field:   name,
			Rule:    "uuid",
			Message: name + " must be a valid UUID",
		}))
	}
	return id, nil
}

// pageParams reads ?page= and ?size=. Missing or malformed values use defaults.
func pageParams(c echo.Context) repository.Page {
	number, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return repository.NewPage(number, size)
}

package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrInvalidSignature is returned when a token is tampered with or malformed.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when a token with a valid signature is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrNoAuthenticatedPrincipal is returned when a request carries no usable identity.
	ErrNoAuthenticatedPrincipal = errors.New("no authenticated principal")
	// ErrPrincipalInconsistency is returned when a valid token names a user the store does not know.
	ErrPrincipalInconsistency = errors.New("principal inconsistency")
	// ErrUnauthorizedAction is returned when an ownership or role check fails.
	ErrUnauthorizedAction = errors.New("unauthorized action")
	// ErrResourceNotFound is returned when a resource is absent or logically deleted.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrAlreadyLiked is returned when the user already liked the post.
	ErrAlreadyLiked = errors.New("post already liked")
	// ErrLikeNotFound is returned when removing a like that does not exist.
	ErrLikeNotFound = errors.New("like not found")
	// ErrAlreadyExists is returned for duplicate emails or course names.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive is returned when a deactivated user tries to log in.
	ErrUserInactive = errors.New("user is inactive")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	Field    string
	Value    any
}

// NotFound builds a NotFoundError.
func NotFound(resource, field string, value any) *NotFoundError {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Resource, e.Field, e.Value)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrResourceNotFound }

// AlreadyExistsError names the conflicting resource.
type AlreadyExistsError struct {
	Resource string
	Field    string
	Value    any
}

// AlreadyExists builds an AlreadyExistsError.
func AlreadyExists(resource, field string, value any) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, Field: field, Value: value}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists with %s: %v", e.Resource, e.Field, e.Value)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// UnauthorizedActionError carries the diagnostics of a denied authorization decision.
// It is logged, never rendered to the caller.
type UnauthorizedActionError struct {
	Action       string
	ActorEmail   string
	ResourceType string
	ResourceID   string
	Reason       string
}

func (e *UnauthorizedActionError) Error() string {
	return fmt.Sprintf("user %s may not %s %s %s: %s",
		e.ActorEmail, e.Action, e.ResourceType, e.ResourceID, e.Reason)
}

func (e *UnauthorizedActionError) Is(target error) bool { return target == ErrUnauthorizedAction }

// FieldError describes one failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError aggregates every failing field of a request.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError from field errors.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []FieldError
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Messages are fixed per kind so that
// internal diagnostics carried by typed errors do not leak.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	var notFoundErr *NotFoundError

	switch {
	case errors.As(err, &validationErr):
		httpErr := NewHTTPError(http.StatusBadRequest, "validation failed", "VALIDATION_FAILED")
		httpErr.Fields = validationErr.Fields
		return httpErr
	case errors.Is(err, ErrInvalidSignature):
		return NewHTTPError(http.StatusUnauthorized, "invalid token", "INVALID_TOKEN")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, "token expired", "TOKEN_EXPIRED")
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserInactive):
		return NewHTTPError(http.StatusUnauthorized, "invalid email or password", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrPrincipalInconsistency):
		return NewHTTPError(http.StatusUnauthorized, "authentication failed", "AUTHENTICATION_FAILED")
	case errors.Is(err, ErrNoAuthenticatedPrincipal):
		return NewHTTPError(http.StatusForbidden, "access denied", "ACCESS_DENIED")
	case errors.Is(err, ErrUnauthorizedAction):
		return NewHTTPError(http.StatusForbidden, "you are not allowed to perform this action", "UNAUTHORIZED_ACTION")
	case errors.As(err, &notFoundErr):
		return NewHTTPError(http.StatusNotFound, notFoundErr.Resource+" not found", "RESOURCE_NOT_FOUND")
	case errors.Is(err, ErrResourceNotFound):
		return NewHTTPError(http.StatusNotFound, "resource not found", "RESOURCE_NOT_FOUND")
	case errors.Is(err, ErrLikeNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "LIKE_NOT_FOUND")
	case errors.Is(err, ErrAlreadyLiked):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_LIKED")
	case errors.Is(err, ErrAlreadyExists):
		return NewHTTPError(http.StatusConflict, "resource already exists", "ALREADY_EXISTS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// ToEcho maps err and wraps it for echo's error handler. The original error stays
// available as the internal error for logging.
func ToEcho(err error) error {
	httpErr := MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

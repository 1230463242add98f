package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrPostNotFound is returned when a post is not found.
	ErrPostNotFound = errors.New("post not found")
	// ErrMissingFields is returned when a required field is absent.
	ErrMissingFields = errors.New("missing required fields")
	// ErrSlugTaken is returned when a post slug is already in use.
	ErrSlugTaken = errors.New("slug already exists")
	// ErrAuthorNotFound is returned when a post references an unknown author.
	ErrAuthorNotFound = errors.New("author not found")
	// ErrUnauthorized is returned when a request lacks a valid admin session.
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
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
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Slug conflicts map to
// 400 rather than 409: clients treat a duplicate slug like any other invalid
// input and must not blindly retry the create.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrPostNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "POST_NOT_FOUND")
	case errors.Is(err, ErrMissingFields):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MISSING_FIELDS")
	case errors.Is(err, ErrSlugTaken):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "SLUG_TAKEN")
	case errors.Is(err, ErrAuthorNotFound):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "AUTHOR_NOT_FOUND")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

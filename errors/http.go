package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates a domain error into the status code returned by the REST surface.
// Unknown errors are reported as internal failures.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInactiveUser):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrInvalidUser),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidPagination):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

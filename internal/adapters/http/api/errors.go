package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/rally/internal/adapters/repository"
)

// wrap annotates err with the handler operation for log and response context.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// statusFor translates storage and service errors to an HTTP status with a
// machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError maps err through statusFor and writes the response.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, wrap(op, err))
}

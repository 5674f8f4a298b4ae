package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/leaderforge/leaderforge/internal/errs"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// NewKind annotates a sentinel kind with an operation name.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates err with an operation name and a sentinel kind.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}

// statusFromError maps the service error taxonomy onto HTTP status codes.
// Anything unclassified counts as an internal failure.
func statusFromError(err error) (int, string) {
	switch {
	case errs.IsInvalidArgument(err):
		return http.StatusBadRequest, "bad_request"
	case errs.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errs.IsUnavailable(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError classifies err and writes the matching response.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFromError(err)
	writeError(w, status, code, err)
}

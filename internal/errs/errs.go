// Package errs defines the error taxonomy shared by the core components.
//
// Four kinds cover every user-visible failure: ErrInvalidArgument and
// ErrNotFound are surfaced verbatim and never retried, ErrUnavailable is
// retryable by the caller, and ErrInternal marks an invariant violation.
// Callers classify with errors.Is against the sentinels.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap these so errors.Is works across package boundaries.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal")
)

// NewKind tags a sentinel kind with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// Wrap annotates err with the operation that observed it, preserving its kind.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind attaches both a kind and a cause to an operation. The kind is
// matchable with errors.Is; the cause is carried in the message.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}

// IsInvalidArgument reports whether err carries the InvalidArgument kind.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// IsNotFound reports whether err carries the NotFound kind.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnavailable reports whether err carries the Unavailable kind.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsInternal reports whether err carries the Internal kind.
func IsInternal(err error) bool { return errors.Is(err, ErrInternal) }

package provd

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks failures worth retrying later: transport errors,
	// 5xx responses and an open circuit.
	ErrUnavailable = errors.New("provd unavailable")

	ErrNotFound = errors.New("provd resource not found")
)

// StatusError is a non-2xx answer from provd.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provd %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code >= 500:
		return ErrUnavailable
	case e.Code == 404:
		return ErrNotFound
	default:
		return nil
	}
}

// IsRetryable reports whether err is a transient provd failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

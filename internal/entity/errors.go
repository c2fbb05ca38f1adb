package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers transport, timeout, TLS and upstream status failures.
	ErrNetwork = errors.New("network error")
	// ErrParse is returned when the expected document or caption structure is absent.
	ErrParse = errors.New("parse error")
	// ErrMismatch is returned when link and caption counts differ.
	ErrMismatch = errors.New("mismatch between number of links and versions found")
	// ErrValidation is returned for an out-of-range day or a malformed year.
	ErrValidation = errors.New("validation error")
	// ErrUnknownMonth is returned in strict mode for a month outside the table.
	ErrUnknownMonth = errors.New("unrecognized month")

	// ErrNoRelease is returned when a single release was requested but the
	// page announced none.
	ErrNoRelease = fmt.Errorf("%w: no release announcement found", ErrParse)
)

// Kind returns a short label for the error family of err, used for metrics
// and logs. It returns "unknown" for errors outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrMismatch):
		return "mismatch"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnknownMonth):
		return "unknown_month"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no ad request exists with the given id.
	ErrNotFound = errors.New("ad request not found")

	// ErrInsufficientPoints is returned when the owner's balance cannot
	// cover a charge, at request time or at promotion time.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrInvalidTransition is returned when an operation is attempted on a
	// request whose status does not allow it, e.g. cancelling a request
	// that already expired or was cancelled.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationError reports a rejected input value. No state is created when
// validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateRequestedDays checks the requested duration against the published
// limits.
func ValidateRequestedDays(days int) error {
	if days < MinDaysPerAd || days > MaxDaysPerAd {
		return &ValidationError{
			Field:  "requested_days",
			Reason: fmt.Sprintf("must be between %d and %d", MinDaysPerAd, MaxDaysPerAd),
		}
	}
	return nil
}

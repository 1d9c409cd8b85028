package domain

import "errors"

// Domain errors
var (
	// Event errors
	ErrEventNotFound      = errors.New("event not found")
	ErrNoTicketsAvailable = errors.New("no tickets available for this event")
	ErrConcurrencyConflict = errors.New("event was modified by another request, please retry")
	ErrInvalidEventStatus = errors.New("invalid event status")

	// ErrNegativeInventory indicates the inventory counter would go below
	// zero. It is an internal consistency violation, not a business outcome,
	// and maps to an opaque 500.
	ErrNegativeInventory = errors.New("event has negative tickets available")

	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("this email is already in use")
	ErrLoginFailed    = errors.New("login failed, please try again later")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrNoTicketsAvailable) ||
		errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrDuplicateEmail)
}

// IsValidationError checks if the error carries field-level validation
// failures.
func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}

// IsUnauthorizedError checks if the error is an authentication failure
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrLoginFailed) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired)
}

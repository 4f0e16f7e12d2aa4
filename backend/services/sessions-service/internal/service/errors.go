package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyCharging   = errors.New("user already has an active charging session")
	ErrStationNotFound   = errors.New("station not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrGeofenceViolation = errors.New("user is outside the station geofence")
	ErrForbidden         = errors.New("session belongs to another user")
	ErrInvalidState      = errors.New("session is not charging")
)

// GeofenceError reports how far the user was from the station.
type GeofenceError struct {
	Distance  float64
	Tolerance float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("%s: %.1fm away, tolerance %.1fm", ErrGeofenceViolation, e.Distance, e.Tolerance)
}

func (e *GeofenceError) Unwrap() error { return ErrGeofenceViolation }

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

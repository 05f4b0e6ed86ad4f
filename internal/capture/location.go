package capture

import (
	"context"
	"errors"
	"time"
)

const LocationTimeout = 10 * time.Second

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrLocationTimeout     = errors.New("location request timed out")
)

type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// LocationProvider returns the device's current fix. Implementations should
// return one of the location sentinels so the flow can explain the failure.
type LocationProvider interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// FixedLocation always reports the same coordinates.
type FixedLocation Position

func (f FixedLocation) CurrentPosition(context.Context) (Position, error) {
	return Position(f), nil
}

// LocationMessage turns a location failure into text a farmer can act on.
func LocationMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Location access was denied. Allow location access or pick one of your saved farms."
	case errors.Is(err, ErrLocationTimeout):
		return "Getting your location took too long. Move to an open area and try again, or pick a saved farm."
	case errors.Is(err, ErrPositionUnavailable):
		return "Your position is unavailable right now. Check that GPS is on, or pick a saved farm."
	default:
		return "Could not get your location. Try again or pick a saved farm."
	}
}

package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate and forecast-day bounds accepted by the Open-Meteo forecast API.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	MinForecastDays = 1
	MaxForecastDays = 16
)

// InvalidInputError reports an out-of-range argument, rejected before any
// network call is made. The message is caller-facing and returned verbatim
// in tool output.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// Coordinates checks that latitude is within [-90, 90] and longitude within
// [-180, 180]. NaN is rejected for both.
func Coordinates(latitude, longitude float64) error {
	if math.IsNaN(latitude) || latitude < MinLatitude || latitude > MaxLatitude {
		return &InvalidInputError{
			Reason: fmt.Sprintf("Latitude must be between -90 and 90, got %s", formatFloat(latitude)),
		}
	}
	if math.IsNaN(longitude) || longitude < MinLongitude || longitude > MaxLongitude {
		return &InvalidInputError{
			Reason: fmt.Sprintf("Longitude must be between -180 and 180, got %s", formatFloat(longitude)),
		}
	}
	return nil
}

// ForecastDays checks that days is within [1, 16].
func ForecastDays(days int) error {
	if days < MinForecastDays || days > MaxForecastDays {
		return &InvalidInputError{
			Reason: fmt.Sprintf("Days must be between 1 and 16, got %d", days),
		}
	}
	return nil
}

// formatFloat renders v with a trailing ".0" for integral values, matching
// how coordinates appear in tool output.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// README: Distance estimator; validated haversine distance and the planned-duration heuristic.
package location

import (
	"errors"
	"math"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Validate reports ErrInvalidCoordinates for non-finite or out-of-range values.
func Validate(p types.Point) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return ErrInvalidCoordinates
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// DistanceKm is the great-circle distance between a and b, rounded to 2 decimals.
func DistanceKm(a, b types.Point) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	if err := Validate(b); err != nil {
		return 0, err
	}
	return round2(haversineKm(a.Lat, a.Lng, b.Lat, b.Lng)), nil
}

// EstimatedDurationMin is the planned trip duration: two minutes per kilometre.
func EstimatedDurationMin(distanceKm float64) int {
	return int(math.Round(distanceKm * 2))
}

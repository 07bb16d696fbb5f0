// README: Inclusive date-range overlap rules used to exclude reserved vehicles.
package availability

import (
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start types.Date `json:"start"`
	End   types.Date `json:"end"`
}

// NewRange spans date..ret; a zero or earlier ret collapses it to the single day.
func NewRange(date, ret types.Date) DateRange {
	if ret.IsZero() || ret.Before(date) {
		return DateRange{Start: date, End: date}
	}
	return DateRange{Start: date, End: ret}
}

// Overlaps is true when the ranges share at least one day. Touching boundaries overlap.
func Overlaps(a, b DateRange) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// Reservation is a blocking booking's hold on a vehicle.
type Reservation struct {
	BookingID types.ID
	VehicleID types.ID
	Range     DateRange
}

// Blocked reports whether any reservation intersects window.
func Blocked(reservations []Reservation, window DateRange) bool {
	for _, r := range reservations {
		if Overlaps(r.Range, window) {
			return true
		}
	}
	return false
}

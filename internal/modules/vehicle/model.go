// README: Vehicle and driver summary as consumed by search and booking.
package vehicle

import (
	"time"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

// PricingRef is the part of a tariff key a vehicle carries; the trip type comes from the request.
type PricingRef struct {
	Category     pricing.Category `json:"category"`
	VehicleType  string           `json:"vehicle_type"`
	VehicleModel string           `json:"vehicle_model"`
}

func (r PricingRef) Key(trip pricing.TripType) pricing.Key {
	return pricing.Key{
		Category:     r.Category,
		VehicleType:  r.VehicleType,
		VehicleModel: r.VehicleModel,
		TripType:     trip,
	}
}

type DriverSummary struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone,omitempty"`
	Rating   float64  `json:"rating"`
	IsActive bool     `json:"is_active"`
	IsOnline bool     `json:"is_online"`
}

type Vehicle struct {
	ID             types.ID      `json:"id"`
	Driver         DriverSummary `json:"driver"`
	PricingRef     PricingRef    `json:"pricing_ref"`
	RegistrationNo string        `json:"registration_no"`
	Seats          int           `json:"seats"`
	IsActive       bool          `json:"is_active"`
	IsApproved     bool          `json:"is_approved"`
	IsAvailable    bool          `json:"is_available"`
	CurrentBooking *types.ID     `json:"current_booking,omitempty"`
	Location       *types.Point  `json:"location,omitempty"`
	Geohash        string        `json:"-"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Searchable is the precondition for appearing in availability results at all.
func (v Vehicle) Searchable() bool {
	return v.IsActive && v.IsApproved && v.Driver.IsActive
}

// Filter narrows the candidate set before date-overlap checks.
type Filter struct {
	Category    pricing.Category
	VehicleType string
	MinSeats    int
	// Cells are geohash prefixes; empty means no proximity restriction.
	Cells []string
	IDs   []types.ID
}

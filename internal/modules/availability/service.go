// README: Availability service filters candidate vehicles by date overlap and annotates pricing.
package availability

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

var ErrBadRequest = errors.New("bad search request")

type VehicleLister interface {
	List(ctx context.Context, f vehicle.Filter) ([]vehicle.Vehicle, error)
}

// ReservationFinder returns blocking reservations on the given vehicles that may touch window.
type ReservationFinder interface {
	BlockingReservations(ctx context.Context, vehicleIDs []types.ID, window DateRange) ([]Reservation, error)
}

type TariffResolver interface {
	Resolve(ctx context.Context, key pricing.Key) (pricing.Tariff, error)
}

type Query struct {
	Date        types.Date
	ReturnDate  types.Date
	TripType    pricing.TripType
	Category    pricing.Category
	VehicleType string
	Passengers  int
	Pickup      *types.Point
	Destination *types.Point
	// NearbyOnly restricts candidates to vehicles last seen around Pickup.
	NearbyOnly bool
	VehicleIDs []types.ID
}

type Result struct {
	Vehicle vehicle.Vehicle `json:"vehicle"`
	Tariff  pricing.Tariff  `json:"pricing"`
	// Fare is present when both pickup and destination were given.
	Fare *pricing.Fare `json:"fare,omitempty"`
	// DistanceToPickupKm is present when the pickup and vehicle position are known.
	DistanceToPickupKm *float64 `json:"distance_to_pickup_km,omitempty"`
}

type Service struct {
	vehicles     VehicleLister
	reservations ReservationFinder
	tariffs      TariffResolver
	log          logrus.FieldLogger
}

func NewService(vehicles VehicleLister, reservations ReservationFinder, tariffs TariffResolver, log logrus.FieldLogger) *Service {
	return &Service{vehicles: vehicles, reservations: reservations, tariffs: tariffs, log: log}
}

// Search returns the vehicles free for the requested day (or round-trip span), each with its tariff.
func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.Date.IsZero() || (!q.ReturnDate.IsZero() && q.ReturnDate.Before(q.Date)) {
		return nil, ErrBadRequest
	}
	if q.TripType == "" {
		q.TripType = pricing.TripOneWay
		if !q.ReturnDate.IsZero() {
			q.TripType = pricing.TripReturn
		}
	}
	if !q.TripType.Valid() {
		return nil, ErrBadRequest
	}
	var tripKm float64
	if q.Pickup != nil && q.Destination != nil {
		km, err := location.DistanceKm(*q.Pickup, *q.Destination)
		if err != nil {
			return nil, err
		}
		tripKm = km
	}

	filter := vehicle.Filter{
		Category:    q.Category,
		VehicleType: q.VehicleType,
		MinSeats:    q.Passengers,
		IDs:         q.VehicleIDs,
	}
	if q.Pickup != nil {
		if err := location.Validate(*q.Pickup); err != nil {
			return nil, err
		}
		if q.NearbyOnly {
			filter.Cells = location.SearchCells(*q.Pickup)
		}
	}

	candidates, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	candidates = searchable(candidates)
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	window := NewRange(q.Date, q.ReturnDate)
	ids := make([]types.ID, len(candidates))
	for i, v := range candidates {
		ids[i] = v.ID
	}
	reserved, err := s.reservations.BlockingReservations(ctx, ids, window)
	if err != nil {
		return nil, err
	}
	byVehicle := make(map[types.ID][]Reservation, len(reserved))
	for _, r := range reserved {
		byVehicle[r.VehicleID] = append(byVehicle[r.VehicleID], r)
	}

	results := make([]Result, 0, len(candidates))
	for _, v := range candidates {
		if Blocked(byVehicle[v.ID], window) {
			continue
		}
		tariff, err := s.tariffs.Resolve(ctx, v.PricingRef.Key(q.TripType))
		if errors.Is(err, pricing.ErrPricingNotFound) {
			s.log.WithField("vehicle_id", v.ID).Debug("vehicle skipped: no tariff")
			continue
		}
		if err != nil {
			return nil, err
		}
		res := Result{Vehicle: v, Tariff: tariff}
		if q.Pickup != nil && q.Destination != nil {
			fare, err := pricing.CalculateFare(tariff, tripKm)
			if err != nil {
				s.log.WithField("vehicle_id", v.ID).Debug("vehicle skipped: fare unavailable")
				continue
			}
			res.Fare = &fare
		}
		if q.Pickup != nil && v.Location != nil {
			if km, err := location.DistanceKm(*q.Pickup, *v.Location); err == nil {
				res.DistanceToPickupKm = &km
			}
		}
		results = append(results, res)
	}

	if q.Pickup != nil {
		location.SortByDistance(results, func(r Result) float64 {
			if r.DistanceToPickupKm == nil {
				return 1e9
			}
			return *r.DistanceToPickupKm
		})
	}
	return results, nil
}

func searchable(vs []vehicle.Vehicle) []vehicle.Vehicle {
	out := make([]vehicle.Vehicle, 0, len(vs))
	for _, v := range vs {
		if v.Searchable() {
			out = append(out, v)
		}
	}
	return out
}

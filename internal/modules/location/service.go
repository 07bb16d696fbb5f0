// README: Location service builds trip estimates (straight-line distance plus optional road route).
package location

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

// Route is a road-network preview of a trip.
type Route struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Summary     string  `json:"summary,omitempty"`
}

// RoutePlanner looks up a driving route. Implemented by the Google Maps client.
type RoutePlanner interface {
	Route(ctx context.Context, from, to types.Point) (Route, error)
}

// Trip is what fare calculation and booking creation consume.
type Trip struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Route       *Route  `json:"route,omitempty"`
}

type Service struct {
	routes RoutePlanner
	log    logrus.FieldLogger
}

// NewService accepts a nil planner; estimates then carry no route preview.
func NewService(routes RoutePlanner, log logrus.FieldLogger) *Service {
	return &Service{routes: routes, log: log}
}

// Estimate never lets the route lookup decide the fare: the haversine distance is authoritative.
func (s *Service) Estimate(ctx context.Context, from, to types.Point) (Trip, error) {
	km, err := DistanceKm(from, to)
	if err != nil {
		return Trip{}, err
	}
	trip := Trip{DistanceKm: km, DurationMin: EstimatedDurationMin(km)}
	if s.routes == nil {
		return trip, nil
	}
	r, err := s.routes.Route(ctx, from, to)
	if err != nil {
		s.log.WithError(err).Warn("route preview unavailable")
		return trip, nil
	}
	trip.Route = &r
	return trip, nil
}

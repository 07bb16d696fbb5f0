// README: Vehicle service handles location updates for the proximity index.
package vehicle

import (
	"context"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
	List(ctx context.Context, f Filter) ([]Vehicle, error)
	UpdateLocation(ctx context.Context, vehicleID types.ID, p types.Point, cell string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Vehicle, error) {
	return s.repo.List(ctx, f)
}

// UpdateLocation stores the position with its geohash cell for pickup-area searches.
func (s *Service) UpdateLocation(ctx context.Context, vehicleID types.ID, p types.Point) error {
	if err := location.Validate(p); err != nil {
		return err
	}
	return s.repo.UpdateLocation(ctx, vehicleID, p, location.Cell(p))
}

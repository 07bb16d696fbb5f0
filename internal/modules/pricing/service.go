// README: Pricing service resolves tariffs and produces fare quotes.
package pricing

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

var (
	ErrPricingNotFound = errors.New("pricing not found")
	ErrFareUnavailable = errors.New("fare unavailable")
	ErrBadRequest      = errors.New("bad pricing request")
)

// Store reads tariffs. Find returns ErrPricingNotFound when no row matches the key exactly.
type Store interface {
	Find(ctx context.Context, key Key) (Tariff, error)
}

// Cache is an optional read-through cache in front of Store.
type Cache interface {
	Get(ctx context.Context, key Key) (Tariff, bool, error)
	Set(ctx context.Context, t Tariff) error
}

type Service struct {
	store     Store
	cache     Cache
	onlinePct int
	log       logrus.FieldLogger
}

func NewService(store Store, cache Cache, onlinePct int, log logrus.FieldLogger) *Service {
	if onlinePct <= 0 || onlinePct > 100 {
		onlinePct = DefaultOnlineSharePct
	}
	return &Service{store: store, cache: cache, onlinePct: onlinePct, log: log}
}

// Resolve tries the exact key first, then the vehicle-type default (empty model).
func (s *Service) Resolve(ctx context.Context, key Key) (Tariff, error) {
	if !key.Category.Valid() || !key.TripType.Valid() || key.VehicleType == "" {
		return Tariff{}, ErrBadRequest
	}
	t, err := s.lookup(ctx, key)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrPricingNotFound) || key.VehicleModel == "" {
		return Tariff{}, err
	}
	return s.lookup(ctx, key.typeDefault())
}

func (s *Service) lookup(ctx context.Context, key Key) (Tariff, error) {
	if s.cache != nil {
		t, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.WithError(err).WithField("tariff", key.String()).Warn("tariff cache read failed")
		} else if ok {
			return t, nil
		}
	}
	t, err := s.store.Find(ctx, key)
	if err != nil {
		return Tariff{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, t); err != nil {
			s.log.WithError(err).WithField("tariff", key.String()).Warn("tariff cache write failed")
		}
	}
	return t, nil
}

type QuoteRequest struct {
	Key           Key
	DistanceKm    float64
	PaymentMethod PaymentMethod
}

type Quote struct {
	Tariff Tariff      `json:"-"`
	Fare   Fare        `json:"fare"`
	Plan   PaymentPlan `json:"payment"`
}

// Quote resolves the tariff, prices the distance, and derives the payment plan.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if !req.PaymentMethod.Valid() {
		return Quote{}, ErrBadRequest
	}
	t, err := s.Resolve(ctx, req.Key)
	if err != nil {
		return Quote{}, err
	}
	return s.QuoteWith(t, req.DistanceKm, req.PaymentMethod)
}

// QuoteWith prices a tariff the caller already holds.
func (s *Service) QuoteWith(t Tariff, distanceKm float64, method PaymentMethod) (Quote, error) {
	fare, err := CalculateFare(t, distanceKm)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Tariff: t,
		Fare:   fare,
		Plan:   SplitPayment(t.Key.Category, method, fare.TotalAmount.Amount, s.onlinePct),
	}, nil
}

// Split exposes the configured split for callers that re-derive a plan, such as fare corrections.
func (s *Service) Split(category Category, method PaymentMethod, total int64) PaymentPlan {
	return SplitPayment(category, method, total, s.onlinePct)
}

// README: Pricing store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Find(ctx context.Context, key Key) (Tariff, error) {
	row := s.db.QueryRow(ctx, `
		SELECT flat_price, tiers
		FROM tariffs
		WHERE category = $1 AND vehicle_type = $2 AND vehicle_model = $3 AND trip_type = $4`,
		string(key.Category), key.VehicleType, key.VehicleModel, string(key.TripType),
	)

	var flat *int64
	var raw map[string]float64
	err := row.Scan(&flat, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tariff{}, ErrPricingNotFound
	}
	if err != nil {
		return Tariff{}, err
	}

	t := Tariff{Key: key}
	if flat != nil {
		t.FlatPrice = *flat
	}
	if len(raw) > 0 {
		if t.Tiers, err = ParseTiers(raw); err != nil {
			return Tariff{}, err
		}
	}
	return t, nil
}

// Upsert replaces the tariff for its key.
func (s *PGStore) Upsert(ctx context.Context, t Tariff) error {
	tiers := make(map[string]float64, len(t.Tiers))
	for _, tr := range t.Tiers {
		tiers[tierLabel(tr.ThresholdKm)] = tr.RatePerKm
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO tariffs (category, vehicle_type, vehicle_model, trip_type, flat_price, tiers)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category, vehicle_type, vehicle_model, trip_type)
		DO UPDATE SET flat_price = EXCLUDED.flat_price, tiers = EXCLUDED.tiers, updated_at = NOW()`,
		string(t.Key.Category), t.Key.VehicleType, t.Key.VehicleModel, string(t.Key.TripType),
		t.FlatPrice, tiers,
	)
	return err
}

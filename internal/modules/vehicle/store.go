// README: Vehicle store backed by PostgreSQL; owns the atomic lock columns.
package vehicle

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const vehicleColumns = `
	v.id, v.registration_no, v.category, v.vehicle_type, v.vehicle_model, v.seats,
	v.is_active, v.is_approved, v.is_available, v.current_booking, v.lat, v.lng, v.geohash, v.updated_at,
	d.id, d.name, d.phone, d.rating, d.is_active, d.is_online`

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `SELECT `+vehicleColumns+`
		FROM vehicles v JOIN drivers d ON d.id = v.driver_id
		WHERE v.id = $1`, string(id))
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	return v, err
}

// List returns searchable vehicles matching f: active, approved, and driven by an active driver.
func (s *Store) List(ctx context.Context, f Filter) ([]Vehicle, error) {
	ids := make([]string, len(f.IDs))
	for i, id := range f.IDs {
		ids[i] = string(id)
	}
	cells := append([]string{}, f.Cells...)
	rows, err := s.db.Query(ctx, `SELECT `+vehicleColumns+`
		FROM vehicles v JOIN drivers d ON d.id = v.driver_id
		WHERE v.is_active AND v.is_approved AND d.is_active
		  AND ($1 = '' OR v.category = $1)
		  AND ($2 = '' OR v.vehicle_type = $2)
		  AND v.seats >= $3
		  AND (cardinality($4::text[]) = 0 OR EXISTS (SELECT 1 FROM unnest($4::text[]) c WHERE v.geohash LIKE c || '%'))
		  AND (cardinality($5::text[]) = 0 OR v.id = ANY($5::text[]))
		ORDER BY v.id`,
		string(f.Category), f.VehicleType, f.MinSeats, cells, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Claim attaches bookingID to the vehicle only if it is unlocked or already held by that booking.
func (s *Store) Claim(ctx context.Context, vehicleID, bookingID types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles SET
			current_booking = $2,
			is_available = FALSE,
			updated_at = NOW()
		WHERE id = $1 AND (current_booking IS NULL OR current_booking = $2)`,
		string(vehicleID), string(bookingID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missingOrBooked(ctx, vehicleID)
}

// Release clears the lock only while bookingID still holds it; anything else is a no-op.
func (s *Store) Release(ctx context.Context, vehicleID, bookingID types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE vehicles SET
			current_booking = NULL,
			is_available = TRUE,
			updated_at = NOW()
		WHERE id = $1 AND current_booking = $2`,
		string(vehicleID), string(bookingID),
	)
	return err
}

func (s *Store) UpdateLocation(ctx context.Context, vehicleID types.ID, p types.Point, cell string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles SET lat = $2, lng = $3, geohash = $4, updated_at = NOW()
		WHERE id = $1`,
		string(vehicleID), p.Lat, p.Lng, cell,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

func (s *Store) missingOrBooked(ctx context.Context, vehicleID types.ID) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1)`, string(vehicleID)).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrVehicleNotFound
	}
	return ErrVehicleAlreadyBooked
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	var current *string
	var lat, lng *float64
	var cell *string
	var updatedAt time.Time
	err := row.Scan(
		&v.ID, &v.RegistrationNo, &v.PricingRef.Category, &v.PricingRef.VehicleType, &v.PricingRef.VehicleModel, &v.Seats,
		&v.IsActive, &v.IsApproved, &v.IsAvailable, &current, &lat, &lng, &cell, &updatedAt,
		&v.Driver.ID, &v.Driver.Name, &v.Driver.Phone, &v.Driver.Rating, &v.Driver.IsActive, &v.Driver.IsOnline,
	)
	if err != nil {
		return nil, err
	}
	if current != nil {
		id := types.ID(*current)
		v.CurrentBooking = &id
	}
	if lat != nil && lng != nil {
		v.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	if cell != nil {
		v.Geohash = *cell
	}
	v.UpdatedAt = updatedAt
	return &v, nil
}

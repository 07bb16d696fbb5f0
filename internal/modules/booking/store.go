// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/availability"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, booking_number, rider_id, driver_id, vehicle_id, status, status_version,
			pickup_lat, pickup_lng, pickup_address, dest_lat, dest_lng, dest_address,
			trip_date, return_date, trip_time, passengers, trip_type, distance_km, duration_min,
			category, base_price, tier_km, rate_per_km, total_amount, currency,
			payment_method, payment_status, is_partial_payment, online_amount, cash_amount,
			online_status, cash_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26,
			$27, $28, $29, $30, $31,
			$32, $33, $34, $35
		)`,
		string(b.ID), b.Number, string(b.RiderID), string(b.DriverID), string(b.VehicleID), string(b.Status), b.StatusVersion,
		b.Details.Pickup.Lat, b.Details.Pickup.Lng, b.Details.Pickup.Address,
		b.Details.Destination.Lat, b.Details.Destination.Lng, b.Details.Destination.Address,
		b.Details.Date.Time(), datePtr(b.Details.ReturnDate), b.Details.Time, b.Details.Passengers,
		string(b.Details.TripType), b.Details.DistanceKm, b.Details.DurationMin,
		string(b.Pricing.Category), b.Pricing.BasePrice, b.Pricing.TierKm, b.Pricing.RatePerKm, b.Pricing.TotalAmount.Amount, currencyOf(b.Pricing.TotalAmount),
		string(b.Payment.Method), string(b.Payment.Status), b.Payment.IsPartial, onlineAmount(b), cashAmount(b),
		string(onlineStatus(b)), cashStatus(b), b.CreatedAt, b.UpdatedAt,
	)
	return err
}

const bookingColumns = `
	id, booking_number, rider_id, driver_id, vehicle_id, status, status_version,
	pickup_lat, pickup_lng, pickup_address, dest_lat, dest_lng, dest_address,
	trip_date, return_date, trip_time, passengers, trip_type, distance_km, duration_min,
	category, base_price, tier_km, rate_per_km, total_amount, currency,
	payment_method, payment_status, is_partial_payment, online_amount, cash_amount,
	online_status, cash_status, cash_collected_at, cash_collected_by,
	cancelled_by_id, cancelled_by_role, cancelled_at, cancel_reason, refund_amount, refund_status, refunded_at,
	accepted_at, trip_start_at, trip_end_at, actual_distance_km, actual_duration_min, actual_fare, driver_notes,
	created_at, updated_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Update rewrites the mutable columns when the row is still at (from, version).
func (s *Store) Update(ctx context.Context, b *Booking, from Status, version int) (bool, error) {
	var (
		cancelledByID, cancelledByRole, cancelReason, refundStatus *string
		cancelledAt, refundedAt                                    *time.Time
		refundAmount                                               *int64
		tripStart, tripEnd                                         *time.Time
		actualKm                                                   *float64
		actualMin                                                  *int
		actualFare                                                 *int64
		driverNotes                                                *string
	)
	if c := b.Cancellation; c != nil {
		id, role, reason, rs := string(c.By.ID), string(c.By.Role), c.Reason, string(c.RefundStatus)
		at, amount := c.At, c.RefundAmount.Amount
		cancelledByID, cancelledByRole, cancelReason, refundStatus = &id, &role, &reason, &rs
		cancelledAt, refundAmount, refundedAt = &at, &amount, c.RefundedAt
	}
	if t := b.Trip; t != nil {
		tripStart, tripEnd = t.StartTime, t.EndTime
		if t.EndTime != nil {
			km, mins, fare, notes := t.ActualDistanceKm, t.ActualDurationMin, t.ActualFare, t.DriverNotes
			actualKm, actualMin, actualFare, driverNotes = &km, &mins, &fare, &notes
		}
	}
	var collectedAt *time.Time
	var collectedBy *string
	if p := b.Payment.Partial; p != nil {
		collectedAt = p.CollectedAt
		if p.CollectedBy != nil {
			v := string(*p.CollectedBy)
			collectedBy = &v
		}
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET
			status = $3,
			status_version = status_version + 1,
			total_amount = $4,
			rate_per_km = $5,
			payment_status = $6,
			online_amount = $7,
			cash_amount = $8,
			online_status = $9,
			cash_status = $10,
			cash_collected_at = $11,
			cash_collected_by = $12,
			cancelled_by_id = $13,
			cancelled_by_role = $14,
			cancelled_at = $15,
			cancel_reason = $16,
			refund_amount = $17,
			refund_status = $18,
			refunded_at = $19,
			accepted_at = $20,
			trip_start_at = $21,
			trip_end_at = $22,
			actual_distance_km = $23,
			actual_duration_min = $24,
			actual_fare = $25,
			driver_notes = $26,
			updated_at = $27
		WHERE id = $1 AND status = $2 AND status_version = $28`,
		string(b.ID), string(from), string(b.Status),
		b.Pricing.TotalAmount.Amount, b.Pricing.RatePerKm,
		string(b.Payment.Status), onlineAmount(b), cashAmount(b), string(onlineStatus(b)), cashStatus(b),
		collectedAt, collectedBy,
		cancelledByID, cancelledByRole, cancelledAt, cancelReason, refundAmount, refundStatus, refundedAt,
		b.AcceptedAt, tripStart, tripEnd, actualKm, actualMin, actualFare, driverNotes,
		b.UpdatedAt, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var actorID *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actorID = &v
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO booking_events (booking_id, from_status, to_status, actor_role, actor_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		string(e.BookingID), string(e.FromStatus), string(e.ToStatus), string(e.ActorRole), actorID, e.Reason, e.CreatedAt,
	).Scan(&e.ID)
}

// Events returns a booking's audit trail, oldest first.
func (s *Store) Events(ctx context.Context, bookingID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, actor_role, actor_id, COALESCE(reason, ''), created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY id`, string(bookingID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var actorID *string
		if err := rows.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus, &e.ActorRole, &actorID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			id := types.ID(*actorID)
			e.ActorID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// BlockingReservations lists blocking bookings on vehicleIDs whose trip span touches window.
func (s *Store) BlockingReservations(ctx context.Context, vehicleIDs []types.ID, window availability.DateRange) ([]availability.Reservation, error) {
	if len(vehicleIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(vehicleIDs))
	for i, id := range vehicleIDs {
		ids[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, vehicle_id, trip_date, return_date
		FROM bookings
		WHERE vehicle_id = ANY($1::text[])
		  AND status = ANY($2::text[])
		  AND trip_date <= $4
		  AND COALESCE(return_date, trip_date) >= $3`,
		ids, BlockingStatuses(), window.Start.Time(), window.End.Time(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Reservation
	for rows.Next() {
		var id, vehicleID string
		var start time.Time
		var ret *time.Time
		if err := rows.Scan(&id, &vehicleID, &start, &ret); err != nil {
			return nil, err
		}
		var end types.Date
		if ret != nil {
			end = types.DateOf(*ret)
		}
		out = append(out, availability.Reservation{
			BookingID: types.ID(id),
			VehicleID: types.ID(vehicleID),
			Range:     availability.NewRange(types.DateOf(start), end),
		})
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b                                       Booking
		tripDate                                time.Time
		returnDate                              *time.Time
		currency                                string
		onlineAmt, cashAmt                      int64
		onlineSt, cashSt                        string
		collectedAt                             *time.Time
		collectedBy                             *string
		cancelledByID, cancelledByRole          *string
		cancelledAt, refundedAt                 *time.Time
		cancelReason, refundStatus, driverNotes *string
		refundAmount, actualFare                *int64
		tripStart, tripEnd                      *time.Time
		actualKm                                *float64
		actualMin                               *int
	)
	err := row.Scan(
		&b.ID, &b.Number, &b.RiderID, &b.DriverID, &b.VehicleID, &b.Status, &b.StatusVersion,
		&b.Details.Pickup.Lat, &b.Details.Pickup.Lng, &b.Details.Pickup.Address,
		&b.Details.Destination.Lat, &b.Details.Destination.Lng, &b.Details.Destination.Address,
		&tripDate, &returnDate, &b.Details.Time, &b.Details.Passengers, &b.Details.TripType,
		&b.Details.DistanceKm, &b.Details.DurationMin,
		&b.Pricing.Category, &b.Pricing.BasePrice, &b.Pricing.TierKm, &b.Pricing.RatePerKm, &b.Pricing.TotalAmount.Amount, &currency,
		&b.Payment.Method, &b.Payment.Status, &b.Payment.IsPartial, &onlineAmt, &cashAmt,
		&onlineSt, &cashSt, &collectedAt, &collectedBy,
		&cancelledByID, &cancelledByRole, &cancelledAt, &cancelReason, &refundAmount, &refundStatus, &refundedAt,
		&b.AcceptedAt, &tripStart, &tripEnd, &actualKm, &actualMin, &actualFare, &driverNotes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Details.Date = types.DateOf(tripDate)
	if returnDate != nil {
		b.Details.ReturnDate = types.DateOf(*returnDate)
	}
	b.Pricing.TotalAmount.Currency = currency
	b.Pricing.DistanceKm = b.Details.DistanceKm

	if b.Payment.IsPartial {
		p := &PartialPayment{
			OnlineAmount: types.Money{Amount: onlineAmt, Currency: currency},
			CashAmount:   types.Money{Amount: cashAmt, Currency: currency},
			OnlineStatus: PaymentStatus(onlineSt),
			CashStatus:   cashSt,
			CollectedAt:  collectedAt,
		}
		if collectedBy != nil {
			id := types.ID(*collectedBy)
			p.CollectedBy = &id
		}
		b.Payment.Partial = p
	}

	if cancelledAt != nil {
		c := &Cancellation{At: *cancelledAt, RefundedAt: refundedAt}
		if cancelledByID != nil {
			c.By.ID = types.ID(*cancelledByID)
		}
		if cancelledByRole != nil {
			c.By.Role = Role(*cancelledByRole)
		}
		if cancelReason != nil {
			c.Reason = *cancelReason
		}
		if refundAmount != nil {
			c.RefundAmount = types.Money{Amount: *refundAmount, Currency: currency}
		}
		if refundStatus != nil {
			c.RefundStatus = RefundStatus(*refundStatus)
		}
		b.Cancellation = c
	}

	if tripStart != nil || tripEnd != nil {
		t := &TripRecord{StartTime: tripStart, EndTime: tripEnd}
		if actualKm != nil {
			t.ActualDistanceKm = *actualKm
		}
		if actualMin != nil {
			t.ActualDurationMin = *actualMin
		}
		if actualFare != nil {
			t.ActualFare = *actualFare
		}
		if driverNotes != nil {
			t.DriverNotes = *driverNotes
		}
		b.Trip = t
	}
	return &b, nil
}

func datePtr(d types.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

func currencyOf(m types.Money) string {
	if m.Currency == "" {
		return types.CurrencyINR
	}
	return m.Currency
}

func onlineAmount(b *Booking) int64 {
	if b.Payment.Partial == nil {
		return 0
	}
	return b.Payment.Partial.OnlineAmount.Amount
}

func cashAmount(b *Booking) int64 {
	if b.Payment.Partial == nil {
		return 0
	}
	return b.Payment.Partial.CashAmount.Amount
}

func onlineStatus(b *Booking) PaymentStatus {
	if b.Payment.Partial == nil {
		return PaymentPending
	}
	return b.Payment.Partial.OnlineStatus
}

func cashStatus(b *Booking) string {
	if b.Payment.Partial == nil {
		return CashPending
	}
	return b.Payment.Partial.CashStatus
}

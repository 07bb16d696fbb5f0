// README: Booking aggregate, canonical status enum, and audit events.
package booking

import (
	"strings"
	"time"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	// StatusCancelRequested is the legacy cancellation-in-progress state. It still holds the vehicle.
	StatusCancelRequested Status = "cancel_requested"
)

// statusAliases maps the names other surfaces use onto the canonical statuses.
var statusAliases = map[string]Status{
	"confirmed":              StatusAccepted,
	"driver_assigned":        StatusAccepted,
	"driver_en_route":        StatusAccepted,
	"driver_arrived":         StatusAccepted,
	"trip_started":           StatusStarted,
	"in-progress":            StatusStarted,
	"in_progress":            StatusStarted,
	"cancellation_requested": StatusCancelRequested,
	"canceled":               StatusCancelled,
}

// ParseStatus accepts a canonical status or one of its aliases.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch st := Status(s); st {
	case StatusPending, StatusAccepted, StatusStarted, StatusCompleted, StatusCancelled, StatusCancelRequested:
		return st, true
	}
	st, ok := statusAliases[s]
	return st, ok
}

// Blocking statuses hold the vehicle exclusively.
func (s Status) Blocking() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusStarted, StatusCancelRequested:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// BlockingStatuses lists Blocking statuses for store queries.
func BlockingStatuses() []string {
	return []string{string(StatusPending), string(StatusAccepted), string(StatusStarted), string(StatusCancelRequested)}
}

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

type Actor struct {
	ID   types.ID `json:"id"`
	Role Role     `json:"role"`
}

type TripDetails struct {
	Pickup      types.Place      `json:"pickup"`
	Destination types.Place      `json:"destination"`
	Date        types.Date       `json:"date"`
	ReturnDate  types.Date       `json:"return_date,omitempty"`
	Time        string           `json:"time"`
	Passengers  int              `json:"passengers"`
	TripType    pricing.TripType `json:"trip_type"`
	DistanceKm  float64          `json:"distance_km"`
	DurationMin int              `json:"duration_min"`
}

// Pricing is frozen at creation; only CorrectFare rewrites it.
type Pricing struct {
	Category    pricing.Category `json:"category"`
	BasePrice   int64            `json:"base_price"`
	TierKm      int              `json:"tier_km,omitempty"`
	RatePerKm   int64            `json:"rate_per_km"`
	DistanceKm  float64          `json:"distance_km"`
	TotalAmount types.Money      `json:"total_amount"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

const (
	CashPending   = "pending"
	CashCollected = "collected"
)

type PartialPayment struct {
	OnlineAmount types.Money   `json:"online_amount"`
	CashAmount   types.Money   `json:"cash_amount"`
	OnlineStatus PaymentStatus `json:"online_payment_status"`
	CashStatus   string        `json:"cash_payment_status"`
	CollectedAt  *time.Time    `json:"collected_at,omitempty"`
	CollectedBy  *types.ID     `json:"collected_by,omitempty"`
}

type Payment struct {
	Method    pricing.PaymentMethod `json:"method"`
	Status    PaymentStatus         `json:"status"`
	IsPartial bool                  `json:"is_partial_payment"`
	Partial   *PartialPayment       `json:"partial_payment_details,omitempty"`
}

// reconcile marks the whole payment completed once both halves of a split are settled.
func (p *Payment) reconcile() {
	if p.IsPartial && p.Partial != nil &&
		p.Partial.OnlineStatus == PaymentCompleted && p.Partial.CashStatus == CashCollected {
		p.Status = PaymentCompleted
	}
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
)

type Cancellation struct {
	By           Actor        `json:"cancelled_by"`
	At           time.Time    `json:"cancelled_at"`
	Reason       string       `json:"reason"`
	RefundAmount types.Money  `json:"refund_amount"`
	RefundStatus RefundStatus `json:"refund_status"`
	RefundedAt   *time.Time   `json:"refunded_at,omitempty"`
}

type TripRecord struct {
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	ActualDistanceKm  float64    `json:"actual_distance_km,omitempty"`
	ActualDurationMin int        `json:"actual_duration_min,omitempty"`
	ActualFare        int64      `json:"actual_fare,omitempty"`
	DriverNotes       string     `json:"driver_notes,omitempty"`
}

type Booking struct {
	ID            types.ID      `json:"id"`
	Number        string        `json:"booking_number"`
	RiderID       types.ID      `json:"rider_id"`
	DriverID      types.ID      `json:"driver_id"`
	VehicleID     types.ID      `json:"vehicle_id"`
	Status        Status        `json:"status"`
	StatusVersion int           `json:"-"`
	Details       TripDetails   `json:"trip_details"`
	Pricing       Pricing       `json:"pricing"`
	Payment       Payment       `json:"payment"`
	Cancellation  *Cancellation `json:"cancellation,omitempty"`
	Trip          *TripRecord   `json:"trip,omitempty"`
	AcceptedAt    *time.Time    `json:"accepted_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// involves reports whether the actor is a party to the booking. Admins always are.
func (b *Booking) involves(a Actor) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleRider:
		return a.ID == b.RiderID
	case RoleDriver:
		return a.ID == b.DriverID
	}
	return false
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorRole  Role
	ActorID    *types.ID
	Reason     string
	CreatedAt  time.Time
}

package booking

import (
	"time"
)

// LifecycleEvent is the message published for every booking change.
type LifecycleEvent struct {
	BookingID     string `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	VehicleID     string `json:"vehicle_id"`
	RiderID       string `json:"rider_id"`
	DriverID      string `json:"driver_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	ActorRole     string `json:"actor_role"`
	Reason        string `json:"reason,omitempty"`
	TotalAmount   int64  `json:"total_amount"`
	PaymentStatus string `json:"payment_status"`
	OccurredAt    string `json:"occurred_at"`
}

func newLifecycleEvent(b *Booking, e *Event) LifecycleEvent {
	return LifecycleEvent{
		BookingID:     string(b.ID),
		BookingNumber: b.Number,
		VehicleID:     string(b.VehicleID),
		RiderID:       string(b.RiderID),
		DriverID:      string(b.DriverID),
		From:          string(e.FromStatus),
		To:            string(e.ToStatus),
		ActorRole:     string(e.ActorRole),
		Reason:        e.Reason,
		TotalAmount:   b.Pricing.TotalAmount.Amount,
		PaymentStatus: string(b.Payment.Status),
		OccurredAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// routingKey is booking.<status>, e.g. booking.accepted.
func routingKey(to Status) string {
	return "booking." + string(to)
}

// README: Booking handlers for create/get/cancel, start codes, and gateway payment callbacks.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id types.ID, actor booking.Actor) (*booking.Booking, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) (*booking.Booking, error)
	StartCode(ctx context.Context, id types.ID, actor booking.Actor) (string, error)
	ConfirmOnlinePayment(ctx context.Context, cmd booking.OnlinePaymentCommand) (*booking.Booking, error)
}

type BookingHandler struct {
	bookings BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	VehicleID     string                `json:"vehicle_id"`
	Pickup        *types.Place          `json:"pickup"`
	Destination   *types.Place          `json:"destination"`
	Date          types.Date            `json:"date"`
	ReturnDate    types.Date            `json:"return_date"`
	Time          string                `json:"time"`
	Passengers    int                   `json:"passengers"`
	TripType      pricing.TripType      `json:"trip_type"`
	PaymentMethod pricing.PaymentMethod `json:"payment_method"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if !bindJSON(c, &req, false) {
		return
	}
	if !isValidID(req.VehicleID) || req.Date.IsZero() {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "missing fields")
		return
	}
	if !req.PaymentMethod.Valid() {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "unsupported payment method")
		return
	}
	if req.Pickup == nil || req.Destination == nil {
		writeDomainError(c, fmt.Errorf("pickup and destination are required: %w", location.ErrInvalidCoordinates))
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		Rider:         caller(c),
		VehicleID:     types.ID(req.VehicleID),
		Pickup:        *req.Pickup,
		Destination:   *req.Destination,
		Date:          req.Date,
		ReturnDate:    req.ReturnDate,
		Time:          req.Time,
		Passengers:    req.Passengers,
		TripType:      req.TripType,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id, caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req cancelReq
	if !bindJSON(c, &req, true) {
		return
	}
	b, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{BookingID: id, Actor: caller(c), Reason: req.Reason})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) StartCode(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	code, err := h.bookings.StartCode(c.Request.Context(), id, caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"booking_id": id, "otp": code})
}

type onlinePaymentReq struct {
	Success   *bool  `json:"success"`
	Reference string `json:"reference"`
}

func (h *BookingHandler) ConfirmOnlinePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req onlinePaymentReq
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Success == nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "success is required")
		return
	}
	b, err := h.bookings.ConfirmOnlinePayment(c.Request.Context(), booking.OnlinePaymentCommand{
		BookingID: id,
		Actor:     caller(c),
		Success:   *req.Success,
		Reference: req.Reference,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b.Payment)
}

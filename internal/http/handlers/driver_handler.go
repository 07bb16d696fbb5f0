// README: Driver handlers for accept/start/complete and cash collection.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type DriverBookingService interface {
	Accept(ctx context.Context, id types.ID, actor booking.Actor) (*booking.Booking, error)
	Start(ctx context.Context, cmd booking.StartCommand) (*booking.Booking, error)
	Complete(ctx context.Context, cmd booking.CompleteCommand) (*booking.Booking, error)
	CollectCash(ctx context.Context, id types.ID, actor booking.Actor) (*booking.Booking, error)
}

type DriverHandler struct {
	bookings DriverBookingService
}

func NewDriverHandler(svc DriverBookingService) *DriverHandler {
	return &DriverHandler{bookings: svc}
}

func (h *DriverHandler) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.bookings.Accept(c.Request.Context(), id, caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type startReq struct {
	OTP string `json:"otp"`
}

func (h *DriverHandler) Start(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req startReq
	if !bindJSON(c, &req, true) {
		return
	}
	b, err := h.bookings.Start(c.Request.Context(), booking.StartCommand{BookingID: id, Actor: caller(c), OTP: req.OTP})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type completeReq struct {
	ActualDistanceKm  float64 `json:"actual_distance_km"`
	ActualDurationMin int     `json:"actual_duration_min"`
	ActualFare        int64   `json:"actual_fare"`
	Notes             string  `json:"driver_notes"`
}

func (h *DriverHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req completeReq
	if !bindJSON(c, &req, true) {
		return
	}
	if req.ActualDistanceKm < 0 || req.ActualDurationMin < 0 || req.ActualFare < 0 {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "trip metrics must not be negative")
		return
	}
	b, err := h.bookings.Complete(c.Request.Context(), booking.CompleteCommand{
		BookingID:         id,
		Actor:             caller(c),
		ActualDistanceKm:  req.ActualDistanceKm,
		ActualDurationMin: req.ActualDurationMin,
		ActualFare:        req.ActualFare,
		Notes:             req.Notes,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *DriverHandler) CollectCash(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.bookings.CollectCash(c.Request.Context(), id, caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b.Payment)
}

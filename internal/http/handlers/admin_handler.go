// README: Admin handlers: status override, fare correction, refunds.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type AdminBookingService interface {
	AdminOverride(ctx context.Context, cmd booking.OverrideCommand) (*booking.Booking, error)
	CorrectFare(ctx context.Context, cmd booking.FareCorrectionCommand) (*booking.Booking, error)
	ProcessRefund(ctx context.Context, id types.ID, actor booking.Actor) (*booking.Booking, error)
}

type AdminHandler struct {
	bookings AdminBookingService
}

func NewAdminHandler(svc AdminBookingService) *AdminHandler {
	return &AdminHandler{bookings: svc}
}

type overrideReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) OverrideStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req overrideReq
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Status == "" {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "status is required")
		return
	}
	b, err := h.bookings.AdminOverride(c.Request.Context(), booking.OverrideCommand{
		BookingID: id,
		Actor:     caller(c),
		Status:    req.Status,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type fareReq struct {
	TotalAmount int64  `json:"total_amount"`
	Reason      string `json:"reason"`
}

func (h *AdminHandler) CorrectFare(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req fareReq
	if !bindJSON(c, &req, false) {
		return
	}
	b, err := h.bookings.CorrectFare(c.Request.Context(), booking.FareCorrectionCommand{
		BookingID:   id,
		Actor:       caller(c),
		TotalAmount: req.TotalAmount,
		Reason:      req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *AdminHandler) ProcessRefund(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.bookings.ProcessRefund(c.Request.Context(), id, caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b.Cancellation)
}

// README: Base handler utilities (JSON helpers, caller identity, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devxankit/chalo-sawari-sub001/internal/http/middleware"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/availability"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/otp"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// isValidID accepts uuids and the short seeded ids used for vehicles and drivers.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

// pathID reads :id and writes a 400 when it is malformed.
func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return "", false
	}
	return types.ID(id), true
}

func caller(c *gin.Context) booking.Actor {
	return booking.Actor{
		ID:   types.ID(middleware.CallerUID(c)),
		Role: booking.Role(middleware.CallerRole(c)),
	}
}

// bindJSON decodes the body; an empty body is allowed when optional is set.
func bindJSON(c *gin.Context, dst any, optional bool) bool {
	if optional && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, location.ErrInvalidCoordinates):
		writeError(c, http.StatusBadRequest, "INVALID_COORDINATES", err.Error())
	case errors.Is(err, booking.ErrBadRequest), errors.Is(err, pricing.ErrBadRequest),
		errors.Is(err, availability.ErrBadRequest), errors.Is(err, types.ErrInvalidDate),
		errors.Is(err, types.ErrInvalidClock):
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, booking.ErrNotAuthorized):
		writeError(c, http.StatusForbidden, "NOT_AUTHORIZED", err.Error())
	case errors.Is(err, otp.ErrInvalidCode):
		writeError(c, http.StatusForbidden, "INVALID_OTP", err.Error())
	case errors.Is(err, pricing.ErrPricingNotFound):
		writeError(c, http.StatusNotFound, "PRICING_NOT_FOUND", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", err.Error())
	case errors.Is(err, vehicle.ErrVehicleNotFound):
		writeError(c, http.StatusNotFound, "VEHICLE_NOT_FOUND", err.Error())
	case errors.Is(err, pricing.ErrFareUnavailable):
		writeError(c, http.StatusUnprocessableEntity, "FARE_UNAVAILABLE", err.Error())
	case errors.Is(err, vehicle.ErrVehicleAlreadyBooked):
		writeError(c, http.StatusConflict, "VEHICLE_ALREADY_BOOKED", err.Error())
	case errors.Is(err, booking.ErrVehicleUnavailable):
		writeError(c, http.StatusConflict, "VEHICLE_UNAVAILABLE", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, booking.ErrRefundWindowExpired):
		writeError(c, http.StatusConflict, "REFUND_WINDOW_EXPIRED", err.Error())
	case errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, otp.ErrNotIssued):
		writeError(c, http.StatusConflict, "OTP_NOT_ISSUED", err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/otp"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
)

func TestWriteDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{location.ErrInvalidCoordinates, http.StatusBadRequest, "INVALID_COORDINATES"},
		{booking.ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
		{pricing.ErrPricingNotFound, http.StatusNotFound, "PRICING_NOT_FOUND"},
		{pricing.ErrFareUnavailable, http.StatusUnprocessableEntity, "FARE_UNAVAILABLE"},
		{vehicle.ErrVehicleAlreadyBooked, http.StatusConflict, "VEHICLE_ALREADY_BOOKED"},
		{fmt.Errorf("claim vehicle v1: %w", vehicle.ErrVehicleAlreadyBooked), http.StatusConflict, "VEHICLE_ALREADY_BOOKED"},
		{booking.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{booking.ErrNotAuthorized, http.StatusForbidden, "NOT_AUTHORIZED"},
		{booking.ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
		{booking.ErrRefundWindowExpired, http.StatusConflict, "REFUND_WINDOW_EXPIRED"},
		{booking.ErrConflict, http.StatusConflict, "CONFLICT"},
		{otp.ErrInvalidCode, http.StatusForbidden, "INVALID_OTP"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeDomainError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"code":"`+tc.code+`"`, tc.err.Error())
	}
}

func TestIsValidID(t *testing.T) {
	assert.True(t, isValidID("5f1c2a8e-9b1d-4c55-8f0e-2f7d9b7a1c33"))
	assert.True(t, isValidID("car_01"))
	assert.False(t, isValidID(""))
	assert.False(t, isValidID("a/b"))
	assert.False(t, isValidID("id with space"))
}

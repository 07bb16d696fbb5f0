// README: Router tests: auth, role gating, request decoding, and error mapping through gin.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "github.com/devxankit/chalo-sawari-sub001/internal/http"
	"github.com/devxankit/chalo-sawari-sub001/internal/infra"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/availability"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

// tokenVerifier treats the bearer token as "uid:role".
type tokenVerifier struct{}

func (tokenVerifier) VerifyIDToken(_ context.Context, token string) (*infra.Identity, error) {
	for i := 0; i < len(token); i++ {
		if token[i] == ':' {
			return &infra.Identity{UID: token[:i], Role: token[i+1:]}, nil
		}
	}
	return &infra.Identity{UID: token}, nil
}

type stubBookings struct {
	lastCreate booking.CreateCommand
	lastCancel booking.CancelCommand
	err        error
}

func (s *stubBookings) result(id types.ID, status booking.Status) (*booking.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Booking{ID: id, Status: status}, nil
}

func (s *stubBookings) Create(_ context.Context, cmd booking.CreateCommand) (*booking.Booking, error) {
	s.lastCreate = cmd
	return s.result("b1", booking.StatusPending)
}

func (s *stubBookings) Get(_ context.Context, id types.ID, _ booking.Actor) (*booking.Booking, error) {
	return s.result(id, booking.StatusPending)
}

func (s *stubBookings) Cancel(_ context.Context, cmd booking.CancelCommand) (*booking.Booking, error) {
	s.lastCancel = cmd
	return s.result(cmd.BookingID, booking.StatusCancelled)
}

func (s *stubBookings) StartCode(context.Context, types.ID, booking.Actor) (string, error) {
	return "4821", s.err
}

func (s *stubBookings) ConfirmOnlinePayment(_ context.Context, cmd booking.OnlinePaymentCommand) (*booking.Booking, error) {
	return s.result(cmd.BookingID, booking.StatusPending)
}

func (s *stubBookings) Accept(_ context.Context, id types.ID, _ booking.Actor) (*booking.Booking, error) {
	return s.result(id, booking.StatusAccepted)
}

func (s *stubBookings) Start(_ context.Context, cmd booking.StartCommand) (*booking.Booking, error) {
	return s.result(cmd.BookingID, booking.StatusStarted)
}

func (s *stubBookings) Complete(_ context.Context, cmd booking.CompleteCommand) (*booking.Booking, error) {
	return s.result(cmd.BookingID, booking.StatusCompleted)
}

func (s *stubBookings) CollectCash(_ context.Context, id types.ID, _ booking.Actor) (*booking.Booking, error) {
	return s.result(id, booking.StatusStarted)
}

func (s *stubBookings) AdminOverride(_ context.Context, cmd booking.OverrideCommand) (*booking.Booking, error) {
	st, _ := booking.ParseStatus(cmd.Status)
	return s.result(cmd.BookingID, st)
}

func (s *stubBookings) CorrectFare(_ context.Context, cmd booking.FareCorrectionCommand) (*booking.Booking, error) {
	return s.result(cmd.BookingID, booking.StatusPending)
}

func (s *stubBookings) ProcessRefund(_ context.Context, id types.ID, _ booking.Actor) (*booking.Booking, error) {
	return s.result(id, booking.StatusCancelled)
}

type stubSearch struct{ last availability.Query }

func (s *stubSearch) Search(_ context.Context, q availability.Query) ([]availability.Result, error) {
	s.last = q
	return []availability.Result{{Vehicle: vehicle.Vehicle{ID: "car1"}}}, nil
}

type stubTrips struct{}

func (stubTrips) Estimate(_ context.Context, from, to types.Point) (location.Trip, error) {
	km, err := location.DistanceKm(from, to)
	if err != nil {
		return location.Trip{}, err
	}
	return location.Trip{DistanceKm: km, DurationMin: location.EstimatedDurationMin(km)}, nil
}

type stubFares struct{}

func (stubFares) Quote(_ context.Context, req pricing.QuoteRequest) (pricing.Quote, error) {
	if req.Key.Category != pricing.CategoryCar {
		return pricing.Quote{}, pricing.ErrPricingNotFound
	}
	t := pricing.Tariff{Key: req.Key, Tiers: []pricing.Tier{{ThresholdKm: 150, RatePerKm: 8}}}
	fare, err := pricing.CalculateFare(t, req.DistanceKm)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Quote{Tariff: t, Fare: fare, Plan: pricing.SplitPayment(t.Key.Category, req.PaymentMethod, fare.TotalAmount.Amount, 30)}, nil
}

type stubVehicles struct{ moved types.Point }

func (s *stubVehicles) Get(_ context.Context, id types.ID) (*vehicle.Vehicle, error) {
	if id != "car1" {
		return nil, vehicle.ErrVehicleNotFound
	}
	return &vehicle.Vehicle{ID: id, Driver: vehicle.DriverSummary{ID: "d1"}}, nil
}

func (s *stubVehicles) UpdateLocation(_ context.Context, _ types.ID, p types.Point) error {
	if err := location.Validate(p); err != nil {
		return err
	}
	s.moved = p
	return nil
}

var (
	indore = map[string]any{"lat": 22.7196, "lng": 75.8577, "address": "Indore"}
	ujjain = map[string]any{"lat": 23.1765, "lng": 75.7885, "address": "Ujjain"}
)

type fixture struct {
	router   *gin.Engine
	bookings *stubBookings
	search   *stubSearch
	vehicles *stubVehicles
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	f := &fixture{bookings: &stubBookings{}, search: &stubSearch{}, vehicles: &stubVehicles{}}
	f.router = httptransport.NewRouter(httptransport.RouterDeps{
		Bookings: f.bookings,
		Search:   f.search,
		Trips:    stubTrips{},
		Fares:    stubFares{},
		Vehicles: f.vehicles,
		Verifier: tokenVerifier{},
		Log:      log,
	})
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPIRequiresToken(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/bookings/b1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/bookings", "r1:rider", map[string]any{
		"vehicle_id":     "car1",
		"pickup":         map[string]any{"lat": 22.7196, "lng": 75.8577, "address": "Indore"},
		"destination":    map[string]any{"lat": 23.1765, "lng": 75.7885, "address": "Ujjain"},
		"date":           "2024-05-01",
		"return_date":    "2024-05-03T00:00:00Z",
		"time":           "09:30",
		"passengers":     2,
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", decode(t, w)["status"])

	cmd := f.bookings.lastCreate
	assert.Equal(t, booking.Actor{ID: "r1", Role: booking.RoleRider}, cmd.Rider)
	assert.Equal(t, "Ujjain", cmd.Destination.Address)
	assert.Equal(t, "2024-05-03", cmd.ReturnDate.String())
	assert.Equal(t, pricing.PaymentCash, cmd.PaymentMethod)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture()
	cases := map[string]any{
		"bad json":       "not-an-object",
		"bad date":       map[string]any{"vehicle_id": "car1", "date": "01/05/2024", "payment_method": "cash"},
		"missing date":   map[string]any{"vehicle_id": "car1", "payment_method": "cash"},
		"unknown method": map[string]any{"vehicle_id": "car1", "date": "2024-05-01", "payment_method": "barter"},
	}
	for name, body := range cases {
		w := f.do(http.MethodPost, "/api/bookings", "r1:rider", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestCreateBookingNeedsBothPlaces(t *testing.T) {
	f := newFixture()
	for name, body := range map[string]map[string]any{
		"no pickup":      {"vehicle_id": "car1", "date": "2024-05-01", "payment_method": "upi", "destination": ujjain},
		"no destination": {"vehicle_id": "car1", "date": "2024-05-01", "payment_method": "upi", "pickup": indore},
	} {
		w := f.do(http.MethodPost, "/api/bookings", "r1:rider", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Equal(t, "INVALID_COORDINATES", decode(t, w)["code"], name)
	}
	assert.Empty(t, f.bookings.lastCreate.VehicleID, "service never called")
}

func TestDomainErrorsSurface(t *testing.T) {
	f := newFixture()
	f.bookings.err = vehicle.ErrVehicleAlreadyBooked
	w := f.do(http.MethodPost, "/api/bookings", "r1:rider", map[string]any{
		"vehicle_id": "car1", "date": "2024-05-01", "payment_method": "upi",
		"pickup": indore, "destination": ujjain,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VEHICLE_ALREADY_BOOKED", decode(t, w)["code"])

	f.bookings.err = booking.ErrInvalidTransition
	w = f.do(http.MethodPost, "/api/bookings/b1/complete", "d1:driver", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, w)["code"])
}

func TestCancelWithoutBody(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/b1/cancel", nil)
	req.Header.Set("Authorization", "Bearer r1:rider")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.ID("b1"), f.bookings.lastCancel.BookingID)
	assert.Empty(t, f.bookings.lastCancel.Reason)
}

func TestAdminRoutesAreGated(t *testing.T) {
	f := newFixture()
	body := map[string]any{"status": "cancelled", "reason": "duplicate"}
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/admin/bookings/b1/status", "d1:driver", body).Code)

	w := f.do(http.MethodPost, "/api/admin/bookings/b1/status", "a1:admin", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["status"])
}

func TestSearchAndEstimate(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/vehicles/search", "r1:rider", map[string]any{
		"date": "2024-05-02", "category": "car", "passengers": 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["count"])
	assert.Equal(t, "2024-05-02", f.search.last.Date.String())
	assert.Equal(t, 3, f.search.last.Passengers)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/vehicles/search", "d1:driver", map[string]any{"date": "2024-05-02"}).Code)

	w = f.do(http.MethodPost, "/api/fares/estimate", "r1:rider", map[string]any{
		"category": "car", "vehicle_type": "sedan", "payment_method": "cash",
		"pickup": map[string]any{"lat": 22.7196, "lng": 75.8577}, "destination": map[string]any{"lat": 23.1765, "lng": 75.7885},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payment := decode(t, w)["payment"].(map[string]any)
	assert.Equal(t, true, payment["is_partial_payment"])

	w = f.do(http.MethodPost, "/api/fares/estimate", "r1:rider", map[string]any{
		"category": "car", "vehicle_type": "sedan", "destination": ujjain,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "estimate without pickup")
	assert.Equal(t, "INVALID_COORDINATES", decode(t, w)["code"])

	w = f.do(http.MethodPost, "/api/fares/estimate", "r1:rider", map[string]any{
		"category": "car", "vehicle_type": "sedan",
		"pickup": map[string]any{"lat": 95, "lng": 75.8577}, "destination": map[string]any{"lat": 23.1765, "lng": 75.7885},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_COORDINATES", decode(t, w)["code"])
}

func TestVehicleLocationOwnership(t *testing.T) {
	f := newFixture()
	p := map[string]any{"lat": 22.72, "lng": 75.86}
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPut, "/api/vehicles/car1/location", "d2:driver", p).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPut, "/api/vehicles/car1/location", "r1:rider", p).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/api/vehicles/car404/location", "d1:driver", p).Code)

	w := f.do(http.MethodPut, "/api/vehicles/car1/location", "d1:driver", p)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.Point{Lat: 22.72, Lng: 75.86}, f.vehicles.moved)
}

package location

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

func TestDistanceKm_RoundsToTwoDecimals(t *testing.T) {
	got, err := DistanceKm(types.Point{Lat: 22.7196, Lng: 75.8577}, types.Point{Lat: 23.1765, Lng: 75.7885})
	require.NoError(t, err)
	assert.Equal(t, math.Round(got*100)/100, got)
}

func TestDistanceKm_InvalidCoordinates(t *testing.T) {
	valid := types.Point{Lat: 10, Lng: 10}
	bad := []types.Point{
		{Lat: math.NaN(), Lng: 10},
		{Lat: 10, Lng: math.Inf(1)},
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: -181},
	}
	for _, p := range bad {
		_, err := DistanceKm(valid, p)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, "%v", p)
		_, err = DistanceKm(p, valid)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, "%v", p)
	}
}

func TestEstimatedDurationMin(t *testing.T) {
	assert.Equal(t, 240, EstimatedDurationMin(120))
	assert.Equal(t, 21, EstimatedDurationMin(10.4))
	assert.Equal(t, 0, EstimatedDurationMin(0))
}

type stubPlanner struct {
	route Route
	err   error
}

func (s stubPlanner) Route(context.Context, types.Point, types.Point) (Route, error) {
	return s.route, s.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestServiceEstimate(t *testing.T) {
	from := types.Point{Lat: 22.7196, Lng: 75.8577}
	to := types.Point{Lat: 23.1765, Lng: 75.7885}
	ctx := context.Background()

	trip, err := NewService(nil, quietLogger()).Estimate(ctx, from, to)
	require.NoError(t, err)
	assert.Nil(t, trip.Route)
	assert.Equal(t, EstimatedDurationMin(trip.DistanceKm), trip.DurationMin)

	svc := NewService(stubPlanner{route: Route{DistanceKm: 55.2, DurationMin: 70, Summary: "NH52"}}, quietLogger())
	trip, err = svc.Estimate(ctx, from, to)
	require.NoError(t, err)
	require.NotNil(t, trip.Route)
	assert.Equal(t, "NH52", trip.Route.Summary)
	assert.NotEqual(t, trip.Route.DistanceKm, trip.DistanceKm)

	svc = NewService(stubPlanner{err: errors.New("quota")}, quietLogger())
	trip, err = svc.Estimate(ctx, from, to)
	require.NoError(t, err)
	assert.Nil(t, trip.Route)

	_, err = svc.Estimate(ctx, types.Point{Lat: 100}, to)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

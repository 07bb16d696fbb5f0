package vehicle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devxankit/chalo-sawari-sub001/internal/testdb"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

func TestStoreClaimRace(t *testing.T) {
	db := testdb.Open(t)
	testdb.SeedVehicle(t, db, "v_race", "d_race", "car", "sedan")
	store := NewStore(db)
	ctx := context.Background()

	const n = 10
	errs := make(chan error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs <- store.Claim(ctx, "v_race", types.ID(fmt.Sprintf("b%d", i)))
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		require.ErrorIs(t, err, ErrVehicleAlreadyBooked)
	}
	assert.Equal(t, 1, success)

	v, err := store.Get(ctx, "v_race")
	require.NoError(t, err)
	require.NotNil(t, v.CurrentBooking)
	assert.False(t, v.IsAvailable)
}

func TestStoreClaimReleaseCycle(t *testing.T) {
	db := testdb.Open(t)
	testdb.SeedVehicle(t, db, "v1", "d1", "car", "sedan")
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, "v1", "b1"))
	require.NoError(t, store.Claim(ctx, "v1", "b1"))
	assert.ErrorIs(t, store.Claim(ctx, "v1", "b2"), ErrVehicleAlreadyBooked)
	assert.ErrorIs(t, store.Claim(ctx, "nope", "b2"), ErrVehicleNotFound)

	require.NoError(t, store.Release(ctx, "v1", "b2"))
	v, err := store.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, types.ID("b1"), *v.CurrentBooking)

	require.NoError(t, store.Release(ctx, "v1", "b1"))
	v, err = store.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Nil(t, v.CurrentBooking)
	assert.True(t, v.IsAvailable)
}

func TestStoreListFilters(t *testing.T) {
	db := testdb.Open(t)
	testdb.SeedVehicle(t, db, "v_car", "d1", "car", "sedan")
	testdb.SeedVehicle(t, db, "v_bus", "d2", "bus", "mini")
	testdb.SeedVehicle(t, db, "v_idle", "d3", "car", "sedan")
	_, err := db.Exec(context.Background(), `UPDATE vehicles SET is_approved = FALSE WHERE id = 'v_idle'`)
	require.NoError(t, err)

	svc := NewService(NewStore(db))
	ctx := context.Background()
	p := types.Point{Lat: 22.7196, Lng: 75.8577}
	require.NoError(t, svc.UpdateLocation(ctx, "v_car", p))

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cars, err := svc.List(ctx, Filter{Category: "car"})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, types.ID("v_car"), cars[0].ID)
	require.NotNil(t, cars[0].Location)

	near, err := svc.List(ctx, Filter{Cells: []string{cars[0].Geohash[:5]}})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, types.ID("v_car"), near[0].ID)

	assert.ErrorIs(t, svc.UpdateLocation(ctx, "ghost", p), ErrVehicleNotFound)
}

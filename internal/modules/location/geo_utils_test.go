package location

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 22.7196, lng1: 75.8577,
			lat2: 22.7196, lng2: 75.8577,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name: "Indore to Ujjain (~52km)",
			lat1: 22.7196, lng1: 75.8577,
			lat2: 23.1765, lng2: 75.7885,
			wantKm:    51.3,
			tolerance: 1.5,
		},
		{
			name: "Mumbai to Delhi (~1150km)",
			lat1: 19.0760, lng1: 72.8777,
			lat2: 28.7041, lng2: 77.1025,
			wantKm:    1150,
			tolerance: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("haversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := types.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		b := types.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		ab, err := DistanceKm(a, b)
		assert.NoError(t, err)
		ba, err := DistanceKm(b, a)
		assert.NoError(t, err)
		if ab != ba {
			t.Fatalf("distance not symmetric for %v %v: %f vs %f", a, b, ab, ba)
		}
	}
}

func TestSortByDistance(t *testing.T) {
	type item struct {
		id string
		km float64
	}
	items := []item{{"c", 5}, {"a", 1}, {"b", 3}}
	SortByDistance(items, func(i item) float64 { return i.km })
	assert.Equal(t, "a", items[0].id)
	assert.Equal(t, "b", items[1].id)
	assert.Equal(t, "c", items[2].id)

	var empty []item
	SortByDistance(empty, func(i item) float64 { return i.km })
}

func TestCellAndSearchCells(t *testing.T) {
	p := types.Point{Lat: 22.7196, Lng: 75.8577}
	cell := Cell(p)
	assert.Len(t, cell, int(CellPrecision))

	cells := SearchCells(p)
	assert.Len(t, cells, 9)
	assert.True(t, strings.HasPrefix(cell, cells[0]), "vehicle cell %s should sit under %s", cell, cells[0])
}

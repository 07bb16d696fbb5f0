// README: Pure geographic helpers: haversine distance, geohash cells, and sorting by proximity.
package location

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

const (
	earthRadiusKm = 6371.0

	// CellPrecision is the geohash length stored per vehicle (~1.2km x 0.6km).
	CellPrecision uint = 6
	// SearchPrecision is the coarser prefix used to find vehicles near a pickup (~4.9km x 4.9km).
	SearchPrecision uint = 5
)

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cell returns the geohash cell a vehicle at p is indexed under.
func Cell(p types.Point) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, CellPrecision)
}

// SearchCells returns the search-precision cell containing p plus its eight neighbours.
// A vehicle matches when its Cell has one of these as prefix.
func SearchCells(p types.Point) []string {
	center := geohash.EncodeWithPrecision(p.Lat, p.Lng, SearchPrecision)
	return append([]string{center}, geohash.Neighbors(center)...)
}

// SortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function.
func SortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}

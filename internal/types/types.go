// README: Identifiers and coordinates shared by booking, vehicle, and location modules.
package types

type ID string

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a point with the human-readable address the rider typed or picked.
type Place struct {
	Point
	Address string `json:"address"`
}

// IsZero reports an unset place: no address and no coordinates.
func (p Place) IsZero() bool {
	return p == Place{}
}

// README: Vehicle location handler; feeds the geohash proximity index.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type VehicleLocations interface {
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
	UpdateLocation(ctx context.Context, vehicleID types.ID, p types.Point) error
}

type LocationHandler struct {
	vehicles VehicleLocations
}

func NewLocationHandler(svc VehicleLocations) *LocationHandler {
	return &LocationHandler{vehicles: svc}
}

func (h *LocationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p types.Point
	if !bindJSON(c, &p, false) {
		return
	}
	who := caller(c)
	ctx := c.Request.Context()
	// Only the vehicle's own driver may move it; admins may correct any vehicle.
	if who.Role != booking.RoleAdmin {
		v, err := h.vehicles.Get(ctx, id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		if who.Role != booking.RoleDriver || v.Driver.ID != who.ID {
			writeDomainError(c, booking.ErrNotAuthorized)
			return
		}
	}
	if err := h.vehicles.UpdateLocation(ctx, id, p); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicle_id": id, "location": p})
}

// README: Rider-facing lookups: vehicle search and fare estimates.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/availability"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type VehicleSearcher interface {
	Search(ctx context.Context, q availability.Query) ([]availability.Result, error)
}

type TripEstimator interface {
	Estimate(ctx context.Context, from, to types.Point) (location.Trip, error)
}

type FareQuoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.Quote, error)
}

type RiderHandler struct {
	search VehicleSearcher
	trips  TripEstimator
	fares  FareQuoter
}

func NewRiderHandler(search VehicleSearcher, trips TripEstimator, fares FareQuoter) *RiderHandler {
	return &RiderHandler{search: search, trips: trips, fares: fares}
}

type searchReq struct {
	Date        types.Date       `json:"date"`
	ReturnDate  types.Date       `json:"return_date"`
	TripType    pricing.TripType `json:"trip_type"`
	Category    pricing.Category `json:"category"`
	VehicleType string           `json:"vehicle_type"`
	Passengers  int              `json:"passengers"`
	Pickup      *types.Point     `json:"pickup"`
	Destination *types.Point     `json:"destination"`
	NearbyOnly  bool             `json:"nearby_only"`
}

func (h *RiderHandler) Search(c *gin.Context) {
	var req searchReq
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Date.IsZero() {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "date is required")
		return
	}
	if req.Category != "" && !req.Category.Valid() {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "unknown category")
		return
	}
	if req.NearbyOnly && req.Pickup == nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "nearby_only needs a pickup")
		return
	}
	results, err := h.search.Search(c.Request.Context(), availability.Query{
		Date:        req.Date,
		ReturnDate:  req.ReturnDate,
		TripType:    req.TripType,
		Category:    req.Category,
		VehicleType: req.VehicleType,
		Passengers:  req.Passengers,
		Pickup:      req.Pickup,
		Destination: req.Destination,
		NearbyOnly:  req.NearbyOnly,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"count": len(results), "vehicles": results})
}

type estimateReq struct {
	Category      pricing.Category      `json:"category"`
	VehicleType   string                `json:"vehicle_type"`
	VehicleModel  string                `json:"vehicle_model"`
	TripType      pricing.TripType      `json:"trip_type"`
	PaymentMethod pricing.PaymentMethod `json:"payment_method"`
	Pickup        *types.Point          `json:"pickup"`
	Destination   *types.Point          `json:"destination"`
}

type estimateResp struct {
	Trip location.Trip       `json:"trip"`
	Fare pricing.Fare        `json:"fare"`
	Plan pricing.PaymentPlan `json:"payment"`
}

func (h *RiderHandler) EstimateFare(c *gin.Context) {
	var req estimateReq
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Pickup == nil || req.Destination == nil {
		writeDomainError(c, fmt.Errorf("pickup and destination are required: %w", location.ErrInvalidCoordinates))
		return
	}
	if req.TripType == "" {
		req.TripType = pricing.TripOneWay
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = pricing.PaymentUPI
	}
	ctx := c.Request.Context()
	trip, err := h.trips.Estimate(ctx, *req.Pickup, *req.Destination)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	q, err := h.fares.Quote(ctx, pricing.QuoteRequest{
		Key: pricing.Key{
			Category:     req.Category,
			VehicleType:  req.VehicleType,
			VehicleModel: req.VehicleModel,
			TripType:     req.TripType,
		},
		DistanceKm:    trip.DistanceKm,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, estimateResp{Trip: trip, Fare: q.Fare, Plan: q.Plan})
}

// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devxankit/chalo-sawari-sub001/internal/http/handlers"
	"github.com/devxankit/chalo-sawari-sub001/internal/http/middleware"
	"github.com/devxankit/chalo-sawari-sub001/internal/infra"
)

// BookingAPI is everything the booking routes need; *booking.Service satisfies it.
type BookingAPI interface {
	handlers.BookingService
	handlers.DriverBookingService
	handlers.AdminBookingService
}

type RouterDeps struct {
	Bookings    BookingAPI
	Search      handlers.VehicleSearcher
	Trips       handlers.TripEstimator
	Fares       handlers.FareQuoter
	Vehicles    handlers.VehicleLocations
	Verifier    infra.TokenVerifier
	Log         logrus.FieldLogger
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Log),
		middleware.Recovery(deps.Log),
		cors.New(corsConfig(deps.CORSOrigins)),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	rider := handlers.NewRiderHandler(deps.Search, deps.Trips, deps.Fares)
	api.POST("/fares/estimate", rider.EstimateFare)
	api.POST("/vehicles/search", middleware.RequireRole("rider", "admin"), rider.Search)

	location := handlers.NewLocationHandler(deps.Vehicles)
	api.PUT("/vehicles/:id/location", middleware.RequireRole("driver", "admin"), location.Update)

	bookings := handlers.NewBookingHandler(deps.Bookings)
	api.POST("/bookings", bookings.Create)
	api.GET("/bookings/:id", bookings.Get)
	api.GET("/bookings/:id/start-code", bookings.StartCode)
	api.POST("/bookings/:id/cancel", bookings.Cancel)
	api.POST("/bookings/:id/payment/online", bookings.ConfirmOnlinePayment)

	driver := handlers.NewDriverHandler(deps.Bookings)
	api.POST("/bookings/:id/accept", driver.Accept)
	api.POST("/bookings/:id/start", driver.Start)
	api.POST("/bookings/:id/complete", driver.Complete)
	api.POST("/bookings/:id/payment/cash", driver.CollectCash)

	admin := handlers.NewAdminHandler(deps.Bookings)
	adminGroup := api.Group("/admin", middleware.RequireRole("admin"))
	adminGroup.POST("/bookings/:id/status", admin.OverrideStatus)
	adminGroup.POST("/bookings/:id/fare", admin.CorrectFare)
	adminGroup.POST("/bookings/:id/refund", admin.ProcessRefund)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

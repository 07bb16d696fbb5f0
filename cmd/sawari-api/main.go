// README: Entry point; loads config, wires stores and services, and serves the booking API until SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/devxankit/chalo-sawari-sub001/internal/config"
	httptransport "github.com/devxankit/chalo-sawari-sub001/internal/http"
	"github.com/devxankit/chalo-sawari-sub001/internal/infra"
	"github.com/devxankit/chalo-sawari-sub001/internal/logger"
	"github.com/devxankit/chalo-sawari-sub001/internal/maps"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/availability"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/booking"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/otp"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("SAWARI_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.WithError(err).Fatal("firebase init")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.WithError(err).Fatal("postgres")
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}
	defer redisClient.Close()

	var events booking.Publisher
	if cfg.AMQP.URL != "" {
		pub, err := infra.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.WithError(err).Fatal("amqp")
		}
		defer pub.Close()
		events = pub
	} else {
		log.Warn("SAWARI_AMQP_URL not set; lifecycle events are only logged")
	}

	var routes location.RoutePlanner
	if cfg.Maps.APIKey != "" {
		rs, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.WithError(err).Fatal("maps client")
		}
		routes = rs
	}

	pricingSvc := pricing.NewService(
		pricing.NewStore(dbPool),
		pricing.NewRedisCache(redisClient, cfg.Pricing.CacheTTL),
		cfg.Booking.OnlineSharePct,
		log,
	)

	vehicleStore := vehicle.NewStore(dbPool)
	vehicleSvc := vehicle.NewService(vehicleStore)
	locks := vehicle.NewLockCoordinator(vehicleStore, log)

	bookingStore := booking.NewStore(dbPool)
	bookingSvc := booking.NewService(booking.Deps{
		Repo:     bookingStore,
		Vehicles: vehicleSvc,
		Quotes:   pricingSvc,
		Locks:    locks,
		Codes:    otp.NewService(otp.NewRedisStore(redisClient), cfg.Booking.OTPTTL),
		Events:   events,
		Log:      log,
		Options: booking.Options{
			RefundWindow:    cfg.Booking.RefundWindow,
			RequireStartOTP: cfg.Booking.RequireStartOTP,
		},
	})

	searchSvc := availability.NewService(vehicleSvc, bookingStore, pricingSvc, log)
	locationSvc := location.NewService(routes, log)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:    bookingSvc,
		Search:      searchSvc,
		Trips:       locationSvc,
		Fares:       pricingSvc,
		Vehicles:    vehicleSvc,
		Verifier:    verifier,
		Log:         log,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	if err := httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx); err != nil {
		log.WithError(err).Fatal("http server")
	}
}

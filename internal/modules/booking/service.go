// README: Booking service implements creation, lifecycle transitions, and payment bookkeeping.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/location"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
	"github.com/devxankit/chalo-sawari-sub001/internal/modules/vehicle"
	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrRefundWindowExpired = errors.New("refund window expired")
	ErrConflict            = errors.New("booking state conflict")
	ErrBadRequest          = errors.New("bad request")
	ErrVehicleUnavailable  = errors.New("vehicle not available for booking")
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	// Update writes b only if the stored row is still at (from, version); it bumps the version.
	Update(ctx context.Context, b *Booking, from Status, version int) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type Vehicles interface {
	Get(ctx context.Context, id types.ID) (*vehicle.Vehicle, error)
}

type Quoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.Quote, error)
	Split(category pricing.Category, method pricing.PaymentMethod, total int64) pricing.PaymentPlan
}

type VehicleLocks interface {
	Lock(ctx context.Context, vehicleID, bookingID types.ID) error
	Unlock(ctx context.Context, vehicleID, bookingID types.ID) error
	Sync(ctx context.Context, vehicleID, bookingID types.ID, blocking bool) error
}

type StartCodes interface {
	Issue(ctx context.Context, key string) (string, error)
	Peek(ctx context.Context, key string) (string, error)
	Verify(ctx context.Context, key, code string) error
	Discard(ctx context.Context, key string) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Options struct {
	RefundWindow    time.Duration
	RequireStartOTP bool
}

type Deps struct {
	Repo     Repository
	Vehicles Vehicles
	Quotes   Quoter
	Locks    VehicleLocks
	Codes    StartCodes // optional
	Events   Publisher  // optional
	Log      logrus.FieldLogger
	Clock    func() time.Time
	Options  Options
}

type Service struct {
	repo     Repository
	vehicles Vehicles
	quotes   Quoter
	locks    VehicleLocks
	codes    StartCodes
	events   Publisher
	log      logrus.FieldLogger
	now      func() time.Time
	opts     Options
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		vehicles: d.Vehicles,
		quotes:   d.Quotes,
		locks:    d.Locks,
		codes:    d.Codes,
		events:   d.Events,
		log:      d.Log,
		now:      d.Clock,
		opts:     d.Options,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

type CreateCommand struct {
	Rider         Actor
	VehicleID     types.ID
	Pickup        types.Place
	Destination   types.Place
	Date          types.Date
	ReturnDate    types.Date
	Time          string
	Passengers    int
	TripType      pricing.TripType
	PaymentMethod pricing.PaymentMethod
}

type StartCommand struct {
	BookingID types.ID
	Actor     Actor
	OTP       string
}

type CompleteCommand struct {
	BookingID         types.ID
	Actor             Actor
	ActualDistanceKm  float64
	ActualDurationMin int
	ActualFare        int64
	Notes             string
}

type CancelCommand struct {
	BookingID types.ID
	Actor     Actor
	Reason    string
}

type OverrideCommand struct {
	BookingID types.ID
	Actor     Actor
	Status    string
	Reason    string
}

type OnlinePaymentCommand struct {
	BookingID types.ID
	Actor     Actor
	Success   bool
	Reference string
}

type FareCorrectionCommand struct {
	BookingID   types.ID
	Actor       Actor
	TotalAmount int64
	Reason      string
}

// Create prices the trip, claims the vehicle, and stores the booking as pending.
// The claim happens first; if the insert then fails the claim is released.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if err := Authorize(ActionCreate, cmd.Rider.Role); err != nil {
		return nil, err
	}
	if cmd.Rider.ID == "" || cmd.VehicleID == "" || !cmd.PaymentMethod.Valid() {
		return nil, ErrBadRequest
	}
	if cmd.Pickup.IsZero() || cmd.Destination.IsZero() {
		return nil, fmt.Errorf("pickup and destination are required: %w", location.ErrInvalidCoordinates)
	}
	details, err := tripDetails(cmd)
	if err != nil {
		return nil, err
	}
	km, err := location.DistanceKm(cmd.Pickup.Point, cmd.Destination.Point)
	if err != nil {
		return nil, err
	}
	details.DistanceKm = km
	details.DurationMin = location.EstimatedDurationMin(km)

	v, err := s.vehicles.Get(ctx, cmd.VehicleID)
	if err != nil {
		return nil, err
	}
	if !v.Searchable() {
		return nil, ErrVehicleUnavailable
	}
	if v.Seats > 0 && details.Passengers > v.Seats {
		return nil, ErrBadRequest
	}

	q, err := s.quotes.Quote(ctx, pricing.QuoteRequest{
		Key:           v.PricingRef.Key(details.TripType),
		DistanceKm:    km,
		PaymentMethod: cmd.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &Booking{
		ID:            newID(),
		Number:        newNumber(now),
		RiderID:       cmd.Rider.ID,
		DriverID:      v.Driver.ID,
		VehicleID:     v.ID,
		Status:        StatusPending,
		StatusVersion: 0,
		Details:       details,
		Pricing: Pricing{
			Category:    v.PricingRef.Category,
			BasePrice:   q.Fare.BasePrice,
			TierKm:      q.Fare.TierKm,
			RatePerKm:   q.Fare.RatePerKm,
			DistanceKm:  km,
			TotalAmount: q.Fare.TotalAmount,
		},
		Payment:   paymentFor(q.Plan),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.locks.Lock(ctx, b.VehicleID, b.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.release(ctx, b)
		return nil, err
	}
	s.record(ctx, b, StatusNone, StatusPending, cmd.Rider, "")
	return b, nil
}

func tripDetails(cmd CreateCommand) (TripDetails, error) {
	if cmd.Passengers <= 0 || cmd.Date.IsZero() {
		return TripDetails{}, ErrBadRequest
	}
	clock, err := types.ParseClock(cmd.Time)
	if err != nil {
		return TripDetails{}, ErrBadRequest
	}
	trip := cmd.TripType
	if trip == "" {
		trip = pricing.TripOneWay
		if !cmd.ReturnDate.IsZero() {
			trip = pricing.TripReturn
		}
	}
	if !trip.Valid() {
		return TripDetails{}, ErrBadRequest
	}
	ret := cmd.ReturnDate
	switch {
	case trip == pricing.TripOneWay && !ret.IsZero():
		return TripDetails{}, ErrBadRequest
	case trip == pricing.TripReturn && ret.IsZero():
		ret = cmd.Date
	case !ret.IsZero() && ret.Before(cmd.Date):
		return TripDetails{}, ErrBadRequest
	}
	return TripDetails{
		Pickup:      cmd.Pickup,
		Destination: cmd.Destination,
		Date:        cmd.Date,
		ReturnDate:  ret,
		Time:        clock,
		Passengers:  cmd.Passengers,
		TripType:    trip,
	}, nil
}

func paymentFor(plan pricing.PaymentPlan) Payment {
	p := Payment{Method: plan.Method, Status: PaymentPending, IsPartial: plan.Partial}
	if plan.Partial {
		p.Partial = &PartialPayment{
			OnlineAmount: plan.Online,
			CashAmount:   plan.Cash,
			OnlineStatus: PaymentPending,
			CashStatus:   CashPending,
		}
	}
	return p
}

func (s *Service) Get(ctx context.Context, id types.ID, actor Actor) (*Booking, error) {
	if err := Authorize(ActionView, actor.Role); err != nil {
		return nil, err
	}
	return s.load(ctx, id, actor)
}

func (s *Service) Accept(ctx context.Context, id types.ID, actor Actor) (*Booking, error) {
	b, err := s.transition(ctx, id, actor, ActionAccept, StatusAccepted, "", func(b *Booking, now time.Time) error {
		b.AcceptedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.startOTPRequired() {
		if _, err := s.codes.Issue(ctx, otpKey(b.ID)); err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("start otp not issued")
		}
	}
	return b, nil
}

// StartCode returns the rider's trip-start code, issuing a fresh one if the last expired.
func (s *Service) StartCode(ctx context.Context, id types.ID, actor Actor) (string, error) {
	if actor.Role != RoleRider && actor.Role != RoleAdmin {
		return "", ErrNotAuthorized
	}
	b, err := s.load(ctx, id, actor)
	if err != nil {
		return "", err
	}
	if !s.startOTPRequired() || b.Status != StatusAccepted {
		return "", ErrInvalidTransition
	}
	code, err := s.codes.Peek(ctx, otpKey(b.ID))
	if err == nil {
		return code, nil
	}
	return s.codes.Issue(ctx, otpKey(b.ID))
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Booking, error) {
	b, err := s.transition(ctx, cmd.BookingID, cmd.Actor, ActionStart, StatusStarted, "", func(b *Booking, now time.Time) error {
		if s.startOTPRequired() {
			if err := s.codes.Verify(ctx, otpKey(b.ID), cmd.OTP); err != nil {
				return err
			}
		}
		b.Trip = &TripRecord{StartTime: &now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.startOTPRequired() {
		if err := s.codes.Discard(ctx, otpKey(b.ID)); err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("start otp not discarded")
		}
	}
	return b, nil
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, cmd.Actor, ActionComplete, StatusCompleted, cmd.Notes, func(b *Booking, now time.Time) error {
		finishTrip(b, now, cmd)
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, cmd.Actor, ActionCancel, StatusCancelled, cmd.Reason, func(b *Booking, now time.Time) error {
		cancelBooking(b, cmd.Actor, now, cmd.Reason)
		return nil
	})
}

// AdminOverride forces any status change and applies the same side effects as the regular path.
func (s *Service) AdminOverride(ctx context.Context, cmd OverrideCommand) (*Booking, error) {
	if err := Authorize(ActionOverride, cmd.Actor.Role); err != nil {
		return nil, err
	}
	to, ok := ParseStatus(cmd.Status)
	if !ok {
		return nil, ErrBadRequest
	}
	b, err := s.load(ctx, cmd.BookingID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if b.Status == to {
		return nil, ErrInvalidTransition
	}
	return s.apply(ctx, b, cmd.Actor, to, cmd.Reason, func(b *Booking, now time.Time) error {
		switch to {
		case StatusAccepted:
			if b.AcceptedAt == nil {
				b.AcceptedAt = &now
			}
		case StatusStarted:
			if b.Trip == nil {
				b.Trip = &TripRecord{StartTime: &now}
			}
		case StatusCompleted:
			finishTrip(b, now, CompleteCommand{Notes: cmd.Reason})
		case StatusCancelled:
			cancelBooking(b, cmd.Actor, now, cmd.Reason)
		}
		// A booking never carries both a cancellation and a finished trip.
		if to.Blocking() || to == StatusCompleted {
			b.Cancellation = nil
		}
		return nil
	})
}

func (s *Service) ConfirmOnlinePayment(ctx context.Context, cmd OnlinePaymentCommand) (*Booking, error) {
	if err := Authorize(ActionConfirmOnline, cmd.Actor.Role); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, cmd.BookingID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}
	result := PaymentCompleted
	if !cmd.Success {
		result = PaymentFailed
	}
	if b.Payment.IsPartial && b.Payment.Partial != nil {
		b.Payment.Partial.OnlineStatus = result
		// A successful retry clears an earlier failure; reconcile decides on completion.
		b.Payment.Status = PaymentPending
		if !cmd.Success {
			b.Payment.Status = PaymentFailed
		}
	} else {
		b.Payment.Status = result
	}
	b.Payment.reconcile()
	return s.save(ctx, b, cmd.Actor, "online_payment "+string(result)+" "+cmd.Reference)
}

// CollectCash records the cash half of a split payment. Collecting twice is a no-op.
func (s *Service) CollectCash(ctx context.Context, id types.ID, actor Actor) (*Booking, error) {
	if err := Authorize(ActionCollectCash, actor.Role); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !b.Payment.IsPartial || b.Payment.Partial == nil {
		return nil, ErrBadRequest
	}
	if b.Status != StatusStarted && b.Status != StatusCompleted {
		return nil, ErrInvalidTransition
	}
	if b.Payment.Partial.CashStatus == CashCollected {
		return b, nil
	}
	now := s.now()
	collector := actor.ID
	b.Payment.Partial.CashStatus = CashCollected
	b.Payment.Partial.CollectedAt = &now
	b.Payment.Partial.CollectedBy = &collector
	b.Payment.reconcile()
	return s.save(ctx, b, actor, "cash_collected")
}

// CorrectFare is the only path that changes a booking's total after creation.
func (s *Service) CorrectFare(ctx context.Context, cmd FareCorrectionCommand) (*Booking, error) {
	if err := Authorize(ActionCorrectFare, cmd.Actor.Role); err != nil {
		return nil, err
	}
	if cmd.TotalAmount <= 0 {
		return nil, pricing.ErrFareUnavailable
	}
	b, err := s.load(ctx, cmd.BookingID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}
	plan := s.quotes.Split(b.Pricing.Category, b.Payment.Method, cmd.TotalAmount)
	b.Pricing.TotalAmount = types.Rupees(cmd.TotalAmount)
	if b.Payment.IsPartial && b.Payment.Partial != nil {
		b.Payment.Partial.OnlineAmount = plan.Online
		b.Payment.Partial.CashAmount = plan.Cash
	}
	return s.save(ctx, b, cmd.Actor, strings.TrimSpace("fare_correction "+cmd.Reason))
}

// ProcessRefund settles a cancellation's refund while the refund window is open.
func (s *Service) ProcessRefund(ctx context.Context, id types.ID, actor Actor) (*Booking, error) {
	if err := Authorize(ActionRefund, actor.Role); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusCancelled || b.Cancellation == nil {
		return nil, ErrInvalidTransition
	}
	if b.Cancellation.RefundStatus == RefundProcessed {
		return b, nil
	}
	now := s.now()
	if s.opts.RefundWindow > 0 && now.Sub(b.Cancellation.At) > s.opts.RefundWindow {
		return nil, ErrRefundWindowExpired
	}
	b.Cancellation.RefundStatus = RefundProcessed
	b.Cancellation.RefundedAt = &now
	if b.Cancellation.RefundAmount.Amount > 0 {
		b.Payment.Status = PaymentRefunded
	}
	return s.save(ctx, b, actor, "refund_processed")
}

type mutation func(b *Booking, now time.Time) error

func (s *Service) transition(ctx context.Context, id types.ID, actor Actor, action Action, to Status, reason string, mutate mutation) (*Booking, error) {
	if err := Authorize(action, actor.Role); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidTransition
	}
	return s.apply(ctx, b, actor, to, reason, mutate)
}

// apply writes the status change and keeps the vehicle lock in step with it. Entering a
// blocking status claims the vehicle before the write; leaving one releases it after.
func (s *Service) apply(ctx context.Context, b *Booking, actor Actor, to Status, reason string, mutate mutation) (*Booking, error) {
	from, version := b.Status, b.StatusVersion
	now := s.now()
	if mutate != nil {
		if err := mutate(b, now); err != nil {
			return nil, err
		}
	}
	b.Status = to
	b.UpdatedAt = now

	claimed := false
	if to.Blocking() && !from.Blocking() {
		if err := s.locks.Lock(ctx, b.VehicleID, b.ID); err != nil {
			return nil, err
		}
		claimed = true
	}

	ok, err := s.repo.Update(ctx, b, from, version)
	if err == nil && !ok {
		err = ErrConflict
	}
	if err != nil {
		if claimed {
			s.release(ctx, b)
		}
		return nil, err
	}
	b.StatusVersion = version + 1

	// Only release here. Re-locking after a blocking-to-blocking write could resurrect a claim
	// that a later cancel already cleared.
	if !to.Blocking() {
		if err := s.locks.Sync(ctx, b.VehicleID, b.ID, false); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"booking_id": b.ID,
				"vehicle_id": b.VehicleID,
				"to":         to,
			}).Error("vehicle lock sync failed")
		}
	}
	s.record(ctx, b, from, to, actor, reason)
	return b, nil
}

// save persists a change that keeps the current status (payments, fare, refunds).
func (s *Service) save(ctx context.Context, b *Booking, actor Actor, reason string) (*Booking, error) {
	version := b.StatusVersion
	b.UpdatedAt = s.now()
	ok, err := s.repo.Update(ctx, b, b.Status, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	b.StatusVersion = version + 1
	s.record(ctx, b, b.Status, b.Status, actor, reason)
	return b, nil
}

func (s *Service) load(ctx context.Context, id types.ID, actor Actor) (*Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.involves(actor) {
		return nil, ErrNotAuthorized
	}
	return b, nil
}

func (s *Service) release(ctx context.Context, b *Booking) {
	if err := s.locks.Unlock(ctx, b.VehicleID, b.ID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": b.ID,
			"vehicle_id": b.VehicleID,
		}).Error("vehicle release failed")
	}
}

func (s *Service) record(ctx context.Context, b *Booking, from, to Status, actor Actor, reason string) {
	var actorID *types.ID
	if actor.ID != "" {
		id := actor.ID
		actorID = &id
	}
	e := &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorRole:  actor.Role,
		ActorID:    actorID,
		Reason:     reason,
		CreatedAt:  b.UpdatedAt,
	}
	fields := logrus.Fields{
		"booking_id": b.ID,
		"vehicle_id": b.VehicleID,
		"from":       from,
		"to":         to,
		"actor_role": actor.Role,
	}
	if err := s.repo.AppendEvent(ctx, e); err != nil {
		s.log.WithError(err).WithFields(fields).Warn("booking event not recorded")
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, routingKey(to), newLifecycleEvent(b, e)); err != nil {
			s.log.WithError(err).WithFields(fields).Warn("booking event not published")
		}
	}
	s.log.WithFields(fields).Info("booking updated")
}

func (s *Service) startOTPRequired() bool {
	return s.opts.RequireStartOTP && s.codes != nil
}

func finishTrip(b *Booking, now time.Time, cmd CompleteCommand) {
	if b.Trip == nil {
		b.Trip = &TripRecord{}
	}
	b.Trip.EndTime = &now
	b.Trip.ActualDistanceKm = b.Details.DistanceKm
	if cmd.ActualDistanceKm > 0 {
		b.Trip.ActualDistanceKm = cmd.ActualDistanceKm
	}
	b.Trip.ActualDurationMin = b.Details.DurationMin
	if cmd.ActualDurationMin > 0 {
		b.Trip.ActualDurationMin = cmd.ActualDurationMin
	}
	b.Trip.ActualFare = b.Pricing.TotalAmount.Amount
	if cmd.ActualFare > 0 {
		b.Trip.ActualFare = cmd.ActualFare
	}
	b.Trip.DriverNotes = cmd.Notes
}

func cancelBooking(b *Booking, actor Actor, now time.Time, reason string) {
	b.Cancellation = &Cancellation{
		By:           actor,
		At:           now,
		Reason:       reason,
		RefundAmount: types.Rupees(paidOnline(b)),
		RefundStatus: RefundPending,
	}
}

// paidOnline is what the rider has already paid through the gateway.
func paidOnline(b *Booking) int64 {
	if b.Payment.IsPartial && b.Payment.Partial != nil {
		if b.Payment.Partial.OnlineStatus == PaymentCompleted {
			return b.Payment.Partial.OnlineAmount.Amount
		}
		return 0
	}
	if b.Payment.Status == PaymentCompleted {
		return b.Pricing.TotalAmount.Amount
	}
	return 0
}

func otpKey(id types.ID) string {
	return "booking:" + string(id) + ":start"
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

// newNumber builds the rider-facing booking number, e.g. CS240501A1B2C3.
func newNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "CS" + now.Format("060102") + strings.ToUpper(suffix)
}

// README: Vehicle lock coordinator; the only writer of a vehicle's booking lock.
package vehicle

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

var (
	ErrVehicleAlreadyBooked = errors.New("vehicle already booked")
	ErrVehicleNotFound      = errors.New("vehicle not found")
)

// Locker performs the conditional lock writes. Claim must be a single atomic
// compare-and-set; Release must only clear a lock held by the given booking.
type Locker interface {
	Claim(ctx context.Context, vehicleID, bookingID types.ID) error
	Release(ctx context.Context, vehicleID, bookingID types.ID) error
}

type LockCoordinator struct {
	locks Locker
	log   logrus.FieldLogger
}

func NewLockCoordinator(locks Locker, log logrus.FieldLogger) *LockCoordinator {
	return &LockCoordinator{locks: locks, log: log}
}

// Lock claims the vehicle for bookingID. Claiming a vehicle the booking already holds succeeds.
func (c *LockCoordinator) Lock(ctx context.Context, vehicleID, bookingID types.ID) error {
	if err := c.locks.Claim(ctx, vehicleID, bookingID); err != nil {
		if errors.Is(err, ErrVehicleAlreadyBooked) || errors.Is(err, ErrVehicleNotFound) {
			return err
		}
		return fmt.Errorf("claim vehicle %s: %w", vehicleID, err)
	}
	c.log.WithFields(logrus.Fields{"vehicle_id": vehicleID, "booking_id": bookingID}).Debug("vehicle locked")
	return nil
}

// Unlock releases the vehicle if bookingID holds it. Releasing twice is a no-op.
func (c *LockCoordinator) Unlock(ctx context.Context, vehicleID, bookingID types.ID) error {
	if err := c.locks.Release(ctx, vehicleID, bookingID); err != nil {
		return fmt.Errorf("release vehicle %s: %w", vehicleID, err)
	}
	c.log.WithFields(logrus.Fields{"vehicle_id": vehicleID, "booking_id": bookingID}).Debug("vehicle released")
	return nil
}

// Sync brings the lock in line with a booking's status after a status write.
func (c *LockCoordinator) Sync(ctx context.Context, vehicleID, bookingID types.ID, blocking bool) error {
	if blocking {
		return c.Lock(ctx, vehicleID, bookingID)
	}
	return c.Unlock(ctx, vehicleID, bookingID)
}

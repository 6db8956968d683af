package device

import (
	"errors"
	"fmt"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidTransition) {
//	    // device was in the wrong state
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when input validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrCheckoutUserRequired is returned by Checkout when no user is given.
	ErrCheckoutUserRequired = fmt.Errorf("%w: user is required for checkout", ErrInvalidDevice)

	// ErrSerialExists is returned when another device already has the serial number.
	ErrSerialExists = errors.New("device: serial number already exists")

	// ErrInvalidTransition is returned when a checkout or checkin does not
	// fit the device's current status.
	ErrInvalidTransition = errors.New("device: invalid state transition")

	// ErrNotAvailable is returned when checking out a device that is already checked out.
	ErrNotAvailable = fmt.Errorf("%w: device is not available", ErrInvalidTransition)

	// ErrNotCheckedOut is returned when checking in a device that is not checked out.
	ErrNotCheckedOut = fmt.Errorf("%w: device is not checked out", ErrInvalidTransition)

	// ErrStorage wraps repository failures.
	ErrStorage = errors.New("device: storage failure")
)

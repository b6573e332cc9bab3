package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrGarageNotFound    = errors.New("garage not found")
	ErrGarageUnavailable = errors.New("garage is not accepting bookings")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrVehicleNotOwned   = errors.New("vehicle does not belong to user")
	ErrNoServiceItems    = errors.New("no service items requested")
	ErrStartInPast       = errors.New("requested start time is in the past")
	ErrRecordNotFound    = errors.New("service record not found")
	ErrNotOwner          = errors.New("service record does not belong to user")
	ErrWrongGarage       = errors.New("service record does not belong to garage")
)

// ServiceItemError: item yang diminta tidak ada / non-aktif / bukan punya
// bengkel itu.
type ServiceItemError struct {
	ItemID string
}

func (e *ServiceItemError) Error() string {
	return fmt.Sprintf("service item not offered by garage: %s", e.ItemID)
}

// ConflictError: slot bentrok dengan booking lain di bengkel yang sama.
type ConflictError struct {
	GarageID         string
	RequestedStart   time.Time
	ConflictingStart time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("garage %s: requested slot %s conflicts with existing booking at %s",
		e.GarageID, e.RequestedStart.Format(time.RFC3339), e.ConflictingStart.Format(time.RFC3339))
}

type InvalidTransitionError struct {
	RecordID string
	From     RecordStatus
	To       RecordStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("service record %s: invalid transition %s -> %s", e.RecordID, e.From, e.To)
}

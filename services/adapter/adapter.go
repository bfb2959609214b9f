package adapter

import "context"

// AvailabilityResult is the adapter's answer for one availability check.
type AvailabilityResult struct {
	PropertyID     string `json:"property_id"`
	RoomType       string `json:"room_type"`
	AvailableCount int    `json:"available_count"`
}

// GuestInfo identifies the guest a booking is committed for.
type GuestInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingConfirmation is the adapter's acknowledgement of a committed booking.
type BookingConfirmation struct {
	ConfirmationID string  `json:"confirmation_id"`
	Amount         float64 `json:"amount"`
}

// DomainAdapter is the only surface the gateway core depends on for talking
// to a property-management system. One implementation exists per PMS; the
// retry and circuit-breaker decorators wrap this interface so callers never
// see backoff or failure-isolation details.
type DomainAdapter interface {
	CheckAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (*AvailabilityResult, error)
	CommitBooking(ctx context.Context, propertyID, roomType, checkIn, checkOut string, guest GuestInfo, amount float64) (*BookingConfirmation, error)
}

package transaction

import (
	"context"

	"stayloom/models"
)

// BookingRequest carries everything needed to execute one booking. When
// SessionID names an ACCEPTED negotiation, its negotiated price is used;
// otherwise the booking executes at the current base price.
type BookingRequest struct {
	PropertyID string
	AgentID    string
	RoomType   string
	CheckIn    string
	CheckOut   string
	GuestName  string
	GuestEmail string
	SessionID  string
}

// Manager executes accepted bookings with an at-most-once guarantee per
// idempotency key.
type Manager interface {
	// ExecuteBooking commits the booking through the domain adapter. An
	// empty idempotencyKey is derived deterministically from the request
	// fields. Repeating a COMMITTED key with the same payload replays the
	// original result; a different payload under the same key is Conflict.
	ExecuteBooking(ctx context.Context, req BookingRequest, idempotencyKey string) (*models.TransactionResult, error)
}

// OutcomeNotifier receives transaction outcomes so reputation adjustments
// can run outside the booking path.
type OutcomeNotifier interface {
	BookingOutcome(ctx context.Context, agentID string, committed bool) error
}

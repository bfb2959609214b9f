package models

import "time"

// Transaction statuses. A COMMITTED transaction is immutable; a FAILED one
// does not block a later retry under the same idempotency key.
const (
	TxPending   = "PENDING"
	TxCommitted = "COMMITTED"
	TxFailed    = "FAILED"
)

// Transaction is the record of one booking execution attempt keyed by its
// idempotency key. At most one COMMITTED transaction exists per key.
type Transaction struct {
	TransactionID  string    `bson:"transaction_id" json:"transaction_id"`
	IdempotencyKey string    `bson:"_id" json:"idempotency_key"`
	Status         string    `bson:"status" json:"status"`
	SessionID      string    `bson:"session_id,omitempty" json:"session_id,omitempty"`
	PropertyID     string    `bson:"property_id" json:"property_id"`
	RoomType       string    `bson:"room_type" json:"room_type"`
	CheckIn        string    `bson:"check_in" json:"check_in"`
	CheckOut       string    `bson:"check_out" json:"check_out"`
	GuestEmail     string    `bson:"guest_email" json:"guest_email"`
	Amount         float64   `bson:"amount" json:"amount"`
	PayloadHash    string    `bson:"payload_hash" json:"-"`
	ConfirmationID string    `bson:"confirmation_id,omitempty" json:"confirmation_id,omitempty"`
	FailureReason  string    `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// TransactionResult is what callers of ExecuteBooking observe. Replayed is
// true when the result was served from a prior COMMITTED transaction with
// no new side effects.
type TransactionResult struct {
	TransactionID  string  `json:"transaction_id"`
	Status         string  `json:"status"`
	ConfirmationID string  `json:"confirmation_id,omitempty"`
	Amount         float64 `json:"amount"`
	Replayed       bool    `json:"replayed"`
}

package transactionRepo

import (
	"context"
	"errors"

	"stayloom/models"
)

// ErrNotFound is returned when no transaction matches the given key.
var ErrNotFound = errors.New("transaction not found")

// ClaimOutcome describes who owns an idempotency key after a claim attempt.
type ClaimOutcome int

const (
	// ClaimAcquired means the caller now owns the key and must proceed
	// with the booking, then mark the transaction COMMITTED or FAILED.
	ClaimAcquired ClaimOutcome = iota
	// ClaimPending means another call is in flight for the same key.
	ClaimPending
	// ClaimCommitted means a COMMITTED transaction already exists for the
	// key; the returned transaction is its immutable record.
	ClaimCommitted
	// ClaimRefused means a FAILED transaction holds the key with a
	// different payload; the key is ambiguous and must not be reclaimed.
	ClaimRefused
)

// TransactionRepository persists booking transactions keyed by idempotency
// key. Claim is the single atomic gate: for any key, at most one caller at
// a time holds a PENDING claim, and at most one COMMITTED transaction ever
// exists. A FAILED transaction does not block a later claim with the same
// payload; a different payload is refused.
type TransactionRepository interface {
	Claim(ctx context.Context, candidate *models.Transaction) (*models.Transaction, ClaimOutcome, error)
	MarkCommitted(ctx context.Context, idempotencyKey, confirmationID string) (*models.Transaction, error)
	MarkFailed(ctx context.Context, idempotencyKey, reason string) error
	GetByKey(ctx context.Context, idempotencyKey string) (*models.Transaction, error)
}

package models

import "time"

// CommissionEntry is one append-only revenue-share record, written exactly
// once per COMMITTED transaction.
type CommissionEntry struct {
	TransactionID    string    `bson:"transaction_id" json:"transaction_id"`
	PropertyID       string    `bson:"property_id" json:"property_id"`
	RateTier         string    `bson:"rate_tier" json:"rate_tier"`
	CommissionAmount float64   `bson:"commission_amount" json:"commission_amount"`
	BookingAmount    float64   `bson:"booking_amount" json:"booking_amount"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

// CommissionTotal is the per-property running aggregate, updated in the
// same transaction as each entry insert so the ledger stays consistent.
type CommissionTotal struct {
	PropertyID string    `bson:"_id" json:"property_id"`
	Total      float64   `bson:"total" json:"total"`
	EntryCount int64     `bson:"entry_count" json:"entry_count"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

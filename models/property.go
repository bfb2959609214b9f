package models

import "time"

// Property tiers drive the commission rate applied to committed bookings.
const (
	TierStandard = "standard"
	TierLuxury   = "luxury"
)

// Property represents a bookable property managed by a downstream PMS.
// BaseRates maps room type (e.g. "deluxe_king") to the nightly base rate.
// IsActive is always read fresh from the store; a paused property rejects
// new negotiations and bookings immediately.
type Property struct {
	PropertyID string             `bson:"property_id" json:"property_id"`
	Name       string             `bson:"name" json:"name"`
	Tier       string             `bson:"tier" json:"tier"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	BaseRates  map[string]float64 `bson:"base_rates" json:"base_rates"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

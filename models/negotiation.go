package models

import "time"

// Negotiation session statuses. Terminal statuses are final; no further
// offers are accepted once one is reached.
const (
	SessionOpen     = "OPEN"
	SessionAccepted = "ACCEPTED"
	SessionRejected = "REJECTED"
	SessionExpired  = "EXPIRED"
)

// Offer actors.
const (
	OfferByEngine = "engine"
	OfferByAgent  = "agent"
)

// Offer is a single entry in a session's ordered offer history.
type Offer struct {
	Actor string    `bson:"actor" json:"actor"`
	Price float64   `bson:"price" json:"price"`
	Round int       `bson:"round" json:"round"`
	At    time.Time `bson:"at" json:"at"`
}

// QuoteTerms carries the non-price terms attached to a quote.
type QuoteTerms struct {
	CancellationHours int      `bson:"cancellation_hours" json:"cancellation_hours"`
	Inclusions        []string `bson:"inclusions" json:"inclusions"`
}

// Quote is the engine's current priced offer for a session.
type Quote struct {
	Price       float64    `bson:"price" json:"price"`
	DiscountPct float64    `bson:"discount_pct" json:"discount_pct"`
	Terms       QuoteTerms `bson:"terms" json:"terms"`
	ExpiresAt   time.Time  `bson:"expires_at" json:"expires_at"`
}

// NegotiationSession holds the state of one multi-round price negotiation
// between an agent and a property. Mutated only by the negotiation engine,
// under a per-session lock.
type NegotiationSession struct {
	SessionID      string    `bson:"session_id" json:"session_id"`
	PropertyID     string    `bson:"property_id" json:"property_id"`
	AgentID        string    `bson:"agent_id" json:"agent_id"`
	RoomType       string    `bson:"room_type" json:"room_type"`
	CheckIn        string    `bson:"check_in" json:"check_in"`
	CheckOut       string    `bson:"check_out" json:"check_out"`
	RoundCount     int       `bson:"round_count" json:"round_count"`
	Status         string    `bson:"status" json:"status"`
	BasePrice      float64   `bson:"base_price" json:"base_price"`
	DiscountCap    float64   `bson:"discount_cap" json:"discount_cap"`
	CurrentOffer   float64   `bson:"current_offer" json:"current_offer"`
	Offers         []Offer   `bson:"offers" json:"offers"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	LastActivityAt time.Time `bson:"last_activity_at" json:"last_activity_at"`
}

// FloorPrice is the lowest price the engine will ever concede to: the base
// price reduced by the agent's discount cap. Property margin below this is
// never negotiated away.
func (s *NegotiationSession) FloorPrice() float64 {
	return s.BasePrice * (1 - s.DiscountCap)
}

// DiscountPct reports the discount of the current offer relative to base.
func (s *NegotiationSession) DiscountPct() float64 {
	if s.BasePrice <= 0 {
		return 0
	}
	return (s.BasePrice - s.CurrentOffer) / s.BasePrice
}

// Terminal reports whether the session has reached a final status.
func (s *NegotiationSession) Terminal() bool {
	return s.Status != SessionOpen
}

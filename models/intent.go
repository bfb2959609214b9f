package models

import "time"

// Intent types an agent may submit to the gateway.
const (
	IntentDiscover  = "discover"
	IntentNegotiate = "negotiate"
	IntentContinue  = "continue_negotiation"
	IntentExecute   = "execute"
)

// Response statuses on the gateway wire contract.
const (
	StatusAccepted         = "accepted"
	StatusNeedsNegotiation = "needs_negotiation"
	StatusRejected         = "rejected"
	StatusError            = "error"
)

// IntentPayload carries the intent-specific fields. Which fields are
// required depends on the intent type.
type IntentPayload struct {
	RoomType   string  `json:"room_type,omitempty"`
	CheckIn    string  `json:"check_in,omitempty"`
	CheckOut   string  `json:"check_out,omitempty"`
	GuestName  string  `json:"guest_name,omitempty"`
	GuestEmail string  `json:"guest_email,omitempty"`
	SessionID  string  `json:"session_id,omitempty"`
	OfferPrice float64 `json:"offer_price,omitempty"`
}

// Intent is the single submission envelope accepted by the gateway.
type Intent struct {
	IntentType string        `json:"intent_type" binding:"required"`
	PropertyID string        `json:"property_id"`
	AgentID    string        `json:"agent_id" binding:"required"`
	RequestID  string        `json:"request_id,omitempty"`
	Payload    IntentPayload `json:"payload"`
}

// IntentResponse is the gateway's reply envelope.
type IntentResponse struct {
	Status        string `json:"status"`
	SessionID     string `json:"session_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Quote         *Quote `json:"quote,omitempty"`
	Availability  *int   `json:"availability,omitempty"`
	Message       string `json:"message,omitempty"`
}

// IntentAudit is the append-only record of every submitted intent,
// including submissions the middleware rejected before dispatch.
type IntentAudit struct {
	AgentID    string    `bson:"agent_id" json:"agent_id"`
	IntentType string    `bson:"intent_type,omitempty" json:"intent_type,omitempty"`
	PropertyID string    `bson:"property_id,omitempty" json:"property_id,omitempty"`
	RequestID  string    `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Outcome    string    `bson:"outcome" json:"outcome"`
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At         time.Time `bson:"at" json:"at"`
}

package negotiation

import (
	"context"

	"stayloom/models"
)

// StartRequest carries the fields needed to open a negotiation session.
type StartRequest struct {
	PropertyID string
	AgentID    string
	RoomType   string
	CheckIn    string
	CheckOut   string
}

// Engine runs the multi-round negotiation state machine. Sessions move
// OPEN -> (countered -> OPEN)* -> ACCEPTED | REJECTED | EXPIRED; terminal
// statuses are final.
type Engine interface {
	// Discover validates the request and opens a session with a first
	// quote, reporting current availability alongside.
	Discover(ctx context.Context, req StartRequest) (*models.NegotiationSession, int, error)
	// StartNegotiation opens a new OPEN session with the first quote.
	StartNegotiation(ctx context.Context, req StartRequest) (*models.NegotiationSession, error)
	// ContinueNegotiation applies the agent's counter offer to an OPEN
	// session: auto-accept within the discount cap, otherwise a midpoint
	// counter floored at the cap price.
	ContinueNegotiation(ctx context.Context, sessionID, agentID string, counterOffer float64) (*models.NegotiationSession, error)
	// SweepExpired expires OPEN sessions past the inactivity window and
	// archives them. Returns how many sessions were expired.
	SweepExpired(ctx context.Context) (int, error)
	// QuoteFor renders the wire quote for a session.
	QuoteFor(session *models.NegotiationSession) *models.Quote
}

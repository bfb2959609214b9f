package trust

import "context"

// Service is the trust store: read-heavy reputation lookups plus the rare
// per-agent adjustment after a transaction outcome.
type Service interface {
	GetReputation(ctx context.Context, agentID string) (float64, error)
	UpdateReputation(ctx context.Context, agentID string, delta float64) (float64, error)
	DiscountCap(ctx context.Context, agentID string) (float64, error)
}

package agentRepo

import (
	"context"
	"errors"

	"stayloom/models"
)

// ErrNotFound is returned when no agent matches the given ID.
var ErrNotFound = errors.New("agent not found")

// AgentRepository defines methods for agent data access.
type AgentRepository interface {
	// GetByID retrieves an agent by its unique ID.
	GetByID(ctx context.Context, agentID string) (*models.Agent, error)
	// Create inserts a new agent record.
	Create(ctx context.Context, agent *models.Agent) error
	// AdjustReputation applies a delta to the agent's reputation score,
	// clamped to [0, 1], atomically per agent.
	AdjustReputation(ctx context.Context, agentID string, delta float64) (float64, error)
}

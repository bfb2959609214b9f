package trust

import (
	"context"

	"go.uber.org/zap"

	agentRepo "stayloom/database/repository/agent"
	"stayloom/utils"
)

// Reputation deltas applied after transaction outcomes.
const (
	DeltaCommitSuccess = 0.01
	DeltaCommitFailure = -0.02
)

// DefaultTrustService implements Service over the agent repository.
type DefaultTrustService struct {
	Repo   agentRepo.AgentRepository
	Policy DiscountPolicy
	Logger *zap.Logger
}

func (s *DefaultTrustService) GetReputation(ctx context.Context, agentID string) (float64, error) {
	agent, err := s.Repo.GetByID(ctx, agentID)
	if err == agentRepo.ErrNotFound {
		return 0, utils.NewAPIError(utils.KindNotFound, "unknown agent %s", agentID)
	}
	if err != nil {
		return 0, err
	}
	return agent.ReputationScore, nil
}

func (s *DefaultTrustService) UpdateReputation(ctx context.Context, agentID string, delta float64) (float64, error) {
	score, err := s.Repo.AdjustReputation(ctx, agentID, delta)
	if err == agentRepo.ErrNotFound {
		return 0, utils.NewAPIError(utils.KindNotFound, "unknown agent %s", agentID)
	}
	if err != nil {
		return 0, err
	}
	s.Logger.Info("reputation updated",
		zap.String("agentID", agentID),
		zap.Float64("delta", delta),
		zap.Float64("score", score))
	return score, nil
}

func (s *DefaultTrustService) DiscountCap(ctx context.Context, agentID string) (float64, error) {
	score, err := s.GetReputation(ctx, agentID)
	if err != nil {
		return 0, err
	}
	return s.Policy.CapFor(score), nil
}

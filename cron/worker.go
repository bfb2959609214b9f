package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"stayloom/config"
	"stayloom/services/negotiation"
	"stayloom/services/trust"
)

const (
	TypeSessionSweep     = "negotiation:sweep"
	TypeReputationAdjust = "reputation:adjust"
)

// ReputationPayload is the task payload for a reputation adjustment.
type ReputationPayload struct {
	AgentID string  `json:"agent_id"`
	Delta   float64 `json:"delta"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitWorker runs the async worker and the periodic sweep scheduler in the
// background.
func InitWorker(engine negotiation.Engine, trustSvc trust.Service, logger *zap.Logger) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSessionSweep, handleSessionSweep(engine, logger))
	mux.HandleFunc(TypeReputationAdjust, handleReputationAdjust(trustSvc, logger))

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] failed to start async worker: %v", err)
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts(), nil)
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TypeSessionSweep, nil)); err != nil {
		log.Fatalf("[Worker] failed to register sweep schedule: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[Worker] failed to start scheduler: %v", err)
		}
	}()
}

func handleSessionSweep(engine negotiation.Engine, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		expired, err := engine.SweepExpired(ctx)
		if err != nil {
			logger.Error("session sweep failed", zap.Error(err))
			return err
		}
		if expired > 0 {
			logger.Info("session sweep completed", zap.Int("expired", expired))
		}
		return nil
	}
}

func handleReputationAdjust(trustSvc trust.Service, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReputationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reputation payload", zap.Error(err))
			return err
		}
		if _, err := trustSvc.UpdateReputation(ctx, p.AgentID, p.Delta); err != nil {
			logger.Error("reputation adjustment failed",
				zap.String("agentID", p.AgentID), zap.Error(err))
			return err
		}
		return nil
	}
}

// AsynqOutcomeNotifier enqueues reputation adjustments after transaction
// outcomes so the booking path never blocks on the trust store.
type AsynqOutcomeNotifier struct {
	client *asynq.Client
}

// NewAsynqOutcomeNotifier creates the notifier.
func NewAsynqOutcomeNotifier() *AsynqOutcomeNotifier {
	return &AsynqOutcomeNotifier{client: asynq.NewClient(redisOpts())}
}

// BookingOutcome enqueues the reputation delta for the agent.
func (n *AsynqOutcomeNotifier) BookingOutcome(ctx context.Context, agentID string, committed bool) error {
	delta := trust.DeltaCommitSuccess
	if !committed {
		delta = trust.DeltaCommitFailure
	}
	payload, err := json.Marshal(ReputationPayload{AgentID: agentID, Delta: delta})
	if err != nil {
		return fmt.Errorf("failed to marshal reputation payload: %w", err)
	}
	if _, err := n.client.EnqueueContext(ctx, asynq.NewTask(TypeReputationAdjust, payload)); err != nil {
		return fmt.Errorf("failed to enqueue reputation adjustment: %w", err)
	}
	return nil
}

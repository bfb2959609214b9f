package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	propertyRepo "stayloom/database/repository/property"
	sessionRepo "stayloom/database/repository/session"
	"stayloom/models"
	"stayloom/services/inventory"
	"stayloom/services/pricing"
	"stayloom/services/trust"
	"stayloom/utils"
)

const (
	// How long a caller queues for the per-session lock before giving up.
	lockWait     = 2 * time.Second
	lockPollStep = 50 * time.Millisecond
	// TTL on the lock key itself, so a crashed holder cannot wedge a session.
	lockTTL = 10 * time.Second
)

// DefaultEngine implements Engine over the session store, trust store,
// inventory cache and pricing engine.
type DefaultEngine struct {
	Properties propertyRepo.PropertyRepository
	Sessions   sessionRepo.SessionStore
	Archive    sessionRepo.SessionArchive
	Trust      trust.Service
	Inventory  inventory.Service
	Pricing    pricing.Engine
	Logger     *zap.Logger

	MaxRounds     int
	SessionTTL    time.Duration
	MinReputation float64

	now   func() time.Time
	sleep func(time.Duration)
}

// NewDefaultEngine wires the engine with production clock and sleep.
func NewDefaultEngine(properties propertyRepo.PropertyRepository, sessions sessionRepo.SessionStore, archive sessionRepo.SessionArchive, trustSvc trust.Service, inv inventory.Service, pricer pricing.Engine, logger *zap.Logger, maxRounds int, sessionTTL time.Duration, minReputation float64) *DefaultEngine {
	return &DefaultEngine{
		Properties:    properties,
		Sessions:      sessions,
		Archive:       archive,
		Trust:         trustSvc,
		Inventory:     inv,
		Pricing:       pricer,
		Logger:        logger,
		MaxRounds:     maxRounds,
		SessionTTL:    sessionTTL,
		MinReputation: minReputation,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

func (e *DefaultEngine) Discover(ctx context.Context, req StartRequest) (*models.NegotiationSession, int, error) {
	session, available, err := e.open(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	return session, available, nil
}

func (e *DefaultEngine) StartNegotiation(ctx context.Context, req StartRequest) (*models.NegotiationSession, error) {
	session, _, err := e.open(ctx, req)
	return session, err
}

func (e *DefaultEngine) open(ctx context.Context, req StartRequest) (*models.NegotiationSession, int, error) {
	property, err := e.Properties.GetByID(ctx, req.PropertyID)
	if err == propertyRepo.ErrNotFound {
		return nil, 0, utils.NewAPIError(utils.KindNotFound, "unknown property %s", req.PropertyID)
	}
	if err != nil {
		return nil, 0, err
	}
	if !property.IsActive {
		return nil, 0, utils.NewAPIError(utils.KindForbidden, "property %s is paused", req.PropertyID)
	}

	score, err := e.Trust.GetReputation(ctx, req.AgentID)
	if err != nil {
		return nil, 0, err
	}
	if score < e.MinReputation {
		return nil, 0, utils.NewAPIError(utils.KindForbidden,
			"agent %s reputation %.2f below minimum %.2f", req.AgentID, score, e.MinReputation)
	}

	available, err := e.Inventory.GetAvailability(ctx, req.PropertyID, req.RoomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, 0, err
	}
	if available <= 0 {
		return nil, 0, utils.NewAPIError(utils.KindNotFound,
			"no %s availability at %s for %s to %s", req.RoomType, req.PropertyID, req.CheckIn, req.CheckOut)
	}

	basePrice, err := e.Pricing.BasePrice(property, req.RoomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, 0, err
	}

	cap, err := e.Trust.DiscountCap(ctx, req.AgentID)
	if err != nil {
		return nil, 0, err
	}

	now := e.now()
	session := &models.NegotiationSession{
		SessionID:      uuid.New().String(),
		PropertyID:     req.PropertyID,
		AgentID:        req.AgentID,
		RoomType:       req.RoomType,
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		Status:         models.SessionOpen,
		BasePrice:      basePrice,
		DiscountCap:    cap,
		CurrentOffer:   basePrice,
		Offers:         []models.Offer{{Actor: models.OfferByEngine, Price: basePrice, Round: 0, At: now}},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := e.Sessions.Save(ctx, session, e.SessionTTL); err != nil {
		return nil, 0, err
	}

	e.Logger.Info("negotiation opened",
		zap.String("sessionID", session.SessionID),
		zap.String("propertyID", req.PropertyID),
		zap.String("agentID", req.AgentID),
		zap.Float64("basePrice", basePrice),
		zap.Float64("discountCap", cap))
	return session, available, nil
}

func (e *DefaultEngine) ContinueNegotiation(ctx context.Context, sessionID, agentID string, counterOffer float64) (*models.NegotiationSession, error) {
	if counterOffer <= 0 {
		return nil, utils.NewAPIError(utils.KindValidation, "counter offer must be positive")
	}

	if err := e.lock(ctx, sessionID); err != nil {
		return nil, err
	}
	defer func() {
		if err := e.Sessions.Release(context.Background(), sessionID); err != nil {
			e.Logger.Warn("session lock release failed", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}()

	session, err := e.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.AgentID != agentID {
		return nil, utils.NewAPIError(utils.KindForbidden, "session %s belongs to another agent", sessionID)
	}

	now := e.now()
	if now.Sub(session.LastActivityAt) > e.SessionTTL {
		session.Status = models.SessionExpired
		e.retire(ctx, session)
		return nil, utils.NewAPIError(utils.KindNegotiationExpired, "session %s expired", sessionID)
	}

	if session.RoundCount >= e.MaxRounds {
		session.Status = models.SessionRejected
		session.LastActivityAt = now
		e.retire(ctx, session)
		return nil, utils.NewAPIError(utils.KindRoundLimitExceeded,
			"session %s exhausted its %d rounds", sessionID, e.MaxRounds)
	}

	floor := session.FloorPrice()
	session.RoundCount++
	session.LastActivityAt = now
	session.Offers = append(session.Offers, models.Offer{
		Actor: models.OfferByAgent, Price: counterOffer, Round: session.RoundCount, At: now,
	})

	if counterOffer >= floor {
		// Within the discount cap: auto-accept at the agent's price.
		session.CurrentOffer = counterOffer
		session.Status = models.SessionAccepted
		e.retire(ctx, session)
		e.Logger.Info("negotiation accepted",
			zap.String("sessionID", sessionID),
			zap.Float64("price", counterOffer),
			zap.Float64("discountPct", session.DiscountPct()))
		return session, nil
	}

	// Counter at the midpoint, never below the floor: property margin is
	// not negotiable past the reputation-derived cap.
	counter := (session.CurrentOffer + counterOffer) / 2
	if counter < floor {
		counter = floor
	}
	session.CurrentOffer = counter
	session.Offers = append(session.Offers, models.Offer{
		Actor: models.OfferByEngine, Price: counter, Round: session.RoundCount, At: now,
	})
	if err := e.Sessions.Save(ctx, session, e.SessionTTL); err != nil {
		return nil, err
	}

	e.Logger.Info("negotiation countered",
		zap.String("sessionID", sessionID),
		zap.Int("round", session.RoundCount),
		zap.Float64("agentOffer", counterOffer),
		zap.Float64("counter", counter))
	return session, nil
}

// SweepExpired walks the open-session index and expires sessions whose
// inactivity exceeds the TTL. Run periodically by the background worker.
func (e *DefaultEngine) SweepExpired(ctx context.Context) (int, error) {
	ids, err := e.Sessions.OpenSessionIDs(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		ok, err := e.Sessions.Acquire(ctx, id, lockTTL)
		if err != nil || !ok {
			continue // an active round wins; the next sweep retries
		}

		session, err := e.Sessions.Get(ctx, id)
		if err != nil {
			_ = e.Sessions.Release(ctx, id)
			if err == sessionRepo.ErrNotFound {
				continue
			}
			return expired, err
		}
		if session.Status == models.SessionOpen && e.now().Sub(session.LastActivityAt) > e.SessionTTL {
			session.Status = models.SessionExpired
			e.retire(ctx, session)
			expired++
		}
		_ = e.Sessions.Release(ctx, id)
	}

	if expired > 0 {
		e.Logger.Info("expired inactive sessions", zap.Int("count", expired))
	}
	return expired, nil
}

func (e *DefaultEngine) QuoteFor(session *models.NegotiationSession) *models.Quote {
	return &models.Quote{
		Price:       session.CurrentOffer,
		DiscountPct: session.DiscountPct(),
		Terms: models.QuoteTerms{
			CancellationHours: 48,
			Inclusions:        []string{"wifi", "breakfast"},
		},
		ExpiresAt: session.LastActivityAt.Add(e.SessionTTL),
	}
}

// lock queues for the per-session lock so concurrent rounds on the same
// session serialize instead of racing.
func (e *DefaultEngine) lock(ctx context.Context, sessionID string) error {
	deadline := e.now().Add(lockWait)
	for {
		ok, err := e.Sessions.Acquire(ctx, sessionID, lockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if e.now().After(deadline) {
			return utils.NewAPIError(utils.KindServiceUnavailable,
				"session %s is busy, retry shortly", sessionID)
		}
		e.sleep(lockPollStep)
	}
}

// load resolves a session from the live store, falling back to the archive
// so callers get a precise terminal answer instead of a bare NotFound.
func (e *DefaultEngine) load(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	session, err := e.Sessions.Get(ctx, sessionID)
	if err == nil {
		if session.Terminal() {
			return nil, terminalError(session)
		}
		return session, nil
	}
	if err != sessionRepo.ErrNotFound {
		return nil, err
	}

	archived, archErr := e.Archive.Lookup(ctx, sessionID)
	if archErr == sessionRepo.ErrNotFound {
		return nil, utils.NewAPIError(utils.KindNotFound, "unknown session %s", sessionID)
	}
	if archErr != nil {
		return nil, archErr
	}
	return nil, terminalError(archived)
}

func terminalError(session *models.NegotiationSession) error {
	switch session.Status {
	case models.SessionExpired:
		return utils.NewAPIError(utils.KindNegotiationExpired, "session %s expired", session.SessionID)
	case models.SessionAccepted:
		return utils.NewAPIError(utils.KindConflict,
			"session %s already accepted at %.2f", session.SessionID, session.CurrentOffer)
	default:
		return utils.NewAPIError(utils.KindConflict, "session %s was rejected", session.SessionID)
	}
}

// retire persists a terminal session briefly for readers, archives it, and
// drops it from the open index.
func (e *DefaultEngine) retire(ctx context.Context, session *models.NegotiationSession) {
	if err := e.Sessions.Save(ctx, session, e.SessionTTL); err != nil {
		e.Logger.Warn("failed to persist terminal session", zap.String("sessionID", session.SessionID), zap.Error(err))
	}
	if err := e.Archive.Archive(ctx, session); err != nil {
		e.Logger.Warn("failed to archive session", zap.String("sessionID", session.SessionID), zap.Error(err))
	}
}

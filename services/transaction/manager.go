package transaction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	propertyRepo "stayloom/database/repository/property"
	sessionRepo "stayloom/database/repository/session"
	transactionRepo "stayloom/database/repository/transaction"
	"stayloom/models"
	"stayloom/services/adapter"
	"stayloom/services/inventory"
	"stayloom/services/ledger"
	"stayloom/services/pricing"
	"stayloom/utils"
)

// DefaultManager implements Manager. The storage-layer claim in the
// transaction repository is the only synchronization between concurrent
// calls on the same key; the manager never holds a lock across the
// adapter call.
type DefaultManager struct {
	Transactions transactionRepo.TransactionRepository
	Properties   propertyRepo.PropertyRepository
	Sessions     sessionRepo.SessionStore
	Archive      sessionRepo.SessionArchive
	Inventory    inventory.Service
	Ledger       ledger.Service
	Adapter      adapter.DomainAdapter
	Pricing      pricing.Engine
	Notifier     OutcomeNotifier
	Logger       *zap.Logger

	AdapterTimeout time.Duration
}

func (m *DefaultManager) ExecuteBooking(ctx context.Context, req BookingRequest, idempotencyKey string) (*models.TransactionResult, error) {
	if req.PropertyID == "" || req.RoomType == "" || req.CheckIn == "" || req.CheckOut == "" || req.GuestEmail == "" {
		return nil, utils.NewAPIError(utils.KindValidation,
			"property_id, room_type, check_in, check_out and guest_email are required")
	}

	key := idempotencyKey
	if key == "" {
		key = FallbackKey(req)
	}
	payloadHash := hashPayload(req)

	amount, err := m.resolveAmount(ctx, req)
	if err != nil {
		return nil, err
	}

	candidate := &models.Transaction{
		TransactionID:  ulid.Make().String(),
		IdempotencyKey: key,
		SessionID:      req.SessionID,
		PropertyID:     req.PropertyID,
		RoomType:       req.RoomType,
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		GuestEmail:     req.GuestEmail,
		Amount:         amount,
		PayloadHash:    payloadHash,
	}

	claimed, outcome, err := m.Transactions.Claim(ctx, candidate)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case transactionRepo.ClaimCommitted:
		if claimed.PayloadHash != payloadHash {
			return nil, utils.NewAPIError(utils.KindConflict,
				"idempotency key %s was already used with a different payload", key)
		}
		// At-most-once: replay the original result, no new side effects.
		return &models.TransactionResult{
			TransactionID:  claimed.TransactionID,
			Status:         claimed.Status,
			ConfirmationID: claimed.ConfirmationID,
			Amount:         claimed.Amount,
			Replayed:       true,
		}, nil

	case transactionRepo.ClaimPending:
		if claimed.PayloadHash != payloadHash {
			return nil, utils.NewAPIError(utils.KindConflict,
				"idempotency key %s was already used with a different payload", key)
		}
		return nil, utils.NewAPIError(utils.KindServiceUnavailable,
			"a booking for this request is already in flight, retry shortly")

	case transactionRepo.ClaimRefused:
		return nil, utils.NewAPIError(utils.KindConflict,
			"idempotency key %s was already used with a different payload", key)
	}

	// Claim acquired: this caller alone proceeds to the adapter.
	result, err := m.commit(ctx, claimed, req)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *DefaultManager) commit(ctx context.Context, tx *models.Transaction, req BookingRequest) (*models.TransactionResult, error) {
	property, err := m.Properties.GetByID(ctx, req.PropertyID)
	if err == propertyRepo.ErrNotFound {
		return nil, m.fail(ctx, tx, utils.NewAPIError(utils.KindNotFound, "unknown property %s", req.PropertyID))
	}
	if err != nil {
		return nil, m.fail(ctx, tx, err)
	}
	if !property.IsActive {
		return nil, m.fail(ctx, tx, utils.NewAPIError(utils.KindForbidden, "property %s is paused", req.PropertyID))
	}

	available, err := m.Inventory.GetAvailability(ctx, req.PropertyID, req.RoomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, m.fail(ctx, tx, err)
	}
	if available <= 0 {
		return nil, m.fail(ctx, tx, utils.NewAPIError(utils.KindNotFound,
			"no %s availability at %s for %s to %s", req.RoomType, req.PropertyID, req.CheckIn, req.CheckOut))
	}

	callCtx, cancel := context.WithTimeout(ctx, m.AdapterTimeout)
	defer cancel()
	confirmation, err := m.Adapter.CommitBooking(callCtx,
		req.PropertyID, req.RoomType, req.CheckIn, req.CheckOut,
		adapter.GuestInfo{Name: req.GuestName, Email: req.GuestEmail}, tx.Amount)
	if err != nil {
		m.notify(tx.TransactionID, req.AgentID, false)
		return nil, m.fail(ctx, tx, err)
	}

	committed, err := m.Transactions.MarkCommitted(ctx, tx.IdempotencyKey, confirmation.ConfirmationID)
	if err != nil {
		return nil, err
	}

	// Invalidate before anyone can read the now-stale availability.
	if err := m.Inventory.Invalidate(ctx, req.PropertyID, req.RoomType, req.CheckIn, req.CheckOut); err != nil {
		m.Logger.Warn("inventory invalidation failed",
			zap.String("transactionID", committed.TransactionID), zap.Error(err))
	}

	if _, err := m.Ledger.Record(ctx, committed, property.Tier); err != nil {
		// The booking is committed downstream; the ledger gap is surfaced
		// loudly for the reconciliation audit rather than unwound.
		m.Logger.Error("commission record failed for committed transaction",
			zap.String("transactionID", committed.TransactionID), zap.Error(err))
	}

	m.notify(committed.TransactionID, req.AgentID, true)

	m.Logger.Info("booking committed",
		zap.String("transactionID", committed.TransactionID),
		zap.String("propertyID", req.PropertyID),
		zap.String("confirmationID", confirmation.ConfirmationID),
		zap.Float64("amount", committed.Amount))

	return &models.TransactionResult{
		TransactionID:  committed.TransactionID,
		Status:         committed.Status,
		ConfirmationID: committed.ConfirmationID,
		Amount:         committed.Amount,
	}, nil
}

// fail marks the claim FAILED so a later retry can reclaim the key, then
// passes the original error through.
func (m *DefaultManager) fail(ctx context.Context, tx *models.Transaction, cause error) error {
	if err := m.Transactions.MarkFailed(ctx, tx.IdempotencyKey, cause.Error()); err != nil {
		m.Logger.Error("failed to mark transaction FAILED",
			zap.String("transactionID", tx.TransactionID), zap.Error(err))
	}
	return cause
}

func (m *DefaultManager) notify(transactionID, agentID string, committed bool) {
	if m.Notifier == nil || agentID == "" {
		return
	}
	if err := m.Notifier.BookingOutcome(context.Background(), agentID, committed); err != nil {
		m.Logger.Warn("outcome notification failed",
			zap.String("transactionID", transactionID), zap.Error(err))
	}
}

// resolveAmount prices the booking: an ACCEPTED session's negotiated
// nightly price when one is referenced, the base price otherwise.
func (m *DefaultManager) resolveAmount(ctx context.Context, req BookingRequest) (float64, error) {
	nights, err := m.Pricing.Nights(req.CheckIn, req.CheckOut)
	if err != nil {
		return 0, err
	}

	if req.SessionID != "" {
		session, err := m.loadSession(ctx, req.SessionID)
		if err != nil {
			return 0, err
		}
		if session.Status != models.SessionAccepted {
			return 0, utils.NewAPIError(utils.KindValidation,
				"session %s is %s, only ACCEPTED sessions can be executed", req.SessionID, session.Status)
		}
		if session.AgentID != req.AgentID || session.PropertyID != req.PropertyID {
			return 0, utils.NewAPIError(utils.KindForbidden,
				"session %s does not match this request", req.SessionID)
		}
		return session.CurrentOffer * float64(nights), nil
	}

	property, err := m.Properties.GetByID(ctx, req.PropertyID)
	if err == propertyRepo.ErrNotFound {
		return 0, utils.NewAPIError(utils.KindNotFound, "unknown property %s", req.PropertyID)
	}
	if err != nil {
		return 0, err
	}
	nightly, err := m.Pricing.BasePrice(property, req.RoomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return 0, err
	}
	return nightly * float64(nights), nil
}

func (m *DefaultManager) loadSession(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	session, err := m.Sessions.Get(ctx, sessionID)
	if err == nil {
		return session, nil
	}
	if err != sessionRepo.ErrNotFound {
		return nil, err
	}
	archived, archErr := m.Archive.Lookup(ctx, sessionID)
	if archErr == sessionRepo.ErrNotFound {
		return nil, utils.NewAPIError(utils.KindNotFound, "unknown session %s", sessionID)
	}
	if archErr != nil {
		return nil, archErr
	}
	return archived, nil
}

// FallbackKey derives a deterministic idempotency key when the caller
// supplies no request_id. Two distinct bookings sharing all five fields
// collide on this key and surface as Conflict; callers wanting re-booking
// must supply an explicit request_id.
func FallbackKey(req BookingRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%s",
		req.PropertyID, req.CheckIn, req.CheckOut, req.RoomType, req.GuestEmail)))
	return "fk_" + hex.EncodeToString(sum[:16])
}

func hashPayload(req BookingRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		req.PropertyID, req.RoomType, req.CheckIn, req.CheckOut,
		req.GuestName, req.GuestEmail, req.SessionID)))
	return hex.EncodeToString(sum[:])
}

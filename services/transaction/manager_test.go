package transaction

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	propertyRepo "stayloom/database/repository/property"
	sessionRepo "stayloom/database/repository/session"
	transactionRepo "stayloom/database/repository/transaction"
	"stayloom/models"
	"stayloom/services/adapter"
	"stayloom/utils"
)

type memTxRepo struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func newMemTxRepo() *memTxRepo {
	return &memTxRepo{txs: make(map[string]*models.Transaction)}
}

func (r *memTxRepo) Claim(ctx context.Context, candidate *models.Transaction) (*models.Transaction, transactionRepo.ClaimOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.txs[candidate.IdempotencyKey]
	if ok {
		switch existing.Status {
		case models.TxCommitted:
			dup := *existing
			return &dup, transactionRepo.ClaimCommitted, nil
		case models.TxPending:
			dup := *existing
			return &dup, transactionRepo.ClaimPending, nil
		}
		if existing.PayloadHash != candidate.PayloadHash {
			dup := *existing
			return &dup, transactionRepo.ClaimRefused, nil
		}
		// FAILED with the same payload: the key is reclaimable.
	}
	claimed := *candidate
	claimed.Status = models.TxPending
	r.txs[candidate.IdempotencyKey] = &claimed
	dup := claimed
	return &dup, transactionRepo.ClaimAcquired, nil
}

func (r *memTxRepo) MarkCommitted(ctx context.Context, idempotencyKey, confirmationID string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[idempotencyKey]
	if !ok || tx.Status != models.TxPending {
		return nil, transactionRepo.ErrNotFound
	}
	tx.Status = models.TxCommitted
	tx.ConfirmationID = confirmationID
	dup := *tx
	return &dup, nil
}

func (r *memTxRepo) MarkFailed(ctx context.Context, idempotencyKey, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[idempotencyKey]
	if !ok || tx.Status != models.TxPending {
		return transactionRepo.ErrNotFound
	}
	tx.Status = models.TxFailed
	tx.FailureReason = reason
	return nil
}

func (r *memTxRepo) GetByKey(ctx context.Context, idempotencyKey string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[idempotencyKey]
	if !ok {
		return nil, transactionRepo.ErrNotFound
	}
	dup := *tx
	return &dup, nil
}

type fakePropertyRepo struct {
	properties map[string]*models.Property
}

func (f *fakePropertyRepo) GetByID(ctx context.Context, propertyID string) (*models.Property, error) {
	property, ok := f.properties[propertyID]
	if !ok {
		return nil, propertyRepo.ErrNotFound
	}
	return property, nil
}

func (f *fakePropertyRepo) Create(ctx context.Context, property *models.Property) error {
	f.properties[property.PropertyID] = property
	return nil
}

func (f *fakePropertyRepo) SetActive(ctx context.Context, propertyID string, active bool) error {
	property, ok := f.properties[propertyID]
	if !ok {
		return propertyRepo.ErrNotFound
	}
	property.IsActive = active
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.NegotiationSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*models.NegotiationSession)}
}

func (m *memSessionStore) Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, sessionRepo.ErrNotFound
	}
	dup := *session
	return &dup, nil
}

func (m *memSessionStore) Save(ctx context.Context, session *models.NegotiationSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *session
	m.sessions[session.SessionID] = &dup
	return nil
}

func (m *memSessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *memSessionStore) Acquire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (m *memSessionStore) Release(ctx context.Context, sessionID string) error { return nil }

func (m *memSessionStore) OpenSessionIDs(ctx context.Context) ([]string, error) { return nil, nil }

type memArchive struct {
	mu       sync.Mutex
	archived map[string]*models.NegotiationSession
}

func newMemArchive() *memArchive {
	return &memArchive{archived: make(map[string]*models.NegotiationSession)}
}

func (m *memArchive) Archive(ctx context.Context, session *models.NegotiationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived[session.SessionID] = session
	return nil
}

func (m *memArchive) Lookup(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.archived[sessionID]
	if !ok {
		return nil, sessionRepo.ErrNotFound
	}
	return session, nil
}

type fakeInventory struct {
	mu          sync.Mutex
	available   int
	invalidated int
}

func (f *fakeInventory) GetAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available, nil
}

func (f *fakeInventory) Invalidate(ctx context.Context, propertyID, roomType, checkIn, checkOut string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []models.CommissionEntry
}

func (f *fakeLedger) Record(ctx context.Context, tx *models.Transaction, tier string) (*models.CommissionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := models.CommissionEntry{
		TransactionID: tx.TransactionID,
		PropertyID:    tx.PropertyID,
		RateTier:      tier,
		BookingAmount: tx.Amount,
	}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeLedger) Aggregate(ctx context.Context, propertyID string) (*models.CommissionTotal, error) {
	return &models.CommissionTotal{PropertyID: propertyID}, nil
}

func (f *fakeLedger) Verify(ctx context.Context, propertyID string) error { return nil }

func (f *fakeLedger) Export(ctx context.Context, propertyID string, from, to time.Time) ([]models.CommissionEntry, error) {
	return nil, nil
}

type commitAdapter struct {
	mu       sync.Mutex
	commits  int
	failNext int // fail this many commits before succeeding
}

func (a *commitAdapter) CheckAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (*adapter.AvailabilityResult, error) {
	return &adapter.AvailabilityResult{PropertyID: propertyID, RoomType: roomType, AvailableCount: 1}, nil
}

func (a *commitAdapter) CommitBooking(ctx context.Context, propertyID, roomType, checkIn, checkOut string, guest adapter.GuestInfo, amount float64) (*adapter.BookingConfirmation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failNext > 0 {
		a.failNext--
		return nil, utils.WrapAPIError(utils.KindServiceUnavailable,
			adapter.NewTransientError("pms timeout"), "booking commit failed")
	}
	a.commits++
	return &adapter.BookingConfirmation{
		ConfirmationID: fmt.Sprintf("conf_%d", a.commits),
		Amount:         amount,
	}, nil
}

func (a *commitAdapter) commitCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commits
}

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []bool
}

func (n *recordingNotifier) BookingOutcome(ctx context.Context, agentID string, committed bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, committed)
	return nil
}

type fixedPricing struct {
	nightly float64
}

func (f *fixedPricing) BasePrice(property *models.Property, roomType, checkIn, checkOut string) (float64, error) {
	return f.nightly, nil
}

func (f *fixedPricing) Nights(checkIn, checkOut string) (int, error) { return 2, nil }

type managerFixture struct {
	manager   *DefaultManager
	txs       *memTxRepo
	sessions  *memSessionStore
	archive   *memArchive
	adapter   *commitAdapter
	ledger    *fakeLedger
	inventory *fakeInventory
	notifier  *recordingNotifier
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	txs := newMemTxRepo()
	sessions := newMemSessionStore()
	archive := newMemArchive()
	da := &commitAdapter{}
	led := &fakeLedger{}
	inv := &fakeInventory{available: 2}
	notifier := &recordingNotifier{}
	manager := &DefaultManager{
		Transactions: txs,
		Properties: &fakePropertyRepo{properties: map[string]*models.Property{
			"prop_1": {PropertyID: "prop_1", IsActive: true, Tier: models.TierStandard,
				BaseRates: map[string]float64{"deluxe": 250}},
		}},
		Sessions:       sessions,
		Archive:        archive,
		Inventory:      inv,
		Ledger:         led,
		Adapter:        da,
		Pricing:        &fixedPricing{nightly: 250},
		Notifier:       notifier,
		Logger:         zap.NewNop(),
		AdapterTimeout: 2 * time.Second,
	}
	return &managerFixture{
		manager: manager, txs: txs, sessions: sessions, archive: archive,
		adapter: da, ledger: led, inventory: inv, notifier: notifier,
	}
}

func bookingReq() BookingRequest {
	return BookingRequest{
		PropertyID: "prop_1",
		AgentID:    "agent_1",
		RoomType:   "deluxe",
		CheckIn:    "2026-09-07",
		CheckOut:   "2026-09-09",
		GuestName:  "Ada Lovelace",
		GuestEmail: "ada@example.com",
	}
}

func TestExecuteBookingCommits(t *testing.T) {
	fx := newManagerFixture(t)
	result, err := fx.manager.ExecuteBooking(context.Background(), bookingReq(), "req_1")
	if err != nil {
		t.Fatalf("execute err: %v", err)
	}
	if result.Status != models.TxCommitted {
		t.Fatalf("expected COMMITTED, got %s", result.Status)
	}
	if result.Amount != 500 {
		t.Fatalf("expected 250 x 2 nights = 500, got %.2f", result.Amount)
	}
	if result.ConfirmationID == "" || result.Replayed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := ulid.Parse(result.TransactionID); err != nil {
		t.Fatalf("transaction ID %q is not a ULID: %v", result.TransactionID, err)
	}
	if fx.adapter.commitCount() != 1 {
		t.Fatalf("expected one adapter commit, got %d", fx.adapter.commitCount())
	}
	if len(fx.ledger.entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(fx.ledger.entries))
	}
	if fx.inventory.invalidated != 1 {
		t.Fatalf("expected one cache invalidation, got %d", fx.inventory.invalidated)
	}
}

func TestRepeatKeyReplaysWithoutSideEffects(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	first, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1")
	if err != nil {
		t.Fatalf("first err: %v", err)
	}
	second, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1")
	if err != nil {
		t.Fatalf("second err: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed result")
	}
	if second.TransactionID != first.TransactionID {
		t.Fatalf("replay returned a different transaction: %s vs %s", second.TransactionID, first.TransactionID)
	}
	if fx.adapter.commitCount() != 1 {
		t.Fatalf("replay reached the adapter: %d commits", fx.adapter.commitCount())
	}
	if len(fx.ledger.entries) != 1 {
		t.Fatalf("replay wrote a second ledger entry: %d", len(fx.ledger.entries))
	}
}

func TestRepeatKeyDifferentPayloadConflicts(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	if _, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1"); err != nil {
		t.Fatalf("first err: %v", err)
	}
	altered := bookingReq()
	altered.GuestName = "Grace Hopper"
	_, err := fx.manager.ExecuteBooking(ctx, altered, "req_1")
	if utils.KindOf(err) != utils.KindConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestFallbackKeyDeduplicatesIdenticalRequests(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	first, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "")
	if err != nil {
		t.Fatalf("first err: %v", err)
	}
	second, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "")
	if err != nil {
		t.Fatalf("second err: %v", err)
	}
	if !second.Replayed || second.TransactionID != first.TransactionID {
		t.Fatalf("expected replay of %s, got %+v", first.TransactionID, second)
	}
	if fx.adapter.commitCount() != 1 {
		t.Fatalf("expected one adapter commit, got %d", fx.adapter.commitCount())
	}
}

func TestFallbackKeyCollisionWithDifferentPayloadConflicts(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	if _, err := fx.manager.ExecuteBooking(ctx, bookingReq(), ""); err != nil {
		t.Fatalf("first err: %v", err)
	}
	// Same property, dates, room type and email derive the same fallback
	// key, but the payload differs.
	altered := bookingReq()
	altered.GuestName = "Grace Hopper"
	_, err := fx.manager.ExecuteBooking(ctx, altered, "")
	if utils.KindOf(err) != utils.KindConflict {
		t.Fatalf("expected Conflict on fallback key collision, got %v", err)
	}
}

func TestConcurrentSameKeySingleCommit(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	const callers = 8

	var wg sync.WaitGroup
	var mu sync.Mutex
	var results []*models.TransactionResult
	var errs []error
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_concurrent")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, result)
		}()
	}
	wg.Wait()

	if fx.adapter.commitCount() != 1 {
		t.Fatalf("expected exactly one adapter commit, got %d", fx.adapter.commitCount())
	}
	if len(fx.ledger.entries) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(fx.ledger.entries))
	}
	if len(results) == 0 {
		t.Fatalf("expected at least the winner to succeed")
	}
	txID := results[0].TransactionID
	for _, result := range results {
		if result.TransactionID != txID {
			t.Fatalf("divergent transaction IDs: %s vs %s", result.TransactionID, txID)
		}
	}
	// Losers that raced the in-flight claim are told to retry shortly.
	for _, err := range errs {
		if utils.KindOf(err) != utils.KindServiceUnavailable {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
}

func TestFailedClaimIsRetryable(t *testing.T) {
	fx := newManagerFixture(t)
	fx.adapter.failNext = 1
	ctx := context.Background()

	_, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1")
	if err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	tx, err := fx.txs.GetByKey(ctx, "req_1")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if tx.Status != models.TxFailed {
		t.Fatalf("expected FAILED claim, got %s", tx.Status)
	}

	result, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1")
	if err != nil {
		t.Fatalf("retry err: %v", err)
	}
	if result.Status != models.TxCommitted || result.Replayed {
		t.Fatalf("expected fresh commit on retry, got %+v", result)
	}
	if len(fx.ledger.entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(fx.ledger.entries))
	}

	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	if len(fx.notifier.outcomes) != 2 || fx.notifier.outcomes[0] || !fx.notifier.outcomes[1] {
		t.Fatalf("expected failure then success notification, got %v", fx.notifier.outcomes)
	}
}

func TestFailedKeyDifferentPayloadConflicts(t *testing.T) {
	fx := newManagerFixture(t)
	fx.adapter.failNext = 1
	ctx := context.Background()

	if _, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1"); err == nil {
		t.Fatalf("expected first attempt to fail")
	}

	altered := bookingReq()
	altered.GuestName = "Grace Hopper"
	_, err := fx.manager.ExecuteBooking(ctx, altered, "req_1")
	if utils.KindOf(err) != utils.KindConflict {
		t.Fatalf("expected Conflict reclaiming with a different payload, got %v", err)
	}
	if fx.adapter.commitCount() != 0 {
		t.Fatalf("conflicting reclaim reached the adapter: %d commits", fx.adapter.commitCount())
	}
	tx, err := fx.txs.GetByKey(ctx, "req_1")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if tx.Status != models.TxFailed {
		t.Fatalf("refused reclaim must leave the FAILED record, got %s", tx.Status)
	}

	// The original payload can still retry the key.
	result, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1")
	if err != nil {
		t.Fatalf("retry err: %v", err)
	}
	if result.Status != models.TxCommitted {
		t.Fatalf("expected commit on same-payload retry, got %+v", result)
	}
}

func TestNegotiatedSessionPricesBooking(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	fx.archive.archived["sess_1"] = &models.NegotiationSession{
		SessionID:    "sess_1",
		PropertyID:   "prop_1",
		AgentID:      "agent_1",
		Status:       models.SessionAccepted,
		CurrentOffer: 220,
	}

	req := bookingReq()
	req.SessionID = "sess_1"
	result, err := fx.manager.ExecuteBooking(ctx, req, "req_1")
	if err != nil {
		t.Fatalf("execute err: %v", err)
	}
	if result.Amount != 440 {
		t.Fatalf("expected negotiated 220 x 2 nights = 440, got %.2f", result.Amount)
	}
}

func TestOpenSessionCannotBeExecuted(t *testing.T) {
	fx := newManagerFixture(t)
	fx.sessions.sessions["sess_1"] = &models.NegotiationSession{
		SessionID:  "sess_1",
		PropertyID: "prop_1",
		AgentID:    "agent_1",
		Status:     models.SessionOpen,
	}
	req := bookingReq()
	req.SessionID = "sess_1"
	_, err := fx.manager.ExecuteBooking(context.Background(), req, "req_1")
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected Validation for open session, got %v", err)
	}
}

func TestSessionAgentMismatchForbidden(t *testing.T) {
	fx := newManagerFixture(t)
	fx.archive.archived["sess_1"] = &models.NegotiationSession{
		SessionID:    "sess_1",
		PropertyID:   "prop_1",
		AgentID:      "agent_other",
		Status:       models.SessionAccepted,
		CurrentOffer: 220,
	}
	req := bookingReq()
	req.SessionID = "sess_1"
	_, err := fx.manager.ExecuteBooking(context.Background(), req, "req_1")
	if utils.KindOf(err) != utils.KindForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestPausedPropertyFailsClaim(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	if err := fx.manager.Properties.SetActive(ctx, "prop_1", false); err != nil {
		t.Fatalf("pause err: %v", err)
	}
	_, err := fx.manager.ExecuteBooking(ctx, bookingReq(), "req_1")
	if utils.KindOf(err) != utils.KindForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	tx, err := fx.txs.GetByKey(ctx, "req_1")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if tx.Status != models.TxFailed {
		t.Fatalf("expected FAILED claim after rejection, got %s", tx.Status)
	}
}

func TestMissingFieldsRejected(t *testing.T) {
	fx := newManagerFixture(t)
	req := bookingReq()
	req.GuestEmail = ""
	_, err := fx.manager.ExecuteBooking(context.Background(), req, "req_1")
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

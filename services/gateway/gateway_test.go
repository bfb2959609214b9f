package gateway

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"stayloom/models"
	"stayloom/services/negotiation"
	"stayloom/services/transaction"
	"stayloom/utils"
)

type stubEngine struct {
	session     *models.NegotiationSession
	available   int
	err         error
	continueErr error
}

func (s *stubEngine) Discover(ctx context.Context, req negotiation.StartRequest) (*models.NegotiationSession, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.session, s.available, nil
}

func (s *stubEngine) StartNegotiation(ctx context.Context, req negotiation.StartRequest) (*models.NegotiationSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubEngine) ContinueNegotiation(ctx context.Context, sessionID, agentID string, counterOffer float64) (*models.NegotiationSession, error) {
	if s.continueErr != nil {
		return nil, s.continueErr
	}
	return s.session, nil
}

func (s *stubEngine) SweepExpired(ctx context.Context) (int, error) { return 0, nil }

func (s *stubEngine) QuoteFor(session *models.NegotiationSession) *models.Quote {
	return &models.Quote{Price: session.CurrentOffer}
}

type stubManager struct {
	result  *models.TransactionResult
	err     error
	lastKey string
	lastReq transaction.BookingRequest
}

func (s *stubManager) ExecuteBooking(ctx context.Context, req transaction.BookingRequest, idempotencyKey string) (*models.TransactionResult, error) {
	s.lastReq = req
	s.lastKey = idempotencyKey
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type recordingAudit struct {
	records []models.IntentAudit
}

func (r *recordingAudit) Record(ctx context.Context, record models.IntentAudit) {
	r.records = append(r.records, record)
}

func openSession() *models.NegotiationSession {
	return &models.NegotiationSession{
		SessionID:    "sess_1",
		PropertyID:   "prop_1",
		AgentID:      "agent_1",
		Status:       models.SessionOpen,
		BasePrice:    250,
		CurrentOffer: 250,
	}
}

func newTestGateway(engine *stubEngine, manager *stubManager) (*DefaultGatewayService, *recordingAudit) {
	auditRec := &recordingAudit{}
	return &DefaultGatewayService{
		Engine:  engine,
		Manager: manager,
		Audit:   auditRec,
		Logger:  zap.NewNop(),
	}, auditRec
}

func discoverIntent() models.Intent {
	return models.Intent{
		IntentType: models.IntentDiscover,
		PropertyID: "prop_1",
		AgentID:    "agent_1",
		Payload: models.IntentPayload{
			RoomType: "deluxe",
			CheckIn:  "2026-09-07",
			CheckOut: "2026-09-09",
		},
	}
}

func TestDiscoverReturnsQuoteAndAvailability(t *testing.T) {
	svc, auditRec := newTestGateway(&stubEngine{session: openSession(), available: 3}, &stubManager{})
	resp, err := svc.Submit(context.Background(), "agent_1", discoverIntent())
	if err != nil {
		t.Fatalf("submit err: %v", err)
	}
	if resp.Status != models.StatusNeedsNegotiation {
		t.Fatalf("expected needs_negotiation, got %s", resp.Status)
	}
	if resp.SessionID != "sess_1" || resp.Quote == nil || resp.Quote.Price != 250 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Availability == nil || *resp.Availability != 3 {
		t.Fatalf("expected availability 3, got %v", resp.Availability)
	}
	if len(auditRec.records) != 1 || auditRec.records[0].Outcome != models.StatusNeedsNegotiation {
		t.Fatalf("expected one audit record with the response outcome, got %+v", auditRec.records)
	}
}

func TestContinueMapsAcceptedStatus(t *testing.T) {
	accepted := openSession()
	accepted.Status = models.SessionAccepted
	accepted.CurrentOffer = 220
	svc, _ := newTestGateway(&stubEngine{session: accepted}, &stubManager{})

	intent := models.Intent{
		IntentType: models.IntentContinue,
		AgentID:    "agent_1",
		Payload:    models.IntentPayload{SessionID: "sess_1", OfferPrice: 220},
	}
	resp, err := svc.Submit(context.Background(), "agent_1", intent)
	if err != nil {
		t.Fatalf("submit err: %v", err)
	}
	if resp.Status != models.StatusAccepted {
		t.Fatalf("expected accepted, got %s", resp.Status)
	}
	if resp.Quote.Price != 220 {
		t.Fatalf("expected negotiated quote 220, got %.2f", resp.Quote.Price)
	}
}

func TestContinueRequiresSessionAndOffer(t *testing.T) {
	svc, _ := newTestGateway(&stubEngine{session: openSession()}, &stubManager{})
	ctx := context.Background()

	intent := models.Intent{IntentType: models.IntentContinue, AgentID: "agent_1",
		Payload: models.IntentPayload{OfferPrice: 220}}
	if _, err := svc.Submit(ctx, "agent_1", intent); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected Validation without session_id, got %v", err)
	}

	intent = models.Intent{IntentType: models.IntentContinue, AgentID: "agent_1",
		Payload: models.IntentPayload{SessionID: "sess_1"}}
	if _, err := svc.Submit(ctx, "agent_1", intent); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected Validation without offer_price, got %v", err)
	}
}

func TestExecutePassesRequestIDAsIdempotencyKey(t *testing.T) {
	manager := &stubManager{result: &models.TransactionResult{
		TransactionID: "tx_1", Status: models.TxCommitted, Amount: 440,
	}}
	svc, _ := newTestGateway(&stubEngine{}, manager)

	intent := models.Intent{
		IntentType: models.IntentExecute,
		PropertyID: "prop_1",
		AgentID:    "agent_1",
		RequestID:  "req_42",
		Payload: models.IntentPayload{
			RoomType:   "deluxe",
			CheckIn:    "2026-09-07",
			CheckOut:   "2026-09-09",
			GuestName:  "Ada Lovelace",
			GuestEmail: "ada@example.com",
			SessionID:  "sess_1",
		},
	}
	resp, err := svc.Submit(context.Background(), "agent_1", intent)
	if err != nil {
		t.Fatalf("submit err: %v", err)
	}
	if resp.Status != models.StatusAccepted || resp.TransactionID != "tx_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if manager.lastKey != "req_42" {
		t.Fatalf("expected request_id as idempotency key, got %q", manager.lastKey)
	}
	if manager.lastReq.AgentID != "agent_1" || manager.lastReq.SessionID != "sess_1" {
		t.Fatalf("booking request not mapped from intent: %+v", manager.lastReq)
	}
}

func TestAgentIDMismatchForbidden(t *testing.T) {
	svc, auditRec := newTestGateway(&stubEngine{session: openSession()}, &stubManager{})
	intent := discoverIntent()
	intent.AgentID = "agent_other"
	_, err := svc.Submit(context.Background(), "agent_1", intent)
	if utils.KindOf(err) != utils.KindForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if len(auditRec.records) != 1 || auditRec.records[0].Outcome != models.StatusError {
		t.Fatalf("expected audit record with error outcome, got %+v", auditRec.records)
	}
}

func TestPilotModeRestrictsProperties(t *testing.T) {
	svc, _ := newTestGateway(&stubEngine{session: openSession(), available: 3}, &stubManager{})
	svc.PilotPropertyID = "prop_pilot"
	ctx := context.Background()

	intent := discoverIntent()
	_, err := svc.Submit(ctx, "agent_1", intent)
	if utils.KindOf(err) != utils.KindForbidden {
		t.Fatalf("expected Forbidden for unenrolled property, got %v", err)
	}

	intent.PropertyID = "prop_pilot"
	if _, err := svc.Submit(ctx, "agent_1", intent); err != nil {
		t.Fatalf("pilot property should pass, got %v", err)
	}
}

func TestUnknownIntentTypeRejected(t *testing.T) {
	svc, _ := newTestGateway(&stubEngine{}, &stubManager{})
	intent := models.Intent{IntentType: "teleport", AgentID: "agent_1"}
	_, err := svc.Submit(context.Background(), "agent_1", intent)
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestDiscoverRequiresStayFields(t *testing.T) {
	svc, _ := newTestGateway(&stubEngine{session: openSession()}, &stubManager{})
	intent := discoverIntent()
	intent.Payload.CheckOut = ""
	_, err := svc.Submit(context.Background(), "agent_1", intent)
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

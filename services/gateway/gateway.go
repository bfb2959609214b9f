package gateway

import (
	"context"

	"go.uber.org/zap"

	"stayloom/models"
	"stayloom/services/audit"
	"stayloom/services/negotiation"
	"stayloom/services/transaction"
	"stayloom/utils"
)

// Service is the gateway router: the single entry point dispatching agent
// intents to the negotiation engine and transaction manager.
type Service interface {
	Submit(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error)
}

// DefaultGatewayService implements Service. When PilotPropertyID is set,
// intents targeting any other property are Forbidden.
type DefaultGatewayService struct {
	Engine          negotiation.Engine
	Manager         transaction.Manager
	Audit           audit.Recorder
	Logger          *zap.Logger
	PilotPropertyID string
}

func (s *DefaultGatewayService) Submit(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error) {
	resp, err := s.dispatch(ctx, agentID, intent)

	outcome := models.StatusError
	if err == nil {
		outcome = resp.Status
	}
	s.Audit.Record(ctx, models.IntentAudit{
		AgentID:    agentID,
		IntentType: intent.IntentType,
		PropertyID: intent.PropertyID,
		RequestID:  intent.RequestID,
		Outcome:    outcome,
	})
	return resp, err
}

func (s *DefaultGatewayService) dispatch(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error) {
	if intent.AgentID != "" && intent.AgentID != agentID {
		return nil, utils.NewAPIError(utils.KindForbidden, "intent agent_id does not match the authenticated agent")
	}

	if s.PilotPropertyID != "" && intent.PropertyID != "" && intent.PropertyID != s.PilotPropertyID {
		return nil, utils.NewAPIError(utils.KindForbidden,
			"pilot mode: property %s is not enrolled", intent.PropertyID)
	}

	switch intent.IntentType {
	case models.IntentDiscover:
		return s.discover(ctx, agentID, intent)
	case models.IntentNegotiate:
		return s.negotiate(ctx, agentID, intent)
	case models.IntentContinue:
		return s.continueNegotiation(ctx, agentID, intent)
	case models.IntentExecute:
		return s.execute(ctx, agentID, intent)
	default:
		return nil, utils.NewAPIError(utils.KindValidation, "unknown intent_type %q", intent.IntentType)
	}
}

func (s *DefaultGatewayService) discover(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error) {
	req, err := startRequest(agentID, intent)
	if err != nil {
		return nil, err
	}
	session, available, err := s.Engine.Discover(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.IntentResponse{
		Status:       models.StatusNeedsNegotiation,
		SessionID:    session.SessionID,
		Quote:        s.Engine.QuoteFor(session),
		Availability: &available,
	}, nil
}

func (s *DefaultGatewayService) negotiate(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error) {
	req, err := startRequest(agentID, intent)
	if err != nil {
		return nil, err
	}
	session, err := s.Engine.StartNegotiation(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.IntentResponse{
		Status:    models.StatusNeedsNegotiation,
		SessionID: session.SessionID,
		Quote:     s.Engine.QuoteFor(session),
	}, nil
}

func (s *DefaultGatewayService) continueNegotiation(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error) {
	if intent.Payload.SessionID == "" {
		return nil, utils.NewAPIError(utils.KindValidation, "continue_negotiation requires payload.session_id")
	}
	if intent.Payload.OfferPrice <= 0 {
		return nil, utils.NewAPIError(utils.KindValidation, "continue_negotiation requires a positive payload.offer_price")
	}

	session, err := s.Engine.ContinueNegotiation(ctx, intent.Payload.SessionID, agentID, intent.Payload.OfferPrice)
	if err != nil {
		return nil, err
	}

	status := models.StatusNeedsNegotiation
	if session.Status == models.SessionAccepted {
		status = models.StatusAccepted
	}
	return &models.IntentResponse{
		Status:    status,
		SessionID: session.SessionID,
		Quote:     s.Engine.QuoteFor(session),
	}, nil
}

func (s *DefaultGatewayService) execute(ctx context.Context, agentID string, intent models.Intent) (*models.IntentResponse, error) {
	result, err := s.Manager.ExecuteBooking(ctx, transaction.BookingRequest{
		PropertyID: intent.PropertyID,
		AgentID:    agentID,
		RoomType:   intent.Payload.RoomType,
		CheckIn:    intent.Payload.CheckIn,
		CheckOut:   intent.Payload.CheckOut,
		GuestName:  intent.Payload.GuestName,
		GuestEmail: intent.Payload.GuestEmail,
		SessionID:  intent.Payload.SessionID,
	}, intent.RequestID)
	if err != nil {
		return nil, err
	}
	return &models.IntentResponse{
		Status:        models.StatusAccepted,
		TransactionID: result.TransactionID,
	}, nil
}

func startRequest(agentID string, intent models.Intent) (negotiation.StartRequest, error) {
	if intent.PropertyID == "" || intent.Payload.RoomType == "" || intent.Payload.CheckIn == "" || intent.Payload.CheckOut == "" {
		return negotiation.StartRequest{}, utils.NewAPIError(utils.KindValidation,
			"property_id, payload.room_type, payload.check_in and payload.check_out are required")
	}
	return negotiation.StartRequest{
		PropertyID: intent.PropertyID,
		AgentID:    agentID,
		RoomType:   intent.Payload.RoomType,
		CheckIn:    intent.Payload.CheckIn,
		CheckOut:   intent.Payload.CheckOut,
	}, nil
}

package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"stayloom/utils"
)

// BreakerPolicy is the declarative configuration of the circuit breaker.
type BreakerPolicy struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// DefaultBreakerPolicy trips after 3 consecutive failures and stays open
// for 60 seconds.
func DefaultBreakerPolicy() BreakerPolicy {
	return BreakerPolicy{FailureThreshold: 3, Cooldown: 60 * time.Second}
}

const (
	stateClosed = iota
	stateOpen
	stateHalfOpen
)

type breakerEntry struct {
	state    int
	failures int
	openedAt time.Time
	probing  bool
}

// CircuitBreaker decorates a DomainAdapter with per-property failure
// isolation. After FailureThreshold consecutive failures for a property it
// rejects calls immediately with ServiceUnavailable for the cooldown
// period; afterwards exactly one probe call is allowed through, and its
// outcome decides whether the circuit closes again.
type CircuitBreaker struct {
	next   DomainAdapter
	policy BreakerPolicy
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*breakerEntry

	now func() time.Time
}

// NewCircuitBreaker wraps the given adapter.
func NewCircuitBreaker(next DomainAdapter, policy BreakerPolicy, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		next:    next,
		policy:  policy,
		logger:  logger,
		entries: make(map[string]*breakerEntry),
		now:     time.Now,
	}
}

func (b *CircuitBreaker) CheckAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (*AvailabilityResult, error) {
	var result *AvailabilityResult
	err := b.call(propertyID, func() error {
		var callErr error
		result, callErr = b.next.CheckAvailability(ctx, propertyID, roomType, checkIn, checkOut)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *CircuitBreaker) CommitBooking(ctx context.Context, propertyID, roomType, checkIn, checkOut string, guest GuestInfo, amount float64) (*BookingConfirmation, error) {
	var confirmation *BookingConfirmation
	err := b.call(propertyID, func() error {
		var callErr error
		confirmation, callErr = b.next.CommitBooking(ctx, propertyID, roomType, checkIn, checkOut, guest, amount)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return confirmation, nil
}

// call runs fn under the property's breaker state. The lock guards only
// state transitions; it is never held across the adapter call itself.
func (b *CircuitBreaker) call(propertyID string, fn func() error) error {
	probe, err := b.admit(propertyID)
	if err != nil {
		return err
	}

	callErr := fn()
	b.record(propertyID, probe, callErr)
	return callErr
}

// admit decides whether a call may proceed. The second return is true when
// the call is the single HALF_OPEN probe.
func (b *CircuitBreaker) admit(propertyID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[propertyID]
	if !ok {
		entry = &breakerEntry{}
		b.entries[propertyID] = entry
	}

	switch entry.state {
	case stateClosed:
		return false, nil
	case stateOpen:
		if b.now().Sub(entry.openedAt) < b.policy.Cooldown {
			return false, utils.NewAPIError(utils.KindServiceUnavailable,
				"circuit open for property %s", propertyID)
		}
		entry.state = stateHalfOpen
		entry.probing = true
		b.logger.Info("circuit half-open, probing adapter", zap.String("propertyID", propertyID))
		return true, nil
	default: // stateHalfOpen
		if entry.probing {
			return false, utils.NewAPIError(utils.KindServiceUnavailable,
				"circuit probing for property %s, retry shortly", propertyID)
		}
		entry.probing = true
		return true, nil
	}
}

func (b *CircuitBreaker) record(propertyID string, probe bool, callErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.entries[propertyID]
	if probe {
		entry.probing = false
	}

	if !countsAsFailure(callErr) {
		entry.failures = 0
		if entry.state != stateClosed {
			b.logger.Info("circuit closed", zap.String("propertyID", propertyID))
		}
		entry.state = stateClosed
		return
	}

	if entry.state == stateHalfOpen {
		entry.state = stateOpen
		entry.openedAt = b.now()
		b.logger.Warn("circuit re-opened after failed probe", zap.String("propertyID", propertyID))
		return
	}

	entry.failures++
	if entry.failures >= b.policy.FailureThreshold {
		entry.state = stateOpen
		entry.openedAt = b.now()
		b.logger.Warn("circuit opened",
			zap.String("propertyID", propertyID),
			zap.Int("consecutiveFailures", entry.failures))
	}
}

// countsAsFailure reports whether an adapter outcome should trip the
// breaker. A permanent rejection means the downstream answered, so it
// resets the failure streak like a success does.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	var adapterErr *Error
	if errors.As(err, &adapterErr) {
		return adapterErr.Transient
	}
	return true
}

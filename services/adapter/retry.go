package adapter

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"stayloom/utils"
)

// RetryPolicy is the declarative configuration of the retry decorator.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy allows 3 attempts with 200ms exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: 200 * time.Millisecond}
}

// RetryingAdapter decorates a DomainAdapter with bounded retries for
// transient failures. When the attempts are exhausted the transient error
// surfaces as ServiceUnavailable. Permanent errors and breaker rejections
// are never retried.
type RetryingAdapter struct {
	next   DomainAdapter
	policy RetryPolicy
	logger *zap.Logger

	sleep func(time.Duration)
}

// NewRetryingAdapter wraps the given adapter; it normally wraps the
// circuit breaker so retries observe the breaker's state on each attempt.
func NewRetryingAdapter(next DomainAdapter, policy RetryPolicy, logger *zap.Logger) *RetryingAdapter {
	return &RetryingAdapter{next: next, policy: policy, logger: logger, sleep: time.Sleep}
}

func (r *RetryingAdapter) CheckAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (*AvailabilityResult, error) {
	var result *AvailabilityResult
	err := r.run(ctx, "CheckAvailability", func() error {
		var callErr error
		result, callErr = r.next.CheckAvailability(ctx, propertyID, roomType, checkIn, checkOut)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *RetryingAdapter) CommitBooking(ctx context.Context, propertyID, roomType, checkIn, checkOut string, guest GuestInfo, amount float64) (*BookingConfirmation, error) {
	var confirmation *BookingConfirmation
	err := r.run(ctx, "CommitBooking", func() error {
		var callErr error
		confirmation, callErr = r.next.CommitBooking(ctx, propertyID, roomType, checkIn, checkOut, guest, amount)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (r *RetryingAdapter) run(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		backoff := r.policy.BaseBackoff << (attempt - 1)
		r.logger.Warn("transient adapter failure, backing off",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return utils.WrapAPIError(utils.KindServiceUnavailable, ctx.Err(), "adapter call cancelled during backoff")
		default:
		}
		r.sleep(backoff)
	}
	return utils.WrapAPIError(utils.KindServiceUnavailable, lastErr,
		"adapter unavailable after %d attempts", r.policy.MaxAttempts)
}

// retryable reports whether the retry decorator should try again. Only
// transient adapter errors qualify; an open circuit already refuses calls.
func retryable(err error) bool {
	var adapterErr *Error
	if errors.As(err, &adapterErr) {
		return adapterErr.Transient
	}
	return false
}

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPAdapter bridges the DomainAdapter interface to a PMS connector
// speaking the gateway's REST contract. Network failures and 5xx answers
// are transient; 4xx answers are permanent rejections.
type HTTPAdapter struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPAdapter creates an adapter client with the given per-call timeout.
func NewHTTPAdapter(baseURL string, timeout time.Duration) *HTTPAdapter {
	return &HTTPAdapter{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (a *HTTPAdapter) CheckAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (*AvailabilityResult, error) {
	q := url.Values{}
	q.Set("property_id", propertyID)
	q.Set("room_type", roomType)
	q.Set("check_in", checkIn)
	q.Set("check_out", checkOut)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/availability?%s", a.BaseURL, q.Encode()), nil)
	if err != nil {
		return nil, NewPermanentError("build availability request: %v", err)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return nil, NewTransientError("availability request failed: %v", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, "availability"); err != nil {
		return nil, err
	}

	var out AvailabilityResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, NewTransientError("decode availability response: %v", err)
	}
	return &out, nil
}

func (a *HTTPAdapter) CommitBooking(ctx context.Context, propertyID, roomType, checkIn, checkOut string, guest GuestInfo, amount float64) (*BookingConfirmation, error) {
	body := map[string]interface{}{
		"property_id": propertyID,
		"room_type":   roomType,
		"check_in":    checkIn,
		"check_out":   checkOut,
		"guest":       guest,
		"amount":      amount,
	}
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.BaseURL+"/bookings", bytes.NewReader(b))
	if err != nil {
		return nil, NewPermanentError("build booking request: %v", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return nil, NewTransientError("booking request failed: %v", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, "booking"); err != nil {
		return nil, err
	}

	var out BookingConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, NewTransientError("decode booking response: %v", err)
	}
	return &out, nil
}

func classifyStatus(status int, op string) error {
	switch {
	case status < 300:
		return nil
	case status >= 500:
		return NewTransientError("%s returned %d", op, status)
	default:
		return NewPermanentError("%s returned %d", op, status)
	}
}

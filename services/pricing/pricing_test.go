package pricing

import (
	"math"
	"testing"
	"time"

	"stayloom/models"
	"stayloom/utils"
)

func newTestEngine(now time.Time) *DefaultEngine {
	e := NewDefaultEngine()
	e.now = func() time.Time { return now }
	return e
}

func testProperty() *models.Property {
	return &models.Property{
		PropertyID: "prop_1",
		BaseRates:  map[string]float64{"deluxe": 200, "suite": 400},
	}
}

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %.6f, want %.6f", got, want)
	}
}

// 2026-09-07 is a Monday.
var farOut = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBasePriceWeekdayStay(t *testing.T) {
	e := newTestEngine(farOut)
	nightly, err := e.BasePrice(testProperty(), "deluxe", "2026-09-07", "2026-09-09")
	if err != nil {
		t.Fatalf("price err: %v", err)
	}
	approx(t, nightly, 200)
}

func TestBasePriceWeekendStay(t *testing.T) {
	e := newTestEngine(farOut)
	// Friday and Saturday nights, both at the weekend multiplier.
	nightly, err := e.BasePrice(testProperty(), "deluxe", "2026-09-11", "2026-09-13")
	if err != nil {
		t.Fatalf("price err: %v", err)
	}
	approx(t, nightly, 250)
}

func TestBasePriceMixedStayAverages(t *testing.T) {
	e := newTestEngine(farOut)
	// Thursday (1.0) + Friday (1.25) + Saturday (1.25) averaged.
	nightly, err := e.BasePrice(testProperty(), "deluxe", "2026-09-10", "2026-09-13")
	if err != nil {
		t.Fatalf("price err: %v", err)
	}
	approx(t, nightly, 200*3.5/3)
}

func TestBasePriceLastMinuteSurcharge(t *testing.T) {
	e := newTestEngine(time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC))
	nightly, err := e.BasePrice(testProperty(), "deluxe", "2026-09-07", "2026-09-09")
	if err != nil {
		t.Fatalf("price err: %v", err)
	}
	approx(t, nightly, 200*1.10)
}

func TestBasePriceUnknownRoomType(t *testing.T) {
	e := newTestEngine(farOut)
	_, err := e.BasePrice(testProperty(), "penthouse", "2026-09-07", "2026-09-09")
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBasePriceRejectsInvertedDates(t *testing.T) {
	e := newTestEngine(farOut)
	_, err := e.BasePrice(testProperty(), "deluxe", "2026-09-09", "2026-09-07")
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNights(t *testing.T) {
	e := newTestEngine(farOut)
	nights, err := e.Nights("2026-09-07", "2026-09-10")
	if err != nil {
		t.Fatalf("nights err: %v", err)
	}
	if nights != 3 {
		t.Fatalf("expected 3 nights, got %d", nights)
	}

	if _, err := e.Nights("2026-09-07", "2026-09-07"); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error for zero-night stay, got %v", err)
	}
	if _, err := e.Nights("not-a-date", "2026-09-07"); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("expected validation error for malformed date, got %v", err)
	}
}

package inventory

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	inventoryRepo "stayloom/database/repository/inventory"
	"stayloom/models"
	"stayloom/services/adapter"
	"stayloom/utils"
)

type memStore struct {
	entries map[string]*models.InventoryCacheEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.InventoryCacheEntry)}
}

func (m *memStore) Get(ctx context.Context, key string) (*models.InventoryCacheEntry, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, inventoryRepo.ErrNotFound
	}
	return entry, nil
}

func (m *memStore) Put(ctx context.Context, key string, entry *models.InventoryCacheEntry, retention time.Duration) error {
	m.entries[key] = entry
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

type countingAdapter struct {
	calls    int
	count    int
	failWith error
}

func (a *countingAdapter) CheckAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (*adapter.AvailabilityResult, error) {
	a.calls++
	if a.failWith != nil {
		return nil, a.failWith
	}
	return &adapter.AvailabilityResult{PropertyID: propertyID, RoomType: roomType, AvailableCount: a.count}, nil
}

func (a *countingAdapter) CommitBooking(ctx context.Context, propertyID, roomType, checkIn, checkOut string, guest adapter.GuestInfo, amount float64) (*adapter.BookingConfirmation, error) {
	return nil, utils.NewAPIError(utils.KindAdapterError, "not implemented")
}

func newTestService(store inventoryRepo.InventoryStore, da adapter.DomainAdapter, now time.Time) *DefaultInventoryService {
	svc := NewDefaultInventoryService(store, da, 2*time.Minute, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

var baseTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func seed(store *memStore, count int, cachedAt time.Time) {
	store.entries[cacheKey("prop_1", "deluxe", "2026-09-07", "2026-09-09")] = &models.InventoryCacheEntry{
		PropertyID:     "prop_1",
		RoomType:       "deluxe",
		CheckIn:        "2026-09-07",
		CheckOut:       "2026-09-09",
		AvailableCount: count,
		CachedAt:       cachedAt,
	}
}

func TestFreshEntrySkipsAdapter(t *testing.T) {
	store := newMemStore()
	seed(store, 4, baseTime.Add(-30*time.Second))
	da := &countingAdapter{count: 9}
	svc := newTestService(store, da, baseTime)

	count, err := svc.GetAvailability(context.Background(), "prop_1", "deluxe", "2026-09-07", "2026-09-09")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected cached count 4, got %d", count)
	}
	if da.calls != 0 {
		t.Fatalf("adapter called %d times for fresh entry", da.calls)
	}
}

func TestStaleEntryRefreshesFromAdapter(t *testing.T) {
	store := newMemStore()
	seed(store, 4, baseTime.Add(-5*time.Minute))
	da := &countingAdapter{count: 2}
	svc := newTestService(store, da, baseTime)

	count, err := svc.GetAvailability(context.Background(), "prop_1", "deluxe", "2026-09-07", "2026-09-09")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected refreshed count 2, got %d", count)
	}
	if da.calls != 1 {
		t.Fatalf("expected one adapter call, got %d", da.calls)
	}
	refreshed := store.entries[cacheKey("prop_1", "deluxe", "2026-09-07", "2026-09-09")]
	if refreshed.AvailableCount != 2 || !refreshed.CachedAt.Equal(baseTime) {
		t.Fatalf("cache not rewritten with fresh entry: %+v", refreshed)
	}
}

func TestStaleServedWhenCircuitOpen(t *testing.T) {
	store := newMemStore()
	seed(store, 4, baseTime.Add(-5*time.Minute))
	da := &countingAdapter{failWith: utils.NewAPIError(utils.KindServiceUnavailable, "circuit open")}
	svc := newTestService(store, da, baseTime)

	count, err := svc.GetAvailability(context.Background(), "prop_1", "deluxe", "2026-09-07", "2026-09-09")
	if err != nil {
		t.Fatalf("expected stale fallback, got err: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected stale count 4, got %d", count)
	}
}

func TestMissWithCircuitOpenFails(t *testing.T) {
	store := newMemStore()
	da := &countingAdapter{failWith: utils.NewAPIError(utils.KindServiceUnavailable, "circuit open")}
	svc := newTestService(store, da, baseTime)

	_, err := svc.GetAvailability(context.Background(), "prop_1", "deluxe", "2026-09-07", "2026-09-09")
	if utils.KindOf(err) != utils.KindServiceUnavailable {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
}

func TestStaleNotServedForPermanentError(t *testing.T) {
	store := newMemStore()
	seed(store, 4, baseTime.Add(-5*time.Minute))
	da := &countingAdapter{failWith: utils.NewAPIError(utils.KindAdapterError, "bad request upstream")}
	svc := newTestService(store, da, baseTime)

	_, err := svc.GetAvailability(context.Background(), "prop_1", "deluxe", "2026-09-07", "2026-09-09")
	if utils.KindOf(err) != utils.KindAdapterError {
		t.Fatalf("expected adapter error to surface, got %v", err)
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	store := newMemStore()
	seed(store, 4, baseTime.Add(-30*time.Second))
	svc := newTestService(store, &countingAdapter{count: 1}, baseTime)

	if err := svc.Invalidate(context.Background(), "prop_1", "deluxe", "2026-09-07", "2026-09-09"); err != nil {
		t.Fatalf("invalidate err: %v", err)
	}
	if _, ok := store.entries[cacheKey("prop_1", "deluxe", "2026-09-07", "2026-09-09")]; ok {
		t.Fatalf("entry still present after invalidate")
	}
}

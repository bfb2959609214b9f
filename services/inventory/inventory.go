package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	inventoryRepo "stayloom/database/repository/inventory"
	"stayloom/models"
	"stayloom/services/adapter"
	"stayloom/utils"
)

// DefaultInventoryService caches adapter availability answers with a TTL.
// A fresh entry is served without touching the adapter; a stale or missing
// entry triggers a call through the decorated adapter. When the circuit is
// open a stale entry is served rather than failing fast, if one exists.
type DefaultInventoryService struct {
	Store   inventoryRepo.InventoryStore
	Adapter adapter.DomainAdapter
	TTL     time.Duration
	Logger  *zap.Logger

	now func() time.Time
}

// NewDefaultInventoryService wires the cache over the given store and adapter.
func NewDefaultInventoryService(store inventoryRepo.InventoryStore, da adapter.DomainAdapter, ttl time.Duration, logger *zap.Logger) *DefaultInventoryService {
	return &DefaultInventoryService{
		Store:   store,
		Adapter: da,
		TTL:     ttl,
		Logger:  logger,
		now:     time.Now,
	}
}

func cacheKey(propertyID, roomType, checkIn, checkOut string) string {
	return fmt.Sprintf("%s:%s:%s:%s", propertyID, roomType, checkIn, checkOut)
}

func (s *DefaultInventoryService) GetAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (int, error) {
	key := cacheKey(propertyID, roomType, checkIn, checkOut)

	var stale *models.InventoryCacheEntry
	entry, err := s.Store.Get(ctx, key)
	if err == nil {
		if entry.Age(s.now()) < s.TTL {
			return entry.AvailableCount, nil
		}
		stale = entry
	} else if err != inventoryRepo.ErrNotFound {
		s.Logger.Warn("inventory cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := s.Adapter.CheckAvailability(ctx, propertyID, roomType, checkIn, checkOut)
	if err != nil {
		if stale != nil && utils.KindOf(err) == utils.KindServiceUnavailable {
			s.Logger.Warn("serving stale availability, adapter unavailable",
				zap.String("key", key),
				zap.Duration("age", stale.Age(s.now())))
			return stale.AvailableCount, nil
		}
		return 0, err
	}

	fresh := &models.InventoryCacheEntry{
		PropertyID:     propertyID,
		RoomType:       roomType,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		AvailableCount: result.AvailableCount,
		CachedAt:       s.now(),
	}
	// Retained past the freshness window so it can back stale serving.
	if err := s.Store.Put(ctx, key, fresh, 10*s.TTL); err != nil {
		s.Logger.Warn("inventory cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result.AvailableCount, nil
}

// Invalidate drops the cache entry for the booked key. Called synchronously
// right after a successful commit so stale reads cannot oversell the room.
func (s *DefaultInventoryService) Invalidate(ctx context.Context, propertyID, roomType, checkIn, checkOut string) error {
	return s.Store.Delete(ctx, cacheKey(propertyID, roomType, checkIn, checkOut))
}

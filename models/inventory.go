package models

import "time"

// InventoryCacheEntry caches an availability answer from the domain
// adapter for one (property, room type, date range) key.
type InventoryCacheEntry struct {
	PropertyID     string    `json:"property_id"`
	RoomType       string    `json:"room_type"`
	CheckIn        string    `json:"check_in"`
	CheckOut       string    `json:"check_out"`
	AvailableCount int       `json:"available_count"`
	CachedAt       time.Time `json:"cached_at"`
}

// Age reports how long ago the entry was cached.
func (e *InventoryCacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}

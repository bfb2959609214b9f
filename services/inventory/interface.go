package inventory

import "context"

// Service serves availability through the cache and invalidates entries
// after a booking commits.
type Service interface {
	GetAvailability(ctx context.Context, propertyID, roomType, checkIn, checkOut string) (int, error)
	Invalidate(ctx context.Context, propertyID, roomType, checkIn, checkOut string) error
}

package propertyRepo

import (
	"context"
	"errors"

	"stayloom/models"
)

// ErrNotFound is returned when no property matches the given ID.
var ErrNotFound = errors.New("property not found")

// PropertyRepository defines methods for property data access. GetByID is
// always a fresh read; the is_active flag is never cached so pause/resume
// takes effect immediately.
type PropertyRepository interface {
	GetByID(ctx context.Context, propertyID string) (*models.Property, error)
	Create(ctx context.Context, property *models.Property) error
	SetActive(ctx context.Context, propertyID string, active bool) error
}

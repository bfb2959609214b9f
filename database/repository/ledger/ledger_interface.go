package ledgerRepo

import (
	"context"
	"time"

	"stayloom/models"
)

// LedgerRepository persists commission entries and the per-property running
// aggregate. AppendEntry writes both in a single MongoDB transaction so the
// sum of entries always equals the aggregate.
type LedgerRepository interface {
	AppendEntry(ctx context.Context, entry *models.CommissionEntry) error
	Aggregate(ctx context.Context, propertyID string) (*models.CommissionTotal, error)
	// SumEntries recomputes the total from the raw entries; used by the
	// consistency check, not on the hot path.
	SumEntries(ctx context.Context, propertyID string) (float64, int64, error)
	Query(ctx context.Context, propertyID string, from, to time.Time) ([]models.CommissionEntry, error)
}

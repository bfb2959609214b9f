package ledger

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	ledgerRepo "stayloom/database/repository/ledger"
	"stayloom/models"
	"stayloom/utils"
)

// Commission rates per property tier.
var tierRates = map[string]float64{
	models.TierStandard: 0.10,
	models.TierLuxury:   0.15,
}

// TierRate returns the commission rate for a property tier. Unknown tiers
// fall back to the standard rate.
func TierRate(tier string) float64 {
	if rate, ok := tierRates[tier]; ok {
		return rate
	}
	return tierRates[models.TierStandard]
}

// Service is the commission ledger: one append per COMMITTED transaction,
// a running aggregate per property, and a consistency check over both.
type Service interface {
	Record(ctx context.Context, tx *models.Transaction, tier string) (*models.CommissionEntry, error)
	Aggregate(ctx context.Context, propertyID string) (*models.CommissionTotal, error)
	Verify(ctx context.Context, propertyID string) error
	Export(ctx context.Context, propertyID string, from, to time.Time) ([]models.CommissionEntry, error)
}

// DefaultLedgerService implements Service over the ledger repository.
type DefaultLedgerService struct {
	Repo   ledgerRepo.LedgerRepository
	Logger *zap.Logger
}

// Record appends exactly one commission entry for a committed transaction.
// Duplicate protection is the transaction manager's idempotency guarantee,
// backed by the repository's unique index on transaction_id.
func (s *DefaultLedgerService) Record(ctx context.Context, tx *models.Transaction, tier string) (*models.CommissionEntry, error) {
	if tx.Status != models.TxCommitted {
		return nil, utils.NewAPIError(utils.KindValidation,
			"transaction %s is %s, only COMMITTED transactions earn commission", tx.TransactionID, tx.Status)
	}

	entry := &models.CommissionEntry{
		TransactionID:    tx.TransactionID,
		PropertyID:       tx.PropertyID,
		RateTier:         tier,
		BookingAmount:    tx.Amount,
		CommissionAmount: tx.Amount * TierRate(tier),
	}
	if err := s.Repo.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.Logger.Info("commission recorded",
		zap.String("transactionID", tx.TransactionID),
		zap.String("propertyID", tx.PropertyID),
		zap.Float64("commission", entry.CommissionAmount))
	return entry, nil
}

func (s *DefaultLedgerService) Aggregate(ctx context.Context, propertyID string) (*models.CommissionTotal, error) {
	return s.Repo.Aggregate(ctx, propertyID)
}

// Verify recomputes the entry sum for a property and compares it against
// the running aggregate. Run by the external auditing collaborator, not on
// every read.
func (s *DefaultLedgerService) Verify(ctx context.Context, propertyID string) error {
	total, err := s.Repo.Aggregate(ctx, propertyID)
	if err != nil {
		return err
	}
	sum, count, err := s.Repo.SumEntries(ctx, propertyID)
	if err != nil {
		return err
	}
	if count != total.EntryCount || math.Abs(sum-total.Total) > 1e-9 {
		return utils.NewAPIError(utils.KindConflict,
			"ledger inconsistent for property %s: entries sum %.4f (%d entries), aggregate %.4f (%d entries)",
			propertyID, sum, count, total.Total, total.EntryCount)
	}
	return nil
}

func (s *DefaultLedgerService) Export(ctx context.Context, propertyID string, from, to time.Time) ([]models.CommissionEntry, error) {
	return s.Repo.Query(ctx, propertyID, from, to)
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
)

// ReconciliationUseCase checks that every ledger's running total agrees with
// its open entries and its history.
type ReconciliationUseCase struct {
	store       LedgerStore
	metrics     MetricsRecorder
	logger      zerolog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case. Each ledger
// is waited on for at most lockTimeout; a non-positive value falls back to
// DefaultLockTimeout.
func NewReconciliationUseCase(store LedgerStore, metrics MetricsRecorder, logger zerolog.Logger, lockTimeout time.Duration) *ReconciliationUseCase {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	return &ReconciliationUseCase{
		store:       store,
		metrics:     metrics,
		logger:      logger,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalLedgers      int
	ConsistentLedgers int
	Discrepancies     []domain.Reconciliation
	LedgerConsistent  bool
	CheckedAt         time.Time
}

// ReconcileCustomer checks a single customer's ledger. An unknown customer is
// trivially consistent.
func (uc *ReconciliationUseCase) ReconcileCustomer(ctx context.Context, principal *domain.Principal, customerID string) (domain.Reconciliation, error) {
	if err := domain.ValidateIdentifier("customer_id", customerID); err != nil {
		return domain.Reconciliation{}, err
	}
	if !principal.CanRead(customerID) {
		return domain.Reconciliation{}, domain.ErrForbidden
	}

	ledger, ok := uc.store.Get(customerID)
	if !ok {
		return domain.Reconciliation{CustomerID: customerID, Consistent: true}, nil
	}

	return uc.reconcile(ctx, ledger)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, ledger *domain.Ledger) (domain.Reconciliation, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	return ledger.Reconcile(ctx)
}

// CheckConsistency reconciles every ledger in the store.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context, principal *domain.Principal) (*ReconciliationReport, error) {
	if !principal.CanAudit() {
		return nil, domain.ErrForbidden
	}

	start := uc.now()
	defer func() { uc.metrics.ObserveOperation(OperationReconcile, time.Since(start)) }()

	ids := uc.store.CustomerIDs()
	report := &ReconciliationReport{
		TotalLedgers:  len(ids),
		Discrepancies: make([]domain.Reconciliation, 0),
	}

	for _, id := range ids {
		ledger, ok := uc.store.Get(id)
		if !ok {
			// cleared while we were iterating
			report.TotalLedgers--
			continue
		}

		result, err := uc.reconcile(ctx, ledger)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile ledger %s: %w", id, err)
		}

		if result.Consistent {
			report.ConsistentLedgers++
			continue
		}

		uc.logger.Error().
			Str("customer_id", id).
			Str("recorded_total", result.RecordedTotal.String()).
			Str("open_total", result.OpenTotal.String()).
			Str("difference", result.Difference().String()).
			Msg("ledger inconsistency detected")
		report.Discrepancies = append(report.Discrepancies, result)
	}

	report.LedgerConsistent = len(report.Discrepancies) == 0
	report.CheckedAt = uc.now().UTC()

	return report, nil
}

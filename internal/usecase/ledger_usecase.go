package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
)

// LedgerUseCase validates requests and routes them to the customer's ledger.
type LedgerUseCase struct {
	store       LedgerStore
	outbox      OutboxRepository
	idGen       IDGenerator
	metrics     MetricsRecorder
	logger      zerolog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// NewLedgerUseCase creates a new LedgerUseCase. A non-positive lockTimeout
// falls back to DefaultLockTimeout.
func NewLedgerUseCase(
	store LedgerStore,
	outbox OutboxRepository,
	idGen IDGenerator,
	metrics MetricsRecorder,
	logger zerolog.Logger,
	lockTimeout time.Duration,
) *LedgerUseCase {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	return &LedgerUseCase{
		store:       store,
		outbox:      outbox,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// ApplyCreditInput represents input for applying a credit.
type ApplyCreditInput struct {
	Principal     *domain.Principal
	CustomerID    string
	TransactionID string
	Category      string
	Money         domain.Money
}

// ApplyDebitInput represents input for applying a debit.
type ApplyDebitInput struct {
	Principal  *domain.Principal
	CustomerID string
	InvoiceID  string
	Money      domain.Money
}

// ApplyCredit adds a credit to the customer's ledger. Replaying a
// (category, transaction id) pair returns the current balance unchanged.
func (uc *LedgerUseCase) ApplyCredit(ctx context.Context, input ApplyCreditInput) (*domain.CreditResult, error) {
	if err := domain.ValidateIdentifier("customer_id", input.CustomerID); err != nil {
		return nil, err
	}
	if err := domain.ValidateIdentifier("transaction_id", input.TransactionID); err != nil {
		return nil, err
	}
	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	money, err := domain.NormalizeMoney(input.Money)
	if err != nil {
		return nil, err
	}
	if !input.Principal.CanWrite(input.CustomerID) {
		return nil, domain.ErrForbidden
	}

	start := uc.now()
	defer func() { uc.metrics.ObserveOperation(OperationCredit, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	ledger := uc.store.GetOrCreate(input.CustomerID)
	uc.metrics.SetLedgers(uc.store.Len())

	log := uc.logger.With().
		Str("customer_id", input.CustomerID).
		Str("transaction_id", input.TransactionID).
		Str("category", string(category)).
		Str("amount", money.String()).
		Logger()

	result, err := ledger.ApplyCredit(ctx, input.TransactionID, category, money)
	if err != nil {
		uc.metrics.RecordCredit(category, outcomeOf(err), money.Amount)
		log.Warn().Err(err).Msg("credit rejected")
		return nil, err
	}

	if result.Duplicate {
		uc.metrics.RecordCredit(category, OutcomeDuplicate, money.Amount)
		log.Info().Msg("duplicate credit ignored")
		return result, nil
	}

	uc.metrics.RecordCredit(category, OutcomeApplied, money.Amount)
	log.Info().
		Str("balance", result.Balance.Total.String()).
		Uint64("sequence", result.Balance.Sequence).
		Msg("credit applied")

	event := domain.CreditAppliedEvent{
		CustomerID:    input.CustomerID,
		TransactionID: input.TransactionID,
		Category:      string(category),
		Amount:        money.Amount.String(),
		Currency:      money.Currency,
		Balance:       result.Balance.Total.Amount.String(),
		Sequence:      result.Balance.Sequence,
	}
	uc.recordEvent(ctx, input.CustomerID, domain.EventTypeCreditApplied, event.ToPayload())

	return result, nil
}

// ApplyDebit draws a debit from the customer's open credits. An invoice id
// that was already applied returns the current balance unchanged.
func (uc *LedgerUseCase) ApplyDebit(ctx context.Context, input ApplyDebitInput) (*domain.DebitResult, error) {
	if err := domain.ValidateIdentifier("customer_id", input.CustomerID); err != nil {
		return nil, err
	}
	if err := domain.ValidateIdentifier("invoice_id", input.InvoiceID); err != nil {
		return nil, err
	}
	money, err := domain.NormalizeMoney(input.Money)
	if err != nil {
		return nil, err
	}
	if !input.Principal.CanWrite(input.CustomerID) {
		return nil, domain.ErrForbidden
	}

	start := uc.now()
	defer func() { uc.metrics.ObserveOperation(OperationDebit, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	log := uc.logger.With().
		Str("customer_id", input.CustomerID).
		Str("invoice_id", input.InvoiceID).
		Str("amount", money.String()).
		Logger()

	// A customer without a ledger has no funds, so only a zero debit may
	// create one.
	ledger, ok := uc.store.Get(input.CustomerID)
	if !ok {
		if !money.IsZero() {
			err := fmt.Errorf("%w: requested %s, available 0", domain.ErrInsufficientBalance, money.Amount)
			uc.metrics.RecordDebit(outcomeOf(err), 0, money.Amount)
			log.Warn().Err(err).Msg("debit rejected")
			return nil, err
		}
		ledger = uc.store.GetOrCreate(input.CustomerID)
	}
	uc.metrics.SetLedgers(uc.store.Len())

	result, err := ledger.ApplyDebit(ctx, input.InvoiceID, money)
	if err != nil {
		uc.metrics.RecordDebit(outcomeOf(err), 0, money.Amount)
		log.Warn().Err(err).Msg("debit rejected")
		return nil, err
	}

	if result.Duplicate {
		uc.metrics.RecordDebit(OutcomeDuplicate, 0, money.Amount)
		log.Info().Msg("duplicate debit ignored")
		return result, nil
	}

	uc.metrics.RecordDebit(OutcomeApplied, len(result.LineItems), money.Amount)
	log.Info().
		Int("fragments", len(result.LineItems)).
		Str("balance", result.Balance.Total.String()).
		Uint64("sequence", result.Balance.Sequence).
		Msg("debit applied")

	sources := make([]domain.DebitSourcePayload, 0, len(result.LineItems))
	for _, item := range result.LineItems {
		sources = append(sources, domain.DebitSourcePayload{
			TransactionID: item.SourceTransactionID,
			Category:      string(item.SourceCategory),
			Amount:        item.Money.Amount.String(),
		})
	}
	event := domain.DebitAppliedEvent{
		CustomerID: input.CustomerID,
		InvoiceID:  input.InvoiceID,
		Amount:     money.Amount.String(),
		Currency:   money.Currency,
		Balance:    result.Balance.Total.Amount.String(),
		Sequence:   result.Balance.Sequence,
		Sources:    sources,
	}
	uc.recordEvent(ctx, input.CustomerID, domain.EventTypeDebitApplied, event.ToPayload())

	return result, nil
}

// GetBalance returns the customer's open credits. A customer that has never
// been credited or debited gets an empty balance and no ledger is created.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, principal *domain.Principal, customerID string) (domain.Balance, error) {
	ledger, err := uc.readableLedger(principal, customerID)
	if err != nil {
		return domain.Balance{}, err
	}
	if ledger == nil {
		return domain.EmptyBalance(customerID), nil
	}

	start := uc.now()
	defer func() { uc.metrics.ObserveOperation(OperationBalance, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	return ledger.Balance(ctx)
}

// GetDebitHistory returns every debit fragment applied to the customer, oldest
// first.
func (uc *LedgerUseCase) GetDebitHistory(ctx context.Context, principal *domain.Principal, customerID string) ([]domain.DebitLineItem, error) {
	ledger, err := uc.readableLedger(principal, customerID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return []domain.DebitLineItem{}, nil
	}

	start := uc.now()
	defer func() { uc.metrics.ObserveOperation(OperationDebitHistory, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	return ledger.DebitHistory(ctx)
}

// GetCreditHistory returns every credit applied to the customer, oldest
// first, including fully consumed ones.
func (uc *LedgerUseCase) GetCreditHistory(ctx context.Context, principal *domain.Principal, customerID string) ([]domain.CreditLineItem, error) {
	ledger, err := uc.readableLedger(principal, customerID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return []domain.CreditLineItem{}, nil
	}

	start := uc.now()
	defer func() { uc.metrics.ObserveOperation(OperationCreditHistory, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	return ledger.CreditHistory(ctx)
}

// readableLedger returns nil without error for an unknown customer.
func (uc *LedgerUseCase) readableLedger(principal *domain.Principal, customerID string) (*domain.Ledger, error) {
	if err := domain.ValidateIdentifier("customer_id", customerID); err != nil {
		return nil, err
	}
	if !principal.CanRead(customerID) {
		return nil, domain.ErrForbidden
	}

	ledger, ok := uc.store.Get(customerID)
	if !ok {
		return nil, nil
	}
	return ledger, nil
}

// recordEvent stores an outbox event for an applied operation. The ledger has
// already changed by now, so a failure is logged and not returned: a client
// retry would be a duplicate and could not recreate the event anyway.
func (uc *LedgerUseCase) recordEvent(ctx context.Context, customerID, eventType string, payload map[string]any) {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   customerID,
		AggregateType: domain.AggregateTypeLedger,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     uc.now().UTC(),
	}

	if err := uc.outbox.Create(context.WithoutCancel(ctx), event); err != nil {
		uc.logger.Error().
			Err(err).
			Str("customer_id", customerID).
			Str("event_type", eventType).
			Msg("failed to record outbox event")
	}
}

func outcomeOf(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return OutcomeFailed
	}
	return OutcomeRejected
}

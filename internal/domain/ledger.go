package domain

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

// gateWeight is the full weight of a ledger gate. Writers take all of it,
// readers take one unit, so up to gateWeight readers share the ledger.
const gateWeight = 1 << 10

// CreditResult is returned by Ledger.ApplyCredit.
type CreditResult struct {
	Balance   Balance
	LineItem  CreditLineItem
	Duplicate bool
}

// DebitResult is returned by Ledger.ApplyDebit. LineItems holds one entry per
// credit the debit drew from, in consumption order.
type DebitResult struct {
	Balance   Balance
	LineItems []DebitLineItem
	Duplicate bool
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the time source used to stamp line items.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger holds one customer's open credits, history and dedup state.
//
// Every mutation runs under the ledger's exclusive gate and completes before
// the gate is released. Reads share the gate with each other but never with a
// write. Waiting for the gate honours context cancellation.
type Ledger struct {
	gate *semaphore.Weighted
	now  func() time.Time

	customerID string
	currency   string

	openCredits map[Category][]*CreditLineItem
	totalOpen   decimal.Decimal

	// Dedup sets grow for the lifetime of the ledger; nothing evicts them.
	processedCredits  map[creditKey]struct{}
	processedInvoices map[string]struct{}

	creditHistory []*CreditLineItem
	debitHistory  []DebitLineItem
	sequence      uint64
}

// NewLedger creates an empty ledger for customerID.
func NewLedger(customerID string, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		gate:              semaphore.NewWeighted(gateWeight),
		now:               time.Now,
		customerID:        customerID,
		openCredits:       make(map[Category][]*CreditLineItem),
		totalOpen:         decimal.Zero,
		processedCredits:  make(map[creditKey]struct{}),
		processedInvoices: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CustomerID returns the owner of the ledger.
func (l *Ledger) CustomerID() string {
	return l.customerID
}

// ApplyCredit adds an open credit entry at the tail of its category.
// A (category, transactionID) pair that was already applied is a no-op and
// returns the current balance with Duplicate set.
func (l *Ledger) ApplyCredit(ctx context.Context, transactionID string, category Category, money Money) (*CreditResult, error) {
	assert(transactionID != "", "credit transaction id is empty")
	assert(category.IsValid(), "unknown credit category %q", category)
	assert(!money.IsNegative(), "negative credit amount %s", money)

	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.unlock()

	key := creditKey{category: category, transactionID: transactionID}
	if _, seen := l.processedCredits[key]; seen {
		return &CreditResult{Balance: l.balanceLocked(), Duplicate: true}, nil
	}

	if err := l.checkCurrencyLocked(money); err != nil {
		return nil, err
	}
	if l.currency == "" {
		l.currency = money.Currency
	}

	item := &CreditLineItem{
		CreatedAt:     l.now().UTC(),
		TransactionID: transactionID,
		Category:      category,
		Money:         money,
		InitialAmount: money.Amount,
	}

	l.openCredits[category] = append(l.openCredits[category], item)
	l.totalOpen = l.totalOpen.Add(money.Amount)
	l.creditHistory = append(l.creditHistory, item)
	l.processedCredits[key] = struct{}{}
	l.sequence++

	return &CreditResult{Balance: l.balanceLocked(), LineItem: item.clone()}, nil
}

// ApplyDebit draws money from open credits in ConsumptionOrder, oldest entry
// first within a category, splitting the last entry it touches when the debit
// ends inside it. The debit is rejected with ErrInsufficientBalance before any
// state changes when it exceeds the open total. A repeated invoiceID is a no-op.
func (l *Ledger) ApplyDebit(ctx context.Context, invoiceID string, money Money) (*DebitResult, error) {
	assert(invoiceID != "", "debit invoice id is empty")
	assert(!money.IsNegative(), "negative debit amount %s", money)

	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.unlock()

	if _, seen := l.processedInvoices[invoiceID]; seen {
		return &DebitResult{Balance: l.balanceLocked(), Duplicate: true}, nil
	}

	if err := l.checkCurrencyLocked(money); err != nil {
		return nil, err
	}

	if money.Amount.GreaterThan(l.totalOpen) {
		return nil, fmt.Errorf("%w: requested %s, available %s",
			ErrInsufficientBalance, money.Amount, l.totalOpen)
	}

	appliedAt := l.now().UTC()
	remaining := money.Amount

	var items []DebitLineItem
	for _, category := range ConsumptionOrder {
		entries, ok := l.openCredits[category]
		if !ok {
			continue
		}

		consumed := 0
		for _, entry := range entries {
			entry.AppliedInvoiceIDs = append(entry.AppliedInvoiceIDs, invoiceID)

			drawn := remaining
			if entry.Money.Amount.LessThanOrEqual(remaining) {
				drawn = entry.Money.Amount
				consumed++
			}

			entry.Money = entry.Money.WithAmount(entry.Money.Amount.Sub(drawn))
			remaining = remaining.Sub(drawn)
			l.totalOpen = l.totalOpen.Sub(drawn)

			item := DebitLineItem{
				AppliedAt:           appliedAt,
				InvoiceID:           invoiceID,
				Money:               entry.Money.WithAmount(drawn),
				SourceTransactionID: entry.TransactionID,
				SourceCategory:      category,
			}
			l.debitHistory = append(l.debitHistory, item)
			items = append(items, item)

			if remaining.IsZero() {
				break
			}
		}

		if consumed > 0 {
			l.openCredits[category] = slices.Clone(entries[consumed:])
		}

		if remaining.IsZero() {
			break
		}
	}

	assert(remaining.IsZero(), "open credits short by %s after debit %s", remaining, invoiceID)

	l.processedInvoices[invoiceID] = struct{}{}
	l.sequence++

	return &DebitResult{Balance: l.balanceLocked(), LineItems: items}, nil
}

// Balance projects the currently open credit amounts.
func (l *Ledger) Balance(ctx context.Context) (Balance, error) {
	if err := l.rlock(ctx); err != nil {
		return Balance{}, err
	}
	defer l.runlock()

	return l.balanceLocked(), nil
}

// Total returns the sum of all open credit amounts.
func (l *Ledger) Total(ctx context.Context) (Money, error) {
	if err := l.rlock(ctx); err != nil {
		return Money{}, err
	}
	defer l.runlock()

	return NewMoney(l.totalOpen, l.currency), nil
}

// CreditHistory returns every credit ever applied, in arrival order, including
// fully consumed ones.
func (l *Ledger) CreditHistory(ctx context.Context) ([]CreditLineItem, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.runlock()

	history := make([]CreditLineItem, len(l.creditHistory))
	for i, item := range l.creditHistory {
		history[i] = item.clone()
	}
	return history, nil
}

// DebitHistory returns every debit fragment ever emitted, in order.
func (l *Ledger) DebitHistory(ctx context.Context) ([]DebitLineItem, error) {
	if err := l.rlock(ctx); err != nil {
		return nil, err
	}
	defer l.runlock()

	return slices.Clone(l.debitHistory), nil
}

// Reconcile recomputes the open total from the entries and from the history
// and compares both with the running total.
func (l *Ledger) Reconcile(ctx context.Context) (Reconciliation, error) {
	if err := l.rlock(ctx); err != nil {
		return Reconciliation{}, err
	}
	defer l.runlock()

	r := Reconciliation{
		CustomerID:    l.customerID,
		Currency:      l.currency,
		RecordedTotal: l.totalOpen,
		OpenTotal:     decimal.Zero,
		CreditedTotal: decimal.Zero,
		DebitedTotal:  decimal.Zero,
	}

	nonNegative := true
	for _, entries := range l.openCredits {
		for _, entry := range entries {
			if entry.Money.IsNegative() {
				nonNegative = false
			}
			r.OpenTotal = r.OpenTotal.Add(entry.Money.Amount)
			r.OpenEntries++
		}
	}
	for _, item := range l.creditHistory {
		r.CreditedTotal = r.CreditedTotal.Add(item.InitialAmount)
	}
	for _, item := range l.debitHistory {
		r.DebitedTotal = r.DebitedTotal.Add(item.Money.Amount)
	}

	r.Consistent = nonNegative &&
		r.RecordedTotal.Equal(r.OpenTotal) &&
		r.Difference().IsZero()

	return r, nil
}

func (l *Ledger) balanceLocked() Balance {
	amounts := make(map[Category][]Money, len(l.openCredits))
	for _, category := range ConsumptionOrder {
		entries, ok := l.openCredits[category]
		if !ok {
			continue
		}
		list := make([]Money, 0, len(entries))
		for _, entry := range entries {
			list = append(list, entry.Money)
		}
		amounts[category] = list
	}

	return Balance{
		CustomerID: l.customerID,
		Total:      NewMoney(l.totalOpen, l.currency),
		Amounts:    amounts,
		Sequence:   l.sequence,
	}
}

func (l *Ledger) checkCurrencyLocked(money Money) error {
	if l.currency != "" && money.Currency != l.currency {
		return fmt.Errorf("%w: ledger holds %s, got %s", ErrCurrencyMismatch, l.currency, money.Currency)
	}
	return nil
}

func (l *Ledger) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.gate.Acquire(ctx, gateWeight)
}

func (l *Ledger) unlock() {
	l.gate.Release(gateWeight)
}

func (l *Ledger) rlock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.gate.Acquire(ctx, 1)
}

func (l *Ledger) runlock() {
	l.gate.Release(1)
}

// assert panics on a broken caller contract. Callers validate input at the
// boundary, so these never fire for well-formed requests.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic("ledger: " + fmt.Sprintf(format, args...))
	}
}

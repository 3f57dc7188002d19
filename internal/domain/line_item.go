package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// CreditLineItem is one credit applied to a customer's ledger.
// Money.Amount shrinks as debits draw on it; InitialAmount never changes.
type CreditLineItem struct {
	CreatedAt         time.Time
	TransactionID     string
	Category          Category
	Money             Money
	InitialAmount     decimal.Decimal
	AppliedInvoiceIDs []string
}

// clone returns a copy that shares no mutable state with c.
func (c *CreditLineItem) clone() CreditLineItem {
	cp := *c
	cp.AppliedInvoiceIDs = slices.Clone(c.AppliedInvoiceIDs)
	return cp
}

// DebitLineItem is the portion of a debit drawn from a single credit entry.
type DebitLineItem struct {
	AppliedAt           time.Time
	InvoiceID           string
	Money               Money
	SourceTransactionID string
	SourceCategory      Category
}

// creditKey identifies a processed credit. The same transaction id may be
// reused across categories.
type creditKey struct {
	category      Category
	transactionID string
}

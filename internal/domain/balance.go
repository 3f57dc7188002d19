package domain

import "github.com/shopspring/decimal"

// Balance is a point-in-time projection of a ledger's open credits.
// It is built on demand and never shared with the ledger that produced it.
type Balance struct {
	CustomerID string
	Total      Money
	// Amounts lists remaining amounts per category, oldest entry first.
	// A category that has ever held a credit is present even when empty.
	Amounts  map[Category][]Money
	Sequence uint64
}

// EmptyBalance is the projection for a customer with no ledger yet.
func EmptyBalance(customerID string) Balance {
	return Balance{
		CustomerID: customerID,
		Total:      ZeroMoney(""),
		Amounts:    map[Category][]Money{},
	}
}

// Categories returns the categories present in b in consumption order.
func (b Balance) Categories() []Category {
	categories := make([]Category, 0, len(b.Amounts))
	for _, c := range ConsumptionOrder {
		if _, ok := b.Amounts[c]; ok {
			categories = append(categories, c)
		}
	}
	return categories
}

// CategoryTotal sums the open amounts of one category.
func (b Balance) CategoryTotal(c Category) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range b.Amounts[c] {
		sum = sum.Add(m.Amount)
	}
	return sum
}

// Reconciliation is the result of checking a ledger's running total against
// its open entries and its history.
type Reconciliation struct {
	CustomerID    string
	Currency      string
	RecordedTotal decimal.Decimal
	OpenTotal     decimal.Decimal
	CreditedTotal decimal.Decimal
	DebitedTotal  decimal.Decimal
	OpenEntries   int
	Consistent    bool
}

// Difference is how far the recorded total drifts from credited minus debited.
func (r Reconciliation) Difference() decimal.Decimal {
	return r.RecordedTotal.Sub(r.CreditedTotal.Sub(r.DebitedTotal))
}

package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

func testBalance() domain.Balance {
	return domain.Balance{
		CustomerID: "alice",
		Total:      domain.MustParseMoney("25", "USD"),
		Amounts: map[domain.Category][]domain.Money{
			domain.CategoryCash:      {domain.MustParseMoney("10", "USD"), domain.MustParseMoney("10", "USD")},
			domain.CategoryGiftCard:  {},
			domain.CategoryPromotion: {domain.MustParseMoney("5", "USD")},
		},
		Sequence: 7,
	}
}

func TestBalanceFromDomain(t *testing.T) {
	resp := BalanceFromDomain(testBalance())

	if resp.CustomerID != "alice" || resp.Sequence != 7 {
		t.Fatalf("unexpected balance response: %+v", resp)
	}
	if len(resp.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(resp.Categories))
	}

	wantOrder := []string{"GIFTCARD", "PROMOTION", "CASH"}
	for i, c := range resp.Categories {
		if c.CreditType != wantOrder[i] {
			t.Fatalf("category %d = %s, want %s", i, c.CreditType, wantOrder[i])
		}
	}
	if len(resp.Categories[0].Entries) != 0 || !resp.Categories[0].Total.IsZero() {
		t.Fatalf("expected empty gift card category, got %+v", resp.Categories[0])
	}
	if !resp.Categories[2].Total.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected cash total 20, got %s", resp.Categories[2].Total)
	}
}

func TestBalanceResponse_AmountsAreStrings(t *testing.T) {
	raw, err := json.Marshal(BalanceFromDomain(testBalance()))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Total struct {
			Amount any `json:"amount"`
		} `json:"total"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s, ok := decoded.Total.Amount.(string); !ok || s != "25" {
		t.Fatalf("expected amount as string \"25\", got %#v", decoded.Total.Amount)
	}
}

func TestCreditResultFromDomain(t *testing.T) {
	item := domain.CreditLineItem{
		CreatedAt:     time.Now(),
		TransactionID: "tx-1",
		Category:      domain.CategoryCash,
		Money:         domain.MustParseMoney("10", "USD"),
		InitialAmount: decimal.NewFromInt(10),
	}

	resp := CreditResultFromDomain(&domain.CreditResult{Balance: testBalance(), LineItem: item})
	if resp.Duplicate || resp.Credit == nil || resp.Credit.TransactionID != "tx-1" {
		t.Fatalf("unexpected credit response: %+v", resp)
	}
	if resp.Credit.AppliedInvoiceIDs == nil {
		t.Fatal("expected non-nil applied invoice ids")
	}

	dup := CreditResultFromDomain(&domain.CreditResult{Balance: testBalance(), Duplicate: true})
	if !dup.Duplicate || dup.Credit != nil {
		t.Fatalf("expected duplicate without credit, got %+v", dup)
	}
}

func TestDebitResultFromDomain(t *testing.T) {
	items := []domain.DebitLineItem{
		{InvoiceID: "inv-1", Money: domain.MustParseMoney("5", "USD"), SourceTransactionID: "g1", SourceCategory: domain.CategoryGiftCard},
		{InvoiceID: "inv-1", Money: domain.MustParseMoney("2", "USD"), SourceTransactionID: "c1", SourceCategory: domain.CategoryCash},
	}

	resp := DebitResultFromDomain(&domain.DebitResult{Balance: testBalance(), LineItems: items})
	if len(resp.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(resp.LineItems))
	}
	if resp.LineItems[1].SourceCreditType != "CASH" || resp.LineItems[1].SourceTransactionID != "c1" {
		t.Fatalf("unexpected line item: %+v", resp.LineItems[1])
	}

	dup := DebitResultFromDomain(&domain.DebitResult{Balance: testBalance(), Duplicate: true})
	if dup.LineItems == nil || len(dup.LineItems) != 0 {
		t.Fatalf("expected empty non-nil line items for duplicate, got %+v", dup.LineItems)
	}
}

func TestConsistencyReportFromUseCase(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalLedgers:      2,
		ConsistentLedgers: 1,
		Discrepancies: []domain.Reconciliation{{
			CustomerID:    "bob",
			Currency:      "USD",
			RecordedTotal: decimal.NewFromInt(12),
			OpenTotal:     decimal.NewFromInt(10),
			CreditedTotal: decimal.NewFromInt(10),
			DebitedTotal:  decimal.Zero,
		}},
		CheckedAt: time.Now(),
	}

	resp := ConsistencyReportFromUseCase(report)
	if resp.LedgerConsistent || len(resp.Discrepancies) != 1 {
		t.Fatalf("unexpected report: %+v", resp)
	}
	if !resp.Discrepancies[0].Difference.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected difference 2, got %s", resp.Discrepancies[0].Difference)
	}
}

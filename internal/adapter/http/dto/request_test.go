package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/iho/creditledger/internal/domain"
)

func TestCreditRequest_ToUseCaseInput(t *testing.T) {
	var req CreditRequest
	body := `{"transaction_id":"tx-1","credit_type":"GIFTCARD","money":{"amount":"12.50","currency":"USD"}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	principal := &domain.Principal{Subject: "ops", Role: domain.RoleOperator}
	got := req.ToUseCaseInput(principal, "alice")

	if got.Principal != principal || got.CustomerID != "alice" {
		t.Fatalf("unexpected routing fields: %+v", got)
	}
	if got.TransactionID != "tx-1" || got.Category != "GIFTCARD" {
		t.Fatalf("unexpected credit fields: %+v", got)
	}
	if !got.Money.Equal(domain.MustParseMoney("12.5", "USD")) {
		t.Fatalf("expected 12.5 USD, got %s", got.Money)
	}
}

func TestCreditRequest_NumericAmount(t *testing.T) {
	var req CreditRequest
	body := `{"transaction_id":"tx-1","credit_type":"CASH","money":{"amount":7,"currency":"EUR"}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	if req.Money.Amount == nil || req.Money.Amount.String() != "7" {
		t.Fatalf("expected amount 7, got %s", req.Money.Amount)
	}
}

func TestCreditRequest_InvalidAmount(t *testing.T) {
	var req CreditRequest
	body := `{"transaction_id":"tx-1","credit_type":"CASH","money":{"amount":"ten","currency":"EUR"}}`
	if err := json.Unmarshal([]byte(body), &req); err == nil {
		t.Fatal("expected decode error for non-numeric amount")
	}
}

func TestDebitRequest_ToUseCaseInput(t *testing.T) {
	var req DebitRequest
	body := `{"invoice_id":"inv-9","money":{"amount":"3","currency":"usd"}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	got := req.ToUseCaseInput(nil, "bob")
	if got.Principal != nil || got.CustomerID != "bob" || got.InvoiceID != "inv-9" {
		t.Fatalf("unexpected input: %+v", got)
	}
	// currency normalisation happens in the use case
	if got.Money.Currency != "usd" || got.Money.Amount.String() != "3" {
		t.Fatalf("unexpected money: %s", got.Money)
	}
}

func TestRequests_MissingAmount(t *testing.T) {
	tests := []struct {
		name string
		body string
		req  interface {
			Validate() error
		}
	}{
		{
			name: "credit without amount",
			body: `{"transaction_id":"tx-1","credit_type":"CASH","money":{"currency":"USD"}}`,
			req:  &CreditRequest{},
		},
		{
			name: "credit without money",
			body: `{"transaction_id":"tx-1","credit_type":"CASH"}`,
			req:  &CreditRequest{},
		},
		{
			name: "credit with null amount",
			body: `{"transaction_id":"tx-1","credit_type":"CASH","money":{"amount":null,"currency":"USD"}}`,
			req:  &CreditRequest{},
		},
		{
			name: "debit without amount",
			body: `{"invoice_id":"inv-1","money":{"currency":"USD"}}`,
			req:  &DebitRequest{},
		},
		{
			name: "debit without money",
			body: `{"invoice_id":"inv-1"}`,
			req:  &DebitRequest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := json.Unmarshal([]byte(tt.body), tt.req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if err := tt.req.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRequests_ExplicitZeroAmount(t *testing.T) {
	var req DebitRequest
	body := `{"invoice_id":"inv-1","money":{"amount":"0","currency":"USD"}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	if err := req.Validate(); err != nil {
		t.Fatalf("expected explicit zero to validate, got %v", err)
	}
	if !req.ToUseCaseInput(nil, "bob").Money.IsZero() {
		t.Fatal("expected zero money")
	}
}

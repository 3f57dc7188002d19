package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxIdentifierLength = 255
	MaxAmount           = "1000000000000" // 1 trillion
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateIdentifier checks customer, transaction and invoice ids.
func ValidateIdentifier(field, id string) error {
	id = strings.TrimSpace(id)

	if id == "" {
		return fmt.Errorf("%w: %s", ErrMissingID, field)
	}

	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, MaxIdentifierLength)
	}

	return nil
}

// NormalizeCurrency upper-cases and validates an ISO 4217 code.
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return "", fmt.Errorf("%w: %q is not a supported ISO 4217 code", ErrInvalidCurrency, currency)
	}

	return currency, nil
}

// ValidateAmount accepts zero and positive amounts up to MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidInput, MaxAmount)
	}

	return nil
}

// NormalizeMoney validates an amount and its currency and returns the money
// with a canonical currency code.
func NormalizeMoney(m Money) (Money, error) {
	if err := ValidateAmount(m.Amount); err != nil {
		return Money{}, err
	}

	currency, err := NormalizeCurrency(m.Currency)
	if err != nil {
		return Money{}, err
	}

	return NewMoney(m.Amount, currency), nil
}

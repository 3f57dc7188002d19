package domain

import (
	"fmt"
	"strings"
)

// Category classifies a credit and decides its priority when debits consume it.
type Category string

const (
	CategoryGiftCard  Category = "GIFTCARD"
	CategoryPromotion Category = "PROMOTION"
	CategoryCash      Category = "CASH"
)

// ConsumptionOrder is the order in which debits drain categories.
// The balance projection lists categories in the same order.
var ConsumptionOrder = [...]Category{
	CategoryGiftCard,
	CategoryPromotion,
	CategoryCash,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range ConsumptionOrder {
		if c == known {
			return true
		}
	}
	return false
}

// Priority returns the position of c in ConsumptionOrder, or -1.
func (c Category) Priority() int {
	for i, known := range ConsumptionOrder {
		if c == known {
			return i
		}
	}
	return -1
}

// ParseCategory parses a case-insensitive category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"GIFTCARD", CategoryGiftCard, false},
		{"promotion", CategoryPromotion, false},
		{" Cash ", CategoryCash, false},
		{"VOUCHER", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCategory) || !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrUnknownCategory, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCategory_Priority(t *testing.T) {
	if !(CategoryGiftCard.Priority() < CategoryPromotion.Priority() &&
		CategoryPromotion.Priority() < CategoryCash.Priority()) {
		t.Fatal("expected GIFTCARD < PROMOTION < CASH")
	}
	if Category("OTHER").Priority() != -1 {
		t.Fatal("expected unknown category priority -1")
	}
	if Category("OTHER").IsValid() {
		t.Fatal("expected unknown category to be invalid")
	}
}

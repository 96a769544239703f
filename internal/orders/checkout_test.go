package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func TestValidateLine(t *testing.T) {
	active := func(stock int) *lockedProduct {
		return &lockedProduct{ID: 1, Price: decimal.NewFromInt(10), Stock: stock, Status: productStatusActive}
	}

	cases := []struct {
		name    string
		p       *lockedProduct
		qty     int
		wantErr error
	}{
		{"ok", active(5), 3, nil},
		{"exact stock", active(3), 3, nil},
		{"missing product", nil, 1, ErrProductNotFound},
		{"inactive", &lockedProduct{ID: 1, Stock: 5, Status: "archived"}, 1, ErrProductInactive},
		{"insufficient", active(2), 3, ErrInsufficientStock},
		{"zero qty", active(5), 0, ErrValidation},
		{"negative qty", active(5), -1, ErrValidation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateLine(c.p, 1, c.qty)
			if c.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("got %v, want %v", err, c.wantErr)
			}
		})
	}
}

// A missing product must be reported before inactive/stock checks would even
// be possible, and inactive before insufficient stock.
func TestValidateLineOrder(t *testing.T) {
	inactiveAndEmpty := &lockedProduct{ID: 7, Stock: 0, Status: "archived"}
	if err := validateLine(inactiveAndEmpty, 7, 5); !errors.Is(err, ErrProductInactive) {
		t.Fatalf("got %v, want ErrProductInactive", err)
	}
}

func TestLineTotalAndRounding(t *testing.T) {
	// scenario: price 10.00 x 3 = 30.00
	total := lineTotal(mustDec(t, "10.00"), 3)
	if total.Round(2).StringFixed(2) != "30.00" {
		t.Fatalf("total = %s, want 30.00", total.StringFixed(2))
	}

	// accumulation stays exact and is rounded once at the end
	sum := decimal.Zero
	sum = sum.Add(lineTotal(mustDec(t, "19.99"), 3))  // 59.97
	sum = sum.Add(lineTotal(mustDec(t, "0.10"), 7))   // 0.70
	sum = sum.Add(lineTotal(mustDec(t, "123.45"), 1)) // 123.45
	if got := sum.Round(2).StringFixed(2); got != "184.12" {
		t.Fatalf("sum = %s, want 184.12", got)
	}
}

func TestNilIfEmpty(t *testing.T) {
	if nilIfEmpty(nil) != nil {
		t.Error("nil stays nil")
	}
	empty := ""
	if nilIfEmpty(&empty) != nil {
		t.Error("empty string becomes nil")
	}
	key := "retry-1"
	if got := nilIfEmpty(&key); got == nil || *got != "retry-1" {
		t.Error("non-empty value must pass through")
	}
}

package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func line(base string, qty int32, deltas ...string) ValidatedLine {
	l := ValidatedLine{
		Item:     &CatalogItem{BasePrice: decimal.RequireFromString(base)},
		Quantity: qty,
	}
	for _, d := range deltas {
		l.Options = append(l.Options, SelectedOption{PriceDelta: decimal.RequireFromString(d)})
	}
	return l
}

func TestPriceLines(t *testing.T) {
	tests := []struct {
		name      string
		lines     []ValidatedLine
		wantUnits []string
		wantLines []string
		subtotal  string
	}{
		{
			name:      "large milk tea x2",
			lines:     []ValidatedLine{line("100.00", 2, "30.00")},
			wantUnits: []string{"130.00"},
			wantLines: []string{"260.00"},
			subtotal:  "260.00",
		},
		{
			name:      "no float drift",
			lines:     []ValidatedLine{line("0.10", 3, "0.20")},
			wantUnits: []string{"0.30"},
			wantLines: []string{"0.90"},
			subtotal:  "0.90",
		},
		{
			name: "many cents",
			lines: []ValidatedLine{
				line("19.99", 7, "0.01", "0.33", "0.33"),
				line("0.01", 99),
				line("45.45", 1),
			},
			wantUnits: []string{"20.66", "0.01", "45.45"},
			wantLines: []string{"144.62", "0.99", "45.45"},
			subtotal:  "191.06",
		},
		{
			name:      "zero price",
			lines:     []ValidatedLine{line("0.00", 5)},
			wantUnits: []string{"0.00"},
			wantLines: []string{"0.00"},
			subtotal:  "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priced, subtotal := PriceLines(tt.lines)
			for i, p := range priced {
				if !p.UnitPrice.Equal(decimal.RequireFromString(tt.wantUnits[i])) {
					t.Errorf("line %d unit: got %s, want %s", i, p.UnitPrice, tt.wantUnits[i])
				}
				if !p.LineTotal.Equal(decimal.RequireFromString(tt.wantLines[i])) {
					t.Errorf("line %d total: got %s, want %s", i, p.LineTotal, tt.wantLines[i])
				}
				if !p.LineTotal.Equal(p.UnitPrice.Mul(decimal.NewFromInt32(p.Quantity))) {
					t.Errorf("line %d: total != unit x qty", i)
				}
			}
			if !subtotal.Equal(decimal.RequireFromString(tt.subtotal)) {
				t.Errorf("subtotal: got %s, want %s", subtotal, tt.subtotal)
			}
		})
	}
}

func TestPriceLines_SubtotalIsSumOfLines(t *testing.T) {
	var lines []ValidatedLine
	for i := 1; i <= 50; i++ {
		lines = append(lines, line("12.34", int32(i), "0.07", "1.11"))
	}
	priced, subtotal := PriceLines(lines)

	sum := decimal.Zero
	for _, p := range priced {
		sum = sum.Add(p.LineTotal)
	}
	if !sum.Equal(subtotal) {
		t.Fatalf("subtotal %s != sum of lines %s", subtotal, sum)
	}
	// 13.52 * (1+...+50) = 13.52 * 1275
	if subtotal.StringFixed(2) != "17238.00" {
		t.Errorf("subtotal: got %s", subtotal.StringFixed(2))
	}
}

func TestCheckAmounts(t *testing.T) {
	tests := []struct {
		name  string
		lines []ValidatedLine
		ok    bool
	}{
		{"at the column limit", []ValidatedLine{line("9999999999.99", 1)}, true},
		{"line over the limit", []ValidatedLine{line("130.00", 2000000000)}, false},
		{"subtotal over the limit", []ValidatedLine{line("5000000000.00", 1), line("5000000000.00", 1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priced, subtotal := PriceLines(tt.lines)
			err := CheckAmounts(priced, subtotal)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrAmountTooLarge) {
				t.Fatalf("expected ErrAmountTooLarge, got: %v", err)
			}
		})
	}
}

package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value the NUMERIC(12,2) money columns of an order hold.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// PricedLine carries the computed money of one validated line.
type PricedLine struct {
	ValidatedLine
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// PriceLines computes unit price (base + option deltas), line total
// (unit × quantity) and the subtotal over all lines.
func PriceLines(lines []ValidatedLine) ([]PricedLine, decimal.Decimal) {
	subtotal := decimal.Zero
	out := make([]PricedLine, len(lines))
	for i, l := range lines {
		delta := decimal.Zero
		for _, o := range l.Options {
			delta = delta.Add(o.PriceDelta)
		}
		unit := l.Item.BasePrice.Add(delta)
		total := unit.Mul(decimal.NewFromInt32(l.Quantity))
		subtotal = subtotal.Add(total)
		out[i] = PricedLine{ValidatedLine: l, UnitPrice: unit, LineTotal: total}
	}
	return out, subtotal
}

// CheckAmounts rejects lines or subtotals the order columns cannot store.
func CheckAmounts(lines []PricedLine, subtotal decimal.Decimal) error {
	for i, l := range lines {
		if l.UnitPrice.GreaterThan(MaxAmount) || l.LineTotal.GreaterThan(MaxAmount) {
			return fmt.Errorf("items[%d]: %w: line total %s", i, ErrAmountTooLarge, l.LineTotal.StringFixed(2))
		}
	}
	if subtotal.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: subtotal %s", ErrAmountTooLarge, subtotal.StringFixed(2))
	}
	return nil
}

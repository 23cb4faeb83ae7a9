// Package pricing holds the exact-decimal money arithmetic used by the
// catalog and checkout flows.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// SalePrice computes price - price*discountPct/100 at currency precision.
// discountPct is interpreted as 0-100.
func SalePrice(price, discountPct decimal.Decimal) decimal.Decimal {
	discount := price.Mul(discountPct).Div(oneHundred)
	return price.Sub(discount).Round(2)
}

// LineTotal is qty * unit price.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// ValidateOrderTotal rejects caller-supplied totals that do not equal the
// sum of the line items plus tax and shipping. Totals arrive from the
// client, so they are never trusted as-is.
func ValidateOrderTotal(itemsTotal, tax, shipping, total decimal.Decimal) error {
	expected := itemsTotal.Add(tax).Add(shipping).Round(2)
	if !expected.Equal(total.Round(2)) {
		return fmt.Errorf("total price %s does not match items + tax + shipping (%s)", total, expected)
	}
	return nil
}

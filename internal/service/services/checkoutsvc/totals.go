package checkoutsvc

import (
	"math"

	"github.com/corray333/backend-labs/checkout/internal/service/models/checkout"
)

// Totals are the monetary figures of an order, in minor units.
type Totals struct {
	LineTotals    []int64
	Subtotal      int64
	ShippingTotal int64
	Total         int64
}

// LineAmount is a verified unit price with its quantity.
type LineAmount struct {
	UnitPrice int64
	Quantity  int
}

// CalculateTotals multiplies out every line and adds shipping on top of the subtotal.
// Results that do not fit into int64 fail with checkout.ErrInvalidCartLine.
func CalculateTotals(lines []LineAmount, shipping int64) (Totals, error) {
	t := Totals{
		LineTotals:    make([]int64, len(lines)),
		ShippingTotal: shipping,
	}

	for i, line := range lines {
		if line.Quantity <= 0 || line.UnitPrice < 0 {
			return Totals{}, checkout.ErrInvalidCartLine
		}

		qty := int64(line.Quantity)
		if line.UnitPrice > math.MaxInt64/qty {
			return Totals{}, checkout.ErrInvalidCartLine
		}

		lineTotal := line.UnitPrice * qty
		if t.Subtotal > math.MaxInt64-lineTotal {
			return Totals{}, checkout.ErrInvalidCartLine
		}

		t.LineTotals[i] = lineTotal
		t.Subtotal += lineTotal
	}

	if shipping < 0 || t.Subtotal > math.MaxInt64-shipping {
		return Totals{}, checkout.ErrInvalidCartLine
	}
	t.Total = t.Subtotal + shipping

	return t, nil
}

package cart

import (
	"github.com/shopspring/decimal"
)

// Item is one cart line. Name doubles as the line's identity within a cart:
// adding the same name again bumps Quantity instead of appending a duplicate.
type Item struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Cart is the mutable pre-checkout state. Items keep insertion order.
type Cart struct {
	Items []Item
}

// TotalCount sums the quantities across all lines.
func (c Cart) TotalCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums unit price times quantity across all lines.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// Snapshot returns a copy of the items safe to hand to an order record.
func (c Cart) Snapshot() []Item {
	return append([]Item(nil), c.Items...)
}

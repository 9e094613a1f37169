package order

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront-widget/internal/cart"
)

// Customer identifies who the order is for. Both fields may be empty.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Order is the immutable snapshot taken at checkout. Status is never stored
// on it; it is derived from PlacedAt and ETA against the clock so it can
// never go stale (see Policy.Status).
type Order struct {
	ID       string      `json:"id"`
	Customer Customer    `json:"customer"`
	Items    []cart.Item `json:"items"`
	PlacedAt time.Time   `json:"placedAt"`
	ETA      time.Time   `json:"eta"`
}

// Subtotal recomputes the order total from the snapshotted lines.
func (o Order) Subtotal() decimal.Decimal {
	return cart.Cart{Items: o.Items}.Subtotal()
}

package order

import "errors"

var (
	// ErrNoCurrentOrder means the order slot is empty or unreadable.
	ErrNoCurrentOrder = errors.New("no current order")
)

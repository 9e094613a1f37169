package kv

import "context"

// Store is the persistence port shared by the cart and order layers. Values
// are opaque text blobs keyed by string; Get reports absence through the
// second return value rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Keys names the two slots the widget owns in the store.
type Keys struct {
	Cart  string
	Order string
}

// DefaultKeys returns the slot names used when none are configured.
func DefaultKeys() Keys {
	return Keys{Cart: "cart", Order: "lastOrder"}
}

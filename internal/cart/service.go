package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-widget/internal/kv"
	"storefront-widget/internal/logger"
)

// Notifier receives cart-side UI notifications. Callbacks run synchronously
// on the mutating goroutine and fire only after the mutation was persisted.
type Notifier interface {
	ItemAdded(name string)
	CountChanged(total int)
}

// Service owns the cart: every mutation is a read-modify-write of the whole
// snapshot against the store's cart slot.
type Service interface {
	Get(ctx context.Context) Cart
	Add(ctx context.Context, name, rawPrice string) error
	ChangeQuantity(ctx context.Context, index, delta int) error
	Remove(ctx context.Context, index int) error
	Clear(ctx context.Context) error
	TotalCount(ctx context.Context) int
	Subtotal(ctx context.Context) decimal.Decimal
}

type service struct {
	store    kv.Store
	key      string
	notifier Notifier
}

// NewService creates a cart service over the given store slot. The notifier
// may be nil when nothing listens.
func NewService(store kv.Store, keys kv.Keys, notifier Notifier) Service {
	return &service{store: store, key: keys.Cart, notifier: notifier}
}

// Get loads the cart. An absent or unreadable blob yields an empty cart;
// corruption is never fatal here.
func (s *service) Get(ctx context.Context) Cart {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil || !ok {
		if err != nil {
			logger.L().Warn("read cart", zap.Error(err))
		}
		return Cart{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.L().Warn("corrupt cart snapshot, starting empty", zap.Error(err))
		return Cart{}
	}
	return Cart{Items: items}
}

// Add puts one unit of the named item into the cart. An existing line keeps
// the price it was first added with; only its quantity grows. Unparsable or
// negative prices normalize to zero.
func (s *service) Add(ctx context.Context, name, rawPrice string) error {
	c := s.Get(ctx)

	found := false
	for i := range c.Items {
		if c.Items[i].Name == name {
			c.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		c.Items = append(c.Items, Item{
			Name:      name,
			Quantity:  1,
			UnitPrice: parsePrice(rawPrice),
		})
	}

	if err := s.persist(ctx, c); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.ItemAdded(name)
		s.notifier.CountChanged(c.TotalCount())
	}
	return nil
}

// ChangeQuantity adjusts the line at index by delta, dropping the line when
// the result reaches zero. An out-of-range index is a no-op; stale indices
// from an outdated view must not fail.
func (s *service) ChangeQuantity(ctx context.Context, index, delta int) error {
	c := s.Get(ctx)
	if index < 0 || index >= len(c.Items) {
		return nil
	}

	c.Items[index].Quantity += delta
	if c.Items[index].Quantity <= 0 {
		c.Items = append(c.Items[:index], c.Items[index+1:]...)
	}

	if err := s.persist(ctx, c); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.CountChanged(c.TotalCount())
	}
	return nil
}

// Remove drops the line at index. Out-of-range is a no-op.
func (s *service) Remove(ctx context.Context, index int) error {
	c := s.Get(ctx)
	if index < 0 || index >= len(c.Items) {
		return nil
	}

	c.Items = append(c.Items[:index], c.Items[index+1:]...)

	if err := s.persist(ctx, c); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.CountChanged(c.TotalCount())
	}
	return nil
}

// Clear removes the cart slot entirely. Used after a successful checkout.
func (s *service) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if s.notifier != nil {
		s.notifier.CountChanged(0)
	}
	return nil
}

func (s *service) TotalCount(ctx context.Context) int {
	return s.Get(ctx).TotalCount()
}

func (s *service) Subtotal(ctx context.Context) decimal.Decimal {
	return s.Get(ctx).Subtotal()
}

func (s *service) persist(ctx context.Context, c Cart) error {
	payload, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(payload)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func parsePrice(raw string) decimal.Decimal {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || price.IsNegative() {
		return decimal.Zero
	}
	return price
}

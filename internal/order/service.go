package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-widget/internal/cart"
	"storefront-widget/internal/kv"
	"storefront-widget/internal/logger"
)

// Service turns the cart into the tracked current order and reads it back.
// Only one order is tracked at a time; placing a new one overwrites it.
type Service interface {
	PlaceOrder(ctx context.Context, customerName, customerPhone string) (*Order, error)
	Current(ctx context.Context) (*Order, error)
}

type service struct {
	store  kv.Store
	key    string
	carts  cart.Service
	policy Policy
	now    func() time.Time
}

// NewService creates the order service over the given store slot.
func NewService(store kv.Store, keys kv.Keys, carts cart.Service, policy Policy) Service {
	return &service{
		store:  store,
		key:    keys.Order,
		carts:  carts,
		policy: policy,
		now:    time.Now,
	}
}

// PlaceOrder snapshots the cart into a fresh order, persists it as the
// current order, then clears the cart. An empty cart still places an order.
// The order is written before the cart is touched: if the write fails the
// cart survives untouched.
func (s *service) PlaceOrder(ctx context.Context, customerName, customerPhone string) (*Order, error) {
	c := s.carts.Get(ctx)
	now := s.now()

	o := &Order{
		ID: "order-" + uuid.NewString(),
		Customer: Customer{
			Name:  strings.TrimSpace(customerName),
			Phone: strings.TrimSpace(customerPhone),
		},
		Items:    c.Snapshot(),
		PlacedAt: now,
		ETA:      now.Add(s.policy.ETAOffset),
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(payload)); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if err := s.carts.Clear(ctx); err != nil {
		// The order stands; the caller learns the cart is stale.
		return o, fmt.Errorf("order %s placed but cart not cleared: %w", o.ID, err)
	}

	logger.L().Info("order placed",
		zap.String("id", o.ID),
		zap.Int("lines", len(o.Items)),
		zap.String("subtotal", o.Subtotal().StringFixed(2)),
		zap.Time("eta", o.ETA),
	)
	return o, nil
}

// Current reads the tracked order. Absence and corruption both come back as
// ErrNoCurrentOrder; real store failures propagate.
func (s *service) Current(ctx context.Context) (*Order, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	if !ok {
		return nil, ErrNoCurrentOrder
	}

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		logger.L().Warn("corrupt order snapshot", zap.Error(err))
		return nil, ErrNoCurrentOrder
	}
	return &o, nil
}

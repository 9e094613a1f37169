// Command widget exercises the ordering core end to end against the
// configured store backend: it fills a cart, places an order, then streams
// status ticks until interrupted.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-widget/internal/cart"
	"storefront-widget/internal/config"
	"storefront-widget/internal/kv"
	"storefront-widget/internal/logger"
	"storefront-widget/internal/order"
)

// Overridable in tests.
var waitForInterrupt = func() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.L().Fatal("widget", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	log := logger.L()

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	keys := cfg.Keys()
	policy := order.Policy{
		ETAOffset:      cfg.ETAOffset,
		ReceivedWindow: cfg.ReceivedWindow,
		PickupWindow:   cfg.PickupWindow,
	}

	carts := cart.NewService(store, keys, &consoleNotifier{log: log})
	orders := order.NewService(store, keys, carts, policy)

	ctx := context.Background()
	for _, line := range [][2]string{
		{"Burger", "5.50"},
		{"Burger", "5.50"},
		{"Fries", "2.25"},
	} {
		if err := carts.Add(ctx, line[0], line[1]); err != nil {
			return fmt.Errorf("add %s: %w", line[0], err)
		}
	}
	log.Info("cart ready",
		zap.Int("count", carts.TotalCount(ctx)),
		zap.String("subtotal", carts.Subtotal(ctx).StringFixed(2)),
	)

	if _, err := orders.PlaceOrder(ctx, "Ada Lovelace", "555-0101"); err != nil {
		return fmt.Errorf("place order: %w", err)
	}

	watcher := order.NewWatcher(orders, policy, cfg.PollInterval, &consoleSink{log: log})
	watcher.Start()
	defer watcher.Stop()

	waitForInterrupt()
	log.Info("shutting down", zap.Uint64("ticks", watcher.Ticks()))
	return nil
}

func buildStore(cfg *config.Config) (kv.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return kv.NewRedis(client), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		connStr := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
		)
		db, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := kv.EnsureSchema(context.Background(), db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return kv.NewPostgres(db), func() { _ = db.Close() }, nil

	default:
		return kv.NewMemory(), func() {}, nil
	}
}

// consoleNotifier renders cart notifications as log lines; a real UI layer
// would update the badge and flash a toast instead.
type consoleNotifier struct {
	log *zap.Logger
}

func (n *consoleNotifier) ItemAdded(name string) {
	n.log.Info("added to cart", zap.String("item", name))
}

func (n *consoleNotifier) CountChanged(total int) {
	n.log.Info("cart count", zap.Int("total", total))
}

// consoleSink renders status ticks as log lines.
type consoleSink struct {
	log *zap.Logger
}

func (s *consoleSink) OnTick(t order.Tick) {
	active := ""
	for _, step := range t.Steps {
		if step.Active {
			active = step.Label
		}
	}
	s.log.Info("order status",
		zap.String("order", t.OrderID),
		zap.Stringer("status", t.Status),
		zap.String("step", active),
		zap.Duration("remaining", t.Remaining),
		zap.Bool("ready", t.Ready),
	)
}

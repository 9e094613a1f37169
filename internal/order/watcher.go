package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront-widget/internal/logger"
	"storefront-widget/internal/metrics"
)

// StepLabels are the fixed display steps in progression order.
var StepLabels = [4]string{"Received", "Preparing", "Ready for Pickup", "Completed"}

// Step is the per-tick marking of one display step: Completed when the step
// precedes the current status, Active when it is the current status.
type Step struct {
	Label     string
	Completed bool
	Active    bool
}

// Tick is one status notification for the UI layer.
type Tick struct {
	OrderID   string
	Status    Status
	Remaining time.Duration // until the ETA, clamped at zero
	Ready     bool          // true once the ETA has passed
	Steps     [4]Step
}

// Sink receives ticks. OnTick runs synchronously on the watcher's polling
// goroutine (or on the caller's for the first tick after Start); calling
// Stop from inside OnTick is allowed.
type Sink interface {
	OnTick(Tick)
}

// Watcher polls the current order and reports its derived status at a fixed
// cadence. Each Watcher owns its cancellation; there is no shared global
// timer handle, so independent watchers can coexist.
type Watcher struct {
	orders   Service
	policy   Policy
	interval time.Duration
	sink     Sink
	now      func() time.Time
	ticks    metrics.Counter

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

const defaultInterval = 2 * time.Second

// NewWatcher creates a stopped watcher. A non-positive interval falls back
// to the 2 second default.
func NewWatcher(orders Service, policy Policy, interval time.Duration, sink Sink) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Watcher{
		orders:   orders,
		policy:   policy,
		interval: interval,
		sink:     sink,
		now:      time.Now,
	}
}

// Start begins polling. A running watcher restarts: the previous run is
// invalidated before the new one begins, so there is only ever one active
// cadence. The first tick fires synchronously before Start returns.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.mu.Unlock()

	limiter := rate.NewLimiter(rate.Every(w.interval), 1)
	// The bucket starts full; spend the first token on the synchronous tick
	// so the loop's first wait lasts a full interval.
	limiter.Allow()
	w.emit(ctx, gen)

	go func() {
		for {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			w.emit(ctx, gen)
		}
	}()
}

// Stop cancels polling. Idempotent, and safe to call from inside OnTick.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++ // invalidates any emit still in flight
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// Ticks reports how many notifications have been emitted since creation.
func (w *Watcher) Ticks() uint64 {
	return w.ticks.Load()
}

func (w *Watcher) emit(ctx context.Context, gen uint64) {
	timer := metrics.StartTimer()

	o, err := w.orders.Current(ctx)
	if errors.Is(err, ErrNoCurrentOrder) {
		return
	}
	if err != nil {
		logger.L().Warn("watcher: load current order", zap.Error(err))
		return
	}

	now := w.now()
	status := w.policy.Status(*o, now)

	remaining := o.ETA.Sub(now)
	ready := remaining <= 0
	if remaining < 0 {
		remaining = 0
	}

	t := Tick{
		OrderID:   o.ID,
		Status:    status,
		Remaining: remaining,
		Ready:     ready,
		Steps:     steps(status),
	}

	w.mu.Lock()
	current := w.gen == gen
	w.mu.Unlock()
	if !current {
		return
	}

	w.ticks.Inc()
	logger.L().Debug("status tick",
		zap.String("order", t.OrderID),
		zap.Stringer("status", t.Status),
		zap.Duration("remaining", t.Remaining),
		zap.Duration("took", timer.Duration()),
	)
	w.sink.OnTick(t)
}

func steps(s Status) [4]Step {
	var out [4]Step
	for i, label := range StepLabels {
		out[i] = Step{
			Label:     label,
			Completed: Status(i) < s,
			Active:    Status(i) == s,
		}
	}
	return out
}

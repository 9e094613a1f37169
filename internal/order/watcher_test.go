package order

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront-widget/internal/cart"
	"storefront-widget/internal/kv"
	"storefront-widget/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init("test")
	// The watcher must never leak its polling goroutine past Stop.
	goleak.VerifyTestMain(m)
}

// recordingSink collects ticks; optionally stops the watcher from inside
// the callback.
type recordingSink struct {
	mu       sync.Mutex
	ticks    []Tick
	stopFrom *Watcher
}

func (s *recordingSink) OnTick(t Tick) {
	s.mu.Lock()
	s.ticks = append(s.ticks, t)
	s.mu.Unlock()

	if s.stopFrom != nil {
		s.stopFrom.Stop()
	}
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

func (s *recordingSink) last() Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks[len(s.ticks)-1]
}

func seedOrder(t *testing.T, store kv.Store, o Order) {
	t.Helper()
	payload, err := json.Marshal(o)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), kv.DefaultKeys().Order, string(payload)))
}

func newWatcherFixture(t *testing.T, interval time.Duration) (kv.Store, *recordingSink, *Watcher) {
	t.Helper()
	store := kv.NewMemory()
	keys := kv.DefaultKeys()
	orders := NewService(store, keys, cart.NewService(store, keys, nil), DefaultPolicy())
	sink := &recordingSink{}
	w := NewWatcher(orders, DefaultPolicy(), interval, sink)
	return store, sink, w
}

func TestWatcher_FirstTickIsSynchronous(t *testing.T) {
	store, sink, w := newWatcherFixture(t, time.Hour)
	now := time.Now()
	seedOrder(t, store, Order{ID: "order-sync", PlacedAt: now, ETA: now.Add(20 * time.Minute)})

	w.Start()
	defer w.Stop()

	// The interval is an hour, so any tick must be the synchronous one.
	assert.Equal(t, 1, sink.count())
	tick := sink.last()
	assert.Equal(t, "order-sync", tick.OrderID)
	assert.Equal(t, StatusReceived, tick.Status)
	assert.False(t, tick.Ready)
	assert.InDelta(t, (20 * time.Minute).Seconds(), tick.Remaining.Seconds(), 5)
}

func TestWatcher_NoOrderIsNoOp(t *testing.T) {
	_, sink, w := newWatcherFixture(t, 10*time.Millisecond)

	w.Start()
	time.Sleep(60 * time.Millisecond)
	w.Stop()

	assert.Zero(t, sink.count())
	assert.Zero(t, w.Ticks())
}

func TestWatcher_PollsAtInterval(t *testing.T) {
	store, sink, w := newWatcherFixture(t, 25*time.Millisecond)
	now := time.Now()
	seedOrder(t, store, Order{ID: "order-poll", PlacedAt: now, ETA: now.Add(20 * time.Minute)})

	w.Start()
	time.Sleep(140 * time.Millisecond)
	w.Stop()

	// One synchronous tick plus roughly five periodic ones.
	count := sink.count()
	assert.GreaterOrEqual(t, count, 3)
	assert.LessOrEqual(t, count, 8)
	assert.Equal(t, uint64(count), w.Ticks())
}

func TestWatcher_StopEndsNotifications(t *testing.T) {
	store, sink, w := newWatcherFixture(t, 15*time.Millisecond)
	now := time.Now()
	seedOrder(t, store, Order{ID: "order-stop", PlacedAt: now, ETA: now.Add(20 * time.Minute)})

	w.Start()
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	time.Sleep(20 * time.Millisecond) // let any in-flight cycle settle
	seen := sink.count()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, seen, sink.count(), "ticks emitted after Stop")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	_, _, w := newWatcherFixture(t, 10*time.Millisecond)

	assert.NotPanics(t, func() {
		w.Stop()
		w.Start()
		w.Stop()
		w.Stop()
	})
}

func TestWatcher_RestartKeepsSingleCadence(t *testing.T) {
	store, sink, w := newWatcherFixture(t, 50*time.Millisecond)
	now := time.Now()
	seedOrder(t, store, Order{ID: "order-restart", PlacedAt: now, ETA: now.Add(20 * time.Minute)})

	w.Start()
	w.Start()
	time.Sleep(270 * time.Millisecond)
	w.Stop()

	// Two synchronous ticks (one per Start) plus one cadence of periodic
	// ticks. A leaked first loop would roughly double the count.
	count := sink.count()
	assert.GreaterOrEqual(t, count, 4)
	assert.LessOrEqual(t, count, 9)
}

func TestWatcher_StopFromInsideSink(t *testing.T) {
	store, sink, w := newWatcherFixture(t, 10*time.Millisecond)
	sink.stopFrom = w
	now := time.Now()
	seedOrder(t, store, Order{ID: "order-self-stop", PlacedAt: now, ETA: now.Add(20 * time.Minute)})

	w.Start() // first tick stops the watcher from within OnTick

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, sink.count())
}

func TestWatcher_TickContents(t *testing.T) {
	store, sink, w := newWatcherFixture(t, time.Hour)
	base := time.Now().Add(-5 * time.Minute)
	seedOrder(t, store, Order{
		ID:       "order-steps",
		PlacedAt: base,
		ETA:      base.Add(20 * time.Minute),
	})

	w.Start()
	defer w.Stop()

	require.Equal(t, 1, sink.count())
	tick := sink.last()

	// Five minutes in: preparing, about fifteen minutes remaining.
	assert.Equal(t, StatusPreparing, tick.Status)
	assert.False(t, tick.Ready)
	assert.InDelta(t, (15 * time.Minute).Seconds(), tick.Remaining.Seconds(), 5)

	require.Len(t, tick.Steps, 4)
	assert.Equal(t, "Received", tick.Steps[0].Label)
	assert.True(t, tick.Steps[0].Completed)
	assert.False(t, tick.Steps[0].Active)
	assert.Equal(t, "Preparing", tick.Steps[1].Label)
	assert.True(t, tick.Steps[1].Active)
	assert.False(t, tick.Steps[1].Completed)
	assert.Equal(t, "Ready for Pickup", tick.Steps[2].Label)
	assert.False(t, tick.Steps[2].Completed)
	assert.False(t, tick.Steps[2].Active)
	assert.Equal(t, "Completed", tick.Steps[3].Label)
	assert.False(t, tick.Steps[3].Completed)
	assert.False(t, tick.Steps[3].Active)
}

func TestWatcher_ReadyTick(t *testing.T) {
	store, sink, w := newWatcherFixture(t, time.Hour)
	base := time.Now().Add(-25 * time.Minute)
	seedOrder(t, store, Order{
		ID:       "order-ready",
		PlacedAt: base,
		ETA:      base.Add(20 * time.Minute),
	})

	w.Start()
	defer w.Stop()

	require.Equal(t, 1, sink.count())
	tick := sink.last()
	assert.Equal(t, StatusReady, tick.Status)
	assert.True(t, tick.Ready)
	assert.Equal(t, time.Duration(0), tick.Remaining)
	assert.True(t, tick.Steps[0].Completed)
	assert.True(t, tick.Steps[1].Completed)
	assert.True(t, tick.Steps[2].Active)
}

func TestSteps_CompletedStatus(t *testing.T) {
	got := steps(StatusCompleted)
	for i := 0; i < 3; i++ {
		assert.True(t, got[i].Completed)
		assert.False(t, got[i].Active)
	}
	assert.True(t, got[3].Active)
	assert.False(t, got[3].Completed)
}

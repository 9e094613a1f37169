package order

import "time"

// Status is the derived fulfillment stage. Values are ordered by time of
// occurrence: Received < Preparing < Ready < Completed.
type Status int

const (
	StatusReceived Status = iota
	StatusPreparing
	StatusReady
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusReceived:
		return "received"
	case StatusPreparing:
		return "preparing"
	case StatusReady:
		return "ready"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Policy holds the fulfillment time windows. The values are kitchen
// heuristics, not protocol, so each deployment can tune them.
type Policy struct {
	// ETAOffset is how far past placement the pickup estimate lands.
	ETAOffset time.Duration
	// ReceivedWindow is how long after placement an order reads as received.
	ReceivedWindow time.Duration
	// PickupWindow is how long past the ETA an order stays ready before it
	// counts as completed.
	PickupWindow time.Duration
}

// DefaultPolicy mirrors the storefront's historical constants: 20 minute
// estimate, 1 minute received window, 30 minute pickup window.
func DefaultPolicy() Policy {
	return Policy{
		ETAOffset:      20 * time.Minute,
		ReceivedWindow: time.Minute,
		PickupWindow:   30 * time.Minute,
	}
}

// Status maps an order and an instant onto the four stages. The windows are
// half-open and contiguous, so every instant resolves to exactly one stage
// and the result never regresses as now advances. A degenerate order whose
// ETA falls inside the received window simply has an empty preparing stage;
// the conditions are evaluated in order and the first match wins.
func (p Policy) Status(o Order, now time.Time) Status {
	switch {
	case now.Before(o.PlacedAt.Add(p.ReceivedWindow)):
		return StatusReceived
	case now.Before(o.ETA):
		return StatusPreparing
	case now.Before(o.ETA.Add(p.PickupWindow)):
		return StatusReady
	default:
		return StatusCompleted
	}
}

package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Notifier receives degraded-mode transitions. Implementations deliver them
// to an external observability channel; failures there must never reach the
// request path.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Event describes one health transition of the shared store.
type Event struct {
	Status string    `json:"status"` // "degraded" or "recovered"
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

const (
	// StatusDegraded is emitted when a store operation fails or times out.
	StatusDegraded = "degraded"
	// StatusRecovered is emitted on the first successful store operation
	// after a failure.
	StatusRecovered = "recovered"
)

const (
	stateHealthy int32 = iota
	stateDegraded
)

// Health is the two-state failure fallback tracker. Any store failure flips
// it to Degraded; the next success flips it back. While Degraded, the engine
// and the whitelist both fail open. Transitions are reported exactly once.
type Health struct {
	state    atomic.Int32
	log      *zap.Logger
	notifier Notifier
}

// NewHealth creates a tracker in the Healthy state. notifier may be nil.
func NewHealth(log *zap.Logger, notifier Notifier) *Health {
	return &Health{log: log, notifier: notifier}
}

// Degraded reports whether the store is currently considered unavailable.
func (h *Health) Degraded() bool {
	return h.state.Load() == stateDegraded
}

// MarkFailure records a failed store operation. Only the Healthy→Degraded
// edge logs and notifies; repeated failures while degraded are silent.
func (h *Health) MarkFailure(err error) {
	if !h.state.CompareAndSwap(stateHealthy, stateDegraded) {
		return
	}
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.log.Error("rate_limiter_store_degraded",
		zap.String("reason", reason),
	)
	h.emit(Event{Status: StatusDegraded, Reason: reason, At: time.Now().UTC()})
}

// MarkSuccess records a successful store operation, recovering from
// Degraded if needed.
func (h *Health) MarkSuccess() {
	if !h.state.CompareAndSwap(stateDegraded, stateHealthy) {
		return
	}
	h.log.Info("rate_limiter_store_recovered")
	h.emit(Event{Status: StatusRecovered, At: time.Now().UTC()})
}

// emit hands the event to the notifier off the request path. Delivery is
// best effort with its own deadline.
func (h *Health) emit(event Event) {
	if h.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.notifier.Notify(ctx, event)
	}()
}

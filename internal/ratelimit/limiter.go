// Package ratelimit implements the distributed sliding-window admission
// engine. Per-identifier request counts live in a shared external store
// addressed by window-bucketed keys; the estimate for the current instant
// combines the current window's count with a linearly decayed share of the
// previous window's, which bounds the boundary burst a plain fixed-window
// counter allows. No in-process lock guards the counters: correctness rests
// entirely on the store's atomic increment.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/alphafinder/rategate/internal/store"
	"go.uber.org/zap"
)

// DefaultStoreTimeout bounds every store round-trip on the request hot path.
// Short relative to typical request latency, so a dead store degrades the
// limiter, not the API.
const DefaultStoreTimeout = 50 * time.Millisecond

// Decision is the outcome of one evaluation. Computed fresh per request,
// never stored.
type Decision struct {
	Allowed        bool
	EstimatedCount float64
	Remaining      int
	ResetSeconds   int
	Limit          int
}

// Limiter is the window-counter engine shared by all gates in the process.
type Limiter struct {
	store   store.Store
	health  *Health
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// LimiterOption customizes a Limiter.
type LimiterOption func(*Limiter)

// WithStoreTimeout overrides the per-operation store timeout.
func WithStoreTimeout(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithClock overrides the limiter's clock. Test hook for window math.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates the engine. health may be shared with the whitelist so
// both observe the same degraded state.
func NewLimiter(st store.Store, health *Health, log *zap.Logger, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		store:   st,
		health:  health,
		log:     log,
		timeout: DefaultStoreTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Evaluate runs the weighted two-window sliding estimate for one request.
// The counter is incremented before the allow/deny check, so a rejected
// request still consumes a slot; a retry storm cannot escape the count by
// being rejected. Store failures fail open and never surface to the caller.
func (l *Limiter) Evaluate(ctx context.Context, identifier string, cfg GateConfig) Decision {
	now := l.now().Unix()
	window := int64(cfg.WindowSeconds)
	windowID := now / window
	elapsed := now % window

	curKey := counterKey(cfg.Scope, identifier, cfg.PathPattern, windowID)
	prevKey := counterKey(cfg.Scope, identifier, cfg.PathPattern, windowID-1)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	// TTL of two windows keeps the previous bucket readable for exactly as
	// long as any live request can reference it.
	current, err := l.store.IncrWindow(ctx, curKey, 2*cfg.Window())
	if err != nil {
		return l.failOpen(cfg, err)
	}
	previous, err := l.store.GetCount(ctx, prevKey)
	if err != nil {
		return l.failOpen(cfg, err)
	}
	l.health.MarkSuccess()

	weight := 1 - float64(elapsed)/float64(window)
	estimated := float64(current) + float64(previous)*weight
	remaining := cfg.MaxRequests - int(math.Ceil(estimated))
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:        estimated <= float64(cfg.MaxRequests),
		EstimatedCount: estimated,
		Remaining:      remaining,
		ResetSeconds:   int(window - elapsed),
		Limit:          cfg.MaxRequests,
	}

	if l.log.Core().Enabled(zap.DebugLevel) {
		l.log.Debug("rate_limit_evaluated",
			zap.String("scope", string(cfg.Scope)),
			zap.String("identifier", identifier),
			zap.Int64("current", current),
			zap.Int64("previous", previous),
			zap.Float64("estimated", estimated),
			zap.Bool("allowed", d.Allowed),
		)
	}

	return d
}

// failOpen is the StoreUnavailable path: admit the request, report degraded
// mode, surface nothing to the caller.
func (l *Limiter) failOpen(cfg GateConfig, err error) Decision {
	l.health.MarkFailure(err)
	return Decision{
		Allowed:      true,
		Remaining:    cfg.MaxRequests,
		ResetSeconds: 0,
		Limit:        cfg.MaxRequests,
	}
}

// Package alert delivers limiter health transitions to the external
// observability channel. The request path never waits on delivery.
package alert

import (
	"context"

	"github.com/alphafinder/rategate/internal/ratelimit"
	"go.uber.org/zap"
)

// LogNotifier reports health transitions to the process log only. Used when
// no message broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

var _ ratelimit.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements ratelimit.Notifier.
func (n *LogNotifier) Notify(_ context.Context, event ratelimit.Event) {
	n.log.Warn("limiter_health_event",
		zap.String("status", event.Status),
		zap.String("reason", event.Reason),
		zap.Time("at", event.At),
	)
}

package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Scope separates the key spaces of the two gate tiers. A client throttled
// globally is tracked independently per sensitive endpoint.
type Scope string

const (
	// ScopeGlobal is the process-wide gate applied to every inbound request.
	ScopeGlobal Scope = "global"
	// ScopeEndpoint is a per-route gate composed on top of the global one.
	ScopeEndpoint Scope = "endpoint"
)

// ErrInvalidConfig marks gate configurations rejected at registration time.
// Startup fails fast on it rather than silently disabling throttling.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// GateConfig is the immutable per-gate configuration. One instance exists per
// gate declaration; it is shared read-only across all requests in a process.
type GateConfig struct {
	MaxRequests   int
	WindowSeconds int
	Scope         Scope
	PathPattern   string
}

// Validate rejects non-positive limits and malformed scopes.
func (c GateConfig) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("%w: window seconds must be positive, got %d", ErrInvalidConfig, c.WindowSeconds)
	}
	switch c.Scope {
	case ScopeGlobal:
	case ScopeEndpoint:
		if c.PathPattern == "" {
			return fmt.Errorf("%w: endpoint scope requires a path pattern", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidConfig, c.Scope)
	}
	return nil
}

// Window returns the window length as a duration.
func (c GateConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

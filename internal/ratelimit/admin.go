package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alphafinder/rategate/internal/store"
)

// ErrFilterRequired is returned by Clear when neither an identifier nor a
// path pattern is given: wiping every counter in the deployment needs to be
// an explicit, narrower request.
var ErrFilterRequired = errors.New("at least one of identifier or path pattern is required")

// WindowStat is the count and remaining TTL of one window bucket.
type WindowStat struct {
	Count      int64 `json:"count"`
	TTLSeconds int64 `json:"ttl"`
}

// StatEntry aggregates the live window buckets of one (scope, path, client).
type StatEntry struct {
	Count      int64                 `json:"count"`
	TTLSeconds int64                 `json:"ttl"`
	Windows    map[string]WindowStat `json:"windows"`
}

// StatsReport is the admin-surface view of current limiter state.
type StatsReport struct {
	Stats     map[string]StatEntry `json:"stats"`
	Timestamp int64                `json:"timestamp"`
}

// Admin performs the operator read/mutate operations against the same shared
// store the hot path uses; changes are visible to the next request with no
// propagation delay beyond the store's own consistency.
type Admin struct {
	store store.Store
	now   func() time.Time
}

// NewAdmin creates the admin operations service.
func NewAdmin(st store.Store) *Admin {
	return &Admin{store: st, now: time.Now}
}

// Stats scans counters matching the optional scope/identifier/path filters
// and aggregates them per scope:path:client, with per-window detail.
func (a *Admin) Stats(ctx context.Context, scope Scope, identifier, pathPattern string) (*StatsReport, error) {
	pattern := counterPattern(scope, identifier, pathPattern)
	keys, err := a.store.ScanKeys(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("stats scan: %w", err)
	}

	report := &StatsReport{
		Stats:     make(map[string]StatEntry),
		Timestamp: a.now().Unix(),
	}
	for _, key := range keys {
		parsed, ok := parseCounterKey(key)
		if !ok {
			continue
		}
		count, err := a.store.GetCount(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("stats read %s: %w", key, err)
		}
		ttl, err := a.store.TTL(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("stats ttl %s: %w", key, err)
		}
		ttlSeconds := int64(ttl / time.Second)

		group := fmt.Sprintf("%s:%s:%s", parsed.scope, parsed.path, parsed.client)
		entry, exists := report.Stats[group]
		if !exists {
			entry = StatEntry{Windows: make(map[string]WindowStat)}
		}
		entry.Count += count
		if ttlSeconds > entry.TTLSeconds {
			entry.TTLSeconds = ttlSeconds
		}
		entry.Windows[parsed.windowID] = WindowStat{Count: count, TTLSeconds: ttlSeconds}
		report.Stats[group] = entry
	}
	return report, nil
}

// Clear deletes all counters matching the filters, resetting throttling
// state immediately. Used operationally to unblock a caller without waiting
// for window expiry.
func (a *Admin) Clear(ctx context.Context, scope Scope, identifier, pathPattern string) (int64, error) {
	if identifier == "" && pathPattern == "" {
		return 0, ErrFilterRequired
	}
	pattern := counterPattern(scope, identifier, pathPattern)
	keys, err := a.store.ScanKeys(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("clear scan: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	deleted, err := a.store.DeleteKeys(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("clear delete: %w", err)
	}
	return deleted, nil
}

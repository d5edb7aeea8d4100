package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/alphafinder/rategate/internal/store"
	"go.uber.org/zap"
)

// Whitelist is the bypass registry: identifiers exempt from evaluation.
// Membership lives in a non-expiring set in the shared store, so an admin
// change on one process is visible to every other process on its next
// request.
type Whitelist struct {
	store   store.Store
	health  *Health
	log     *zap.Logger
	timeout time.Duration
}

// NewWhitelist creates the registry over the shared store.
func NewWhitelist(st store.Store, health *Health, log *zap.Logger) *Whitelist {
	return &Whitelist{
		store:   st,
		health:  health,
		log:     log,
		timeout: DefaultStoreTimeout,
	}
}

// Contains is consulted on the request hot path. On store failure it reports
// false and marks degraded mode; the engine's fail-open already admits
// everything in that state, so the miss is not user visible.
func (w *Whitelist) Contains(ctx context.Context, identifier string) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ok, err := w.store.SetContains(ctx, whitelistKey, identifier)
	if err != nil {
		w.health.MarkFailure(err)
		return false
	}
	w.health.MarkSuccess()
	return ok
}

// Add puts an identifier on the whitelist. Idempotent: adding an existing
// identifier succeeds without effect.
func (w *Whitelist) Add(ctx context.Context, identifier string) error {
	if err := w.store.SetAdd(ctx, whitelistKey, identifier); err != nil {
		return fmt.Errorf("whitelist add: %w", err)
	}
	return nil
}

// Remove takes an identifier off the whitelist. Removing an absent
// identifier succeeds, to keep operator scripts simple.
func (w *Whitelist) Remove(ctx context.Context, identifier string) error {
	if err := w.store.SetRemove(ctx, whitelistKey, identifier); err != nil {
		return fmt.Errorf("whitelist remove: %w", err)
	}
	return nil
}

// List returns all whitelisted identifiers.
func (w *Whitelist) List(ctx context.Context) ([]string, error) {
	members, err := w.store.SetMembers(ctx, whitelistKey)
	if err != nil {
		return nil, fmt.Errorf("whitelist list: %w", err)
	}
	return members, nil
}

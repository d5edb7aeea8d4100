package ratelimit

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alphafinder/rategate/internal/store"
	"go.uber.org/zap"
)

// brokenSetStore fails membership checks.
type brokenSetStore struct {
	*store.MemoryStore
	err error
}

func (b *brokenSetStore) SetContains(context.Context, string, string) (bool, error) {
	return false, b.err
}

func newTestWhitelist(st store.Store) (*Whitelist, *Health) {
	health := NewHealth(zap.NewNop(), nil)
	return NewWhitelist(st, health, zap.NewNop()), health
}

func TestWhitelistAddRemoveIdempotent(t *testing.T) {
	t.Parallel()
	wl, _ := newTestWhitelist(store.NewMemoryStore())
	ctx := context.Background()

	if err := wl.Add(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := wl.Add(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("Add() repeat error = %v", err)
	}
	if err := wl.Add(ctx, "sub:user-1"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if !wl.Contains(ctx, "1.2.3.4") {
		t.Error("Contains(1.2.3.4) = false, want true")
	}
	if wl.Contains(ctx, "5.6.7.8") {
		t.Error("Contains(5.6.7.8) = true, want false")
	}

	members, err := wl.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "1.2.3.4" || members[1] != "sub:user-1" {
		t.Errorf("List() = %v, want [1.2.3.4 sub:user-1]", members)
	}

	if err := wl.Remove(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := wl.Remove(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("Remove() repeat error = %v", err)
	}
	if wl.Contains(ctx, "1.2.3.4") {
		t.Error("Contains() after Remove = true, want false")
	}
}

func TestWhitelistContainsFailsClosedOnStoreError(t *testing.T) {
	t.Parallel()
	bs := &brokenSetStore{MemoryStore: store.NewMemoryStore(), err: errors.New("timeout")}
	wl, health := newTestWhitelist(bs)

	if wl.Contains(context.Background(), "1.2.3.4") {
		t.Error("Contains() = true during store outage, want false")
	}
	if !health.Degraded() {
		t.Error("Degraded() = false after store failure, want true")
	}
}

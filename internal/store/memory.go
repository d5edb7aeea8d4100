package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory Store. It backs tests and
// single-node development; production deployments share Redis.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	sets     map[string]map[string]struct{}
	now      func() time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time // zero means no expiry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*memoryCounter),
		sets:     make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// SetClock overrides the store's clock. Test hook for TTL expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) expired(c *memoryCounter) bool {
	return !c.expiresAt.IsZero() && s.now().After(c.expiresAt)
}

func (s *MemoryStore) IncrWindow(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || s.expired(c) {
		c = &memoryCounter{}
		if ttl > 0 {
			c.expiresAt = s.now().Add(ttl)
		}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryStore) GetCount(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || s.expired(c) {
		return 0, nil
	}
	return c.count, nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || s.expired(c) {
		return -2 * time.Second, nil
	}
	if c.expiresAt.IsZero() {
		return -1 * time.Second, nil
	}
	return c.expiresAt.Sub(s.now()), nil
}

func (s *MemoryStore) SetAdd(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *MemoryStore) SetRemove(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (s *MemoryStore) SetContains(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	_, present := set[member]
	return present, nil
}

func (s *MemoryStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k, c := range s.counters {
		if s.expired(c) {
			continue
		}
		if matchGlob(pattern, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *MemoryStore) DeleteKeys(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, k := range keys {
		if c, ok := s.counters[k]; ok {
			if !s.expired(c) {
				removed++
			}
			delete(s.counters, k)
		}
	}
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// matchGlob matches s against a pattern where '*' matches any sequence of
// characters, mirroring the subset of Redis glob syntax the limiter uses.
// path-style matchers are unsuitable here because keys embed '/' from URL
// path patterns.
func matchGlob(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(s, parts[i])
		if idx < 0 {
			return false
		}
		s = s[idx+len(parts[i]):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}

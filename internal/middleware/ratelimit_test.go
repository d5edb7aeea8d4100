package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alphafinder/rategate/internal/ratelimit"
	"github.com/alphafinder/rategate/internal/store"
	"go.uber.org/zap"
)

type gateFixture struct {
	limiter   *ratelimit.Limiter
	whitelist *ratelimit.Whitelist
	store     *store.MemoryStore
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	mem := store.NewMemoryStore()
	clock := func() time.Time { return time.Unix(3601, 0) }
	mem.SetClock(clock)
	health := ratelimit.NewHealth(zap.NewNop(), nil)
	return &gateFixture{
		limiter:   ratelimit.NewLimiter(mem, health, zap.NewNop(), ratelimit.WithClock(clock)),
		whitelist: ratelimit.NewWhitelist(mem, health, zap.NewNop()),
		store:     mem,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGlobalRateLimitRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)
	_, err := GlobalRateLimit(f.limiter, f.whitelist, ratelimit.GateConfig{MaxRequests: 0, WindowSeconds: 60}, nil, nil, zap.NewNop())
	if err == nil {
		t.Error("GlobalRateLimit() error = nil, want invalid config error")
	}
}

func TestGlobalRateLimitHeadersAndThrottle(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)
	gate, err := GlobalRateLimit(f.limiter, f.whitelist,
		ratelimit.GateConfig{MaxRequests: 2, WindowSeconds: 60}, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("GlobalRateLimit() error = %v", err)
	}
	handler := gate(okHandler())

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/api/v1/ping", nil)
		r.RemoteAddr = "1.2.3.4:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	w := send()
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("X-RateLimit-Remaining = %q, want 1", got)
	}
	if got := w.Header().Get("X-RateLimit-Reset"); got != "59" {
		t.Errorf("X-RateLimit-Reset = %q, want 59", got)
	}

	send()
	w = send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "59" {
		t.Errorf("Retry-After = %q, want 59", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	var body ThrottledResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal 429 body: %v", err)
	}
	if body.Success {
		t.Error("body.Success = true, want false")
	}
	if body.Error != "rate_limit_exceeded" {
		t.Errorf("body.Error = %q, want rate_limit_exceeded", body.Error)
	}
	if body.Scope != "global" {
		t.Errorf("body.Scope = %q, want global", body.Scope)
	}
	if body.Path != "/api/v1/ping" {
		t.Errorf("body.Path = %q, want /api/v1/ping", body.Path)
	}
}

func TestGlobalRateLimitExcludedPaths(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)
	gate, err := GlobalRateLimit(f.limiter, f.whitelist,
		ratelimit.GateConfig{MaxRequests: 1, WindowSeconds: 60},
		[]string{"/healthz", "/admin"}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("GlobalRateLimit() error = %v", err)
	}
	handler := gate(okHandler())

	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("GET", "/healthz", nil)
		r.RemoteAddr = "1.2.3.4:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("excluded request %d status = %d, want 200", i+1, w.Code)
		}
		if w.Header().Get("X-RateLimit-Limit") != "" {
			t.Error("excluded request carries rate limit headers")
		}
	}

	r := httptest.NewRequest("GET", "/admin/rate-limiter/stats", nil)
	r.RemoteAddr = "1.2.3.4:1000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("admin prefix status = %d, want 200", w.Code)
	}
}

func TestGlobalRateLimitWhitelistBypass(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)
	if err := f.whitelist.Add(context.Background(), "1.2.3.4"); err != nil {
		t.Fatalf("whitelist Add() error = %v", err)
	}
	gate, err := GlobalRateLimit(f.limiter, f.whitelist,
		ratelimit.GateConfig{MaxRequests: 1, WindowSeconds: 60}, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("GlobalRateLimit() error = %v", err)
	}
	handler := gate(okHandler())

	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("GET", "/api/v1/ping", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("whitelisted request %d status = %d, want 200", i+1, w.Code)
		}
		if w.Header().Get("X-RateLimit-Limit") != "" {
			t.Error("whitelisted request carries rate limit headers")
		}
	}

	// Another client is still gated.
	r := httptest.NewRequest("GET", "/api/v1/ping", nil)
	r.Header.Set("X-Forwarded-For", "5.6.7.8")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q for non-whitelisted client, want 1", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestEndpointGateComposesInsideGlobal(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)
	global, err := GlobalRateLimit(f.limiter, f.whitelist,
		ratelimit.GateConfig{MaxRequests: 100, WindowSeconds: 60}, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("GlobalRateLimit() error = %v", err)
	}
	endpoint, err := EndpointRateLimit(f.limiter, f.whitelist,
		ratelimit.GateConfig{MaxRequests: 1, WindowSeconds: 10, PathPattern: "/api/v1/sensitive"},
		nil, zap.NewNop())
	if err != nil {
		t.Fatalf("EndpointRateLimit() error = %v", err)
	}
	handler := global(endpoint(okHandler()))

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/api/v1/sensitive", nil)
		r.RemoteAddr = "1.2.3.4:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	w := send()
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}
	// Headers reflect the inner, tighter gate.
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want inner gate's 1", got)
	}

	w = send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	var body ThrottledResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal 429 body: %v", err)
	}
	if body.Scope != "endpoint" {
		t.Errorf("body.Scope = %q, want endpoint", body.Scope)
	}
}

func TestEndpointRateLimitRequiresPath(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)
	_, err := EndpointRateLimit(f.limiter, f.whitelist,
		ratelimit.GateConfig{MaxRequests: 1, WindowSeconds: 10}, nil, zap.NewNop())
	if err == nil {
		t.Error("EndpointRateLimit() error = nil, want invalid config error")
	}
}

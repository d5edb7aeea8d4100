package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alphafinder/rategate/internal/ratelimit"
	"github.com/alphafinder/rategate/internal/request"
	"go.uber.org/zap"
)

// ThrottledResponse is the 429 body sent when a gate rejects a request.
type ThrottledResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Scope     string `json:"scope"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// GlobalRateLimit gates every inbound request except those whose path starts
// with one of excludePaths. Pipeline per request: resolve identity, whitelist
// bypass, evaluate under the global config, reject or annotate and continue.
// The whitelist is consulted live on every request so admin changes take
// effect immediately.
func GlobalRateLimit(
	limiter *ratelimit.Limiter,
	whitelist *ratelimit.Whitelist,
	cfg ratelimit.GateConfig,
	excludePaths []string,
	resolver request.IdentityResolver,
	log *zap.Logger,
) (func(http.Handler) http.Handler, error) {
	cfg.Scope = ratelimit.ScopeGlobal
	cfg.PathPattern = ""
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = request.IPResolver{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier := resolver.Resolve(r)
			if whitelist.Contains(r.Context(), identifier) {
				next.ServeHTTP(w, r)
				return
			}

			decision := limiter.Evaluate(r.Context(), identifier, cfg)
			setRateLimitHeaders(w, decision)
			if !decision.Allowed {
				respondThrottled(w, r, decision, cfg.Scope, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// EndpointRateLimit returns a per-route gate bound to one stricter
// (maxRequests, windowSeconds) pair. It composes inside the global gate, so
// it only runs for requests the global check already admitted, and its key
// space is disjoint from the global scope even for the same identifier.
func EndpointRateLimit(
	limiter *ratelimit.Limiter,
	whitelist *ratelimit.Whitelist,
	cfg ratelimit.GateConfig,
	resolver request.IdentityResolver,
	log *zap.Logger,
) (func(http.Handler) http.Handler, error) {
	cfg.Scope = ratelimit.ScopeEndpoint
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = request.IPResolver{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := resolver.Resolve(r)
			if whitelist.Contains(r.Context(), identifier) {
				next.ServeHTTP(w, r)
				return
			}

			decision := limiter.Evaluate(r.Context(), identifier, cfg)
			setRateLimitHeaders(w, decision)
			if !decision.Allowed {
				respondThrottled(w, r, decision, cfg.Scope, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// setRateLimitHeaders overwrites any values set by an outer gate, so the
// response always carries the tightest gate evaluated.
func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(d.ResetSeconds))
}

func respondThrottled(w http.ResponseWriter, r *http.Request, d ratelimit.Decision, scope ratelimit.Scope, log *zap.Logger) {
	w.Header().Set("Retry-After", strconv.Itoa(d.ResetSeconds))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	response := ThrottledResponse{
		Success:   false,
		Error:     "rate_limit_exceeded",
		Message:   "Rate limit exceeded. Please try again later.",
		Scope:     string(scope),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed_to_encode_throttled_response",
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
	}
}

package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/alphafinder/rategate/internal/audit"
	"github.com/alphafinder/rategate/internal/ratelimit"
	"github.com/alphafinder/rategate/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// APIKeyHeader carries the static admin credential.
const APIKeyHeader = "X-API-Key"

// AdminHandler exposes the rate limiter control surface: whitelist
// management, stats, and clearing of counter state. Every operation acts on
// the same shared store the hot path reads, so changes are visible to the
// next request immediately.
type AdminHandler struct {
	whitelist *ratelimit.Whitelist
	admin     *ratelimit.Admin
	auditor   audit.Recorder
	apiKey    string
	log       *zap.Logger
}

// AdminOption customizes an AdminHandler.
type AdminOption func(*AdminHandler)

// WithAuditor wires an audit trail for admin mutations.
func WithAuditor(rec audit.Recorder) AdminOption {
	return func(h *AdminHandler) { h.auditor = rec }
}

// NewAdminHandler creates the admin surface guarded by the given API key.
func NewAdminHandler(whitelist *ratelimit.Whitelist, admin *ratelimit.Admin, apiKey string, log *zap.Logger, opts ...AdminOption) *AdminHandler {
	h := &AdminHandler{
		whitelist: whitelist,
		admin:     admin,
		apiKey:    apiKey,
		log:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the admin endpoints on the given router, which is
// expected to be a subrouter under /admin/rate-limiter.
func (h *AdminHandler) RegisterRoutes(r *mux.Router) {
	r.Use(h.requireAPIKey)
	r.HandleFunc("/whitelist", h.ListWhitelist).Methods("GET")
	r.HandleFunc("/whitelist/{clientID}", h.AddToWhitelist).Methods("POST")
	r.HandleFunc("/whitelist/{clientID}", h.RemoveFromWhitelist).Methods("DELETE")
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/clear", h.Clear).Methods("DELETE")
	r.HandleFunc("/audit", h.RecentAudit).Methods("GET")
}

// requireAPIKey is the static credential check: 401 when the header is
// missing, 403 when it does not match. Compared in constant time.
func (h *AdminHandler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			respondJSONError(w, http.StatusUnauthorized, "unauthorized", "missing "+APIKeyHeader+" header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) != 1 {
			respondJSONError(w, http.StatusForbidden, "forbidden", "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListWhitelist handles GET /whitelist.
func (h *AdminHandler) ListWhitelist(w http.ResponseWriter, r *http.Request) {
	identifiers, err := h.whitelist.List(r.Context())
	if err != nil {
		h.log.Error("failed_to_list_whitelist", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "store_error", "failed to list whitelist")
		return
	}
	if identifiers == nil {
		identifiers = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"whitelist": identifiers})
}

// AddToWhitelist handles POST /whitelist/{clientID}. Idempotent.
func (h *AdminHandler) AddToWhitelist(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientID"]
	if err := h.whitelist.Add(r.Context(), clientID); err != nil {
		h.log.Error("failed_to_add_to_whitelist",
			zap.Error(err),
			zap.String("client_id", clientID),
		)
		respondJSONError(w, http.StatusInternalServerError, "store_error", "failed to add to whitelist")
		return
	}
	h.recordAudit(r, audit.ActionWhitelistAdd, clientID)
	respondJSON(w, http.StatusOK, map[string]string{"client_id": clientID, "status": "whitelisted"})
}

// RemoveFromWhitelist handles DELETE /whitelist/{clientID}. Removing an
// absent identifier succeeds: operator scripts should not have to care.
func (h *AdminHandler) RemoveFromWhitelist(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientID"]
	if err := h.whitelist.Remove(r.Context(), clientID); err != nil {
		h.log.Error("failed_to_remove_from_whitelist",
			zap.Error(err),
			zap.String("client_id", clientID),
		)
		respondJSONError(w, http.StatusInternalServerError, "store_error", "failed to remove from whitelist")
		return
	}
	h.recordAudit(r, audit.ActionWhitelistRemove, clientID)
	respondJSON(w, http.StatusOK, map[string]string{"client_id": clientID, "status": "removed"})
}

// GetStats handles GET /stats?scope=&client_id=&path=.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	scope, ok := parseScope(r.URL.Query().Get("scope"))
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "bad_request", "scope must be \"global\" or \"endpoint\"")
		return
	}
	report, err := h.admin.Stats(r.Context(), scope, r.URL.Query().Get("client_id"), r.URL.Query().Get("path"))
	if err != nil {
		h.log.Error("failed_to_get_stats", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "store_error", "failed to get rate limit stats")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Clear handles DELETE /clear?scope=&client_id=&path=. Requires at least one
// of client_id/path so an operator cannot wipe all counters by accident.
func (h *AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	scope, ok := parseScope(r.URL.Query().Get("scope"))
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "bad_request", "scope must be \"global\" or \"endpoint\"")
		return
	}
	clientID := r.URL.Query().Get("client_id")
	path := r.URL.Query().Get("path")

	deleted, err := h.admin.Clear(r.Context(), scope, clientID, path)
	if err != nil {
		if errors.Is(err, ratelimit.ErrFilterRequired) {
			respondJSONError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		h.log.Error("failed_to_clear_rate_limits", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "store_error", "failed to clear rate limits")
		return
	}
	h.recordAudit(r, audit.ActionClear, clientID+"|"+path)
	respondJSON(w, http.StatusOK, map[string]any{"keys_deleted": deleted})
}

// auditLister is the optional read side of the audit trail. The in-memory
// test recorder does not implement it; the Postgres repository does.
type auditLister interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// RecentAudit handles GET /audit?limit=. Returns 404 when no audit store is
// configured or the configured recorder cannot be read back.
func (h *AdminHandler) RecentAudit(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.auditor.(auditLister)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "not_found", "audit trail is not configured")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondJSONError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := lister.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("failed_to_list_audit_entries", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "store_error", "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *AdminHandler) recordAudit(r *http.Request, action, target string) {
	if h.auditor == nil {
		return
	}
	actor := request.ClientIP(r)
	if err := h.auditor.Record(r.Context(), actor, action, target); err != nil {
		h.log.Warn("failed_to_record_audit_entry",
			zap.Error(err),
			zap.String("action", action),
			zap.String("target", target),
		)
	}
}

func parseScope(raw string) (ratelimit.Scope, bool) {
	switch raw {
	case "":
		return "", true
	case string(ratelimit.ScopeGlobal):
		return ratelimit.ScopeGlobal, true
	case string(ratelimit.ScopeEndpoint):
		return ratelimit.ScopeEndpoint, true
	default:
		return "", false
	}
}

package middleware

import (
	"net/http"

	"github.com/alphafinder/rategate/internal/request"
	"github.com/google/uuid"
)

// RequestID attaches a UUID to the request context and echoes it in the
// X-Request-ID response header. An incoming X-Request-ID is trusted as-is so
// IDs survive proxy hops.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(request.WithRequestID(r.Context(), id))
		next.ServeHTTP(w, r)
	})
}

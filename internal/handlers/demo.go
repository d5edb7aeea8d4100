package handlers

import (
	"net/http"
)

// Ping is a trivial gated endpoint used to exercise the global gate in
// development and load tests.
func Ping(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// Sensitive stands in for an expensive operation guarded by a stricter
// endpoint gate.
func Sensitive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"result": "success"})
}

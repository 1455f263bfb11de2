package server

import (
	"encoding/json"
	"net/http"
)

// internalError logs the full error and returns a message safe to show to
// the client.
func (s *Server) internalError(operation string, err error) string {
	s.logger.Error(operation, "error", err)
	return operation + " failed"
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

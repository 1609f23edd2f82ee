package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "navstats",
	}

	if s.navDB != nil {
		if err := s.navDB.HealthCheck(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("Database health check failed")
			response["status"] = "unhealthy"
			response["database"] = err.Error()
			s.writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
		response["database"] = "ok"
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSnapshot uploads a snapshot of the NAV database
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	metadata, err := s.snapshot.CreateAndUpload(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create snapshot")
		http.Error(w, "Failed to create snapshot", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": metadata,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	s.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

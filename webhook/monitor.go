package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleRouterHealth(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(r.URL.Query().Get("tenantId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "tenantId query parameter is required")
		return
	}
	health, err := s.engine.RouterFleetHealth(r.Context(), tenantID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid router id")
		return
	}
	pppoe, hotspot, err := s.engine.ActiveSessions(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pppoe":   pppoe,
		"hotspot": hotspot,
	})
}

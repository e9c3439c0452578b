package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/servicex-id/netops/orchestrator"
)

type isolirPayload struct {
	// Action selects the sweep variant. Empty or "SUSPEND_OVERDUE" runs the
	// overdue sweep; "THROTTLE" applies a queue cap to one customer.
	Action     string    `json:"action,omitempty"`
	CustomerID uuid.UUID `json:"customerId,omitempty"`
	RouterID   uuid.UUID `json:"routerId,omitempty"`
	MaxLimit   string    `json:"maxLimit,omitempty"`
}

// handleIsolir triggers the suspension workflow, normally fired by the
// billing scheduler right after the due-date rollover.
func (s *Server) handleIsolir(w http.ResponseWriter, r *http.Request) {
	var payload isolirPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}

	if payload.Action == "THROTTLE" {
		if payload.CustomerID == uuid.Nil || payload.RouterID == uuid.Nil || payload.MaxLimit == "" {
			s.writeError(w, http.StatusBadRequest, "customerId, routerId and maxLimit are required for THROTTLE")
			return
		}
		synced, err := s.engine.Throttle(r.Context(), payload.CustomerID, payload.RouterID, payload.MaxLimit)
		if err != nil {
			s.writeError(w, statusFor(err), err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "synced": synced})
		return
	}

	res, err := s.engine.RunSuspension(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type qosPayload struct {
	PlanID       uuid.UUID `json:"planId"`
	NewBandwidth string    `json:"newBandwidth"`
}

func (s *Server) handleQosSync(w http.ResponseWriter, r *http.Request) {
	var payload qosPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.PlanID == uuid.Nil || payload.NewBandwidth == "" {
		s.writeError(w, http.StatusBadRequest, "planId and newBandwidth are required")
		return
	}

	res, err := s.engine.RunBandwidthSync(r.Context(), payload.PlanID, payload.NewBandwidth)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := s.engine.RunProvisioning(r.Context(), req)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

package webhook

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicex-id/netops/store"
)

type registerDevicePayload struct {
	SerialNumber string     `json:"serialNumber"`
	TenantID     uuid.UUID  `json:"tenantId"`
	MACAddress   string     `json:"macAddress"`
	Model        string     `json:"model"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	OltID        *uuid.UUID `json:"oltId,omitempty"`
	PonPort      string     `json:"ponPort,omitempty"`
	OnuID        int        `json:"onuId,omitempty"`
}

// handleRegisterDevice is the ACS-facing registration hook: a CPE informing
// for the first time creates its inventory row, a known serial refreshes it.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var payload registerDevicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.SerialNumber == "" {
		s.writeError(w, http.StatusBadRequest, "serialNumber is required")
		return
	}
	if payload.TenantID == uuid.Nil {
		s.writeError(w, http.StatusBadRequest, "tenantId is required")
		return
	}

	device, err := s.engine.Store().UpsertOnt(r.Context(), store.OntUpsert{
		SerialNumber: payload.SerialNumber,
		TenantID:     payload.TenantID,
		CustomerID:   payload.CustomerID,
		MACAddress:   payload.MACAddress,
		Model:        payload.Model,
		OltID:        payload.OltID,
		PonPort:      payload.PonPort,
		OnuID:        payload.OnuID,
	}, time.Now())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"device":  device,
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(r.URL.Query().Get("tenantId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "tenantId query parameter is required")
		return
	}
	devices, err := s.engine.Store().Onts(r.Context(), tenantID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, devices)
}

// handleOpticalRead performs a live CLI read of one ONT's optical levels.
func (s *Server) handleOpticalRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}
	reading, err := s.engine.ReadOpticalPower(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, reading)
}

package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/servicex-id/netops/orchestrator"
)

// handleBankMutation ingests a bank-mutation feed batch. The aggregator
// retries on non-2xx, so an unmatched mutation is still a success response;
// only a malformed body is rejected.
func (s *Server) handleBankMutation(w http.ResponseWriter, r *http.Request) {
	var mutations []orchestrator.BankMutation
	if err := json.NewDecoder(r.Body).Decode(&mutations); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	res, err := s.engine.RunReconciliation(r.Context(), mutations)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  res,
	})
}

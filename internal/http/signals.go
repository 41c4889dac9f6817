package httpapi

import (
	"net/http"

	"beacon-guardian/internal/services"
)

func (s *Server) ReceiveSignal(w http.ResponseWriter, r *http.Request) {
	var req services.SignalRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	result, err := s.Ingest.Receive(r.Context(), req)
	if err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	WriteOK(w, "Signal received", result)
}

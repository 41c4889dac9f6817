package httpapi

import (
	"net/http"

	"beacon-guardian/internal/services"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	services.HealthSample
}

func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sample := s.Health.Capture(r.Context())
	resp := healthResponse{Status: "ok", Database: "up", HealthSample: sample}
	status := http.StatusOK
	if !sample.StorageOK {
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}

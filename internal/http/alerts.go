package httpapi

import (
	"net/http"
	"strings"

	"beacon-guardian/internal/models"

	"github.com/go-chi/chi/v5"
)

type AlertListResponse struct {
	Items []models.Alert `json:"items"`
	Count int            `json:"count"`
}

type acknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledgedBy"`
}

func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	alerts, err := s.Alerts.List(r.Context(), query.Get("tenantId"), query.Get("status"))
	if err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	WriteOK(w, "", AlertListResponse{Items: alerts, Count: len(alerts)})
}

func (s *Server) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	var req acknowledgeRequest
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := decodeJSON(r, &req); err != nil {
			WriteServiceError(w, s.Logger, err)
			return
		}
	}
	by := strings.TrimSpace(req.AcknowledgedBy)
	if by == "" {
		by = CurrentUserID(r)
	}
	alert, err := s.Alerts.Acknowledge(r.Context(), chi.URLParam(r, "alertId"), by)
	if err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	WriteOK(w, "Alert acknowledged", alert)
}

func (s *Server) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.Alerts.Resolve(r.Context(), chi.URLParam(r, "alertId"))
	if err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	WriteOK(w, "Alert resolved", alert)
}

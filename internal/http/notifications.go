package httpapi

import (
	"net/http"
)

type testNotificationRequest struct {
	TenantID  string `json:"tenantId"`
	ElderID   string `json:"elderId"`
	AlertType string `json:"alertType"`
}

func (s *Server) TestNotification(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	if err := s.Dispatcher.SendTest(r.Context(), req.TenantID, req.ElderID, req.AlertType); err != nil {
		WriteServiceError(w, s.Logger, err)
		return
	}
	WriteOK(w, "Test notification sent", req)
}

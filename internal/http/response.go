package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"beacon-guardian/internal/services"

	"go.uber.org/zap"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteOK(w http.ResponseWriter, message string, data interface{}) {
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, APIResponse{Success: false, Error: code, Message: message})
}

// WriteServiceError maps a ServiceError to its status; anything else is logged and hidden behind a 500.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var serviceErr services.ServiceError
	if errors.As(err, &serviceErr) {
		WriteError(w, serviceErr.Status, serviceErr.Code, serviceErr.Message)
		return
	}
	logger.Error("Request failed", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return services.ErrBadRequest("INVALID_PAYLOAD", "Request body must be a JSON object")
	}
	return nil
}

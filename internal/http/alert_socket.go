package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AlertSocket streams newly raised alerts of one tenant to an admin client.
func (s *Server) AlertSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tokenStr := query.Get("token")
	if tokenStr == "" {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed")
		return
	}
	_, roles, ok := verifyAccessToken(s.Tokens, tokenStr)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed")
		return
	}
	if !hasRole(roles, "ADMIN") {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "Not allowed")
		return
	}
	tenantID := strings.TrimSpace(query.Get("tenantId"))
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "MISSING_TENANT_ID", "tenantId is required")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("Alert socket upgrade failed", zap.Error(err))
		return
	}
	s.Hub.Add(conn, tenantID)
	s.Logger.Info("Alert subscriber connected", zap.String("tenant_id", tenantID), zap.Int("subscribers", s.Hub.Subscribers(tenantID)))
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

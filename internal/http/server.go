package httpapi

import (
	"net/http"
	"strings"

	"beacon-guardian/internal/config"
	"beacon-guardian/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Config     config.Config
	Ingest     *services.IngestService
	Dispatcher *services.Dispatcher
	Alerts     *services.AlertService
	Hub        *services.AlertHub
	Health     services.HealthProbe
	Tokens     services.TokenService
	Logger     *zap.Logger
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.Logger))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		// Gateways and the console test button call these without credentials.
		api.HandleFunc("/signals", s.postOnly(s.ReceiveSignal))
		api.HandleFunc("/notifications/test", s.postOnly(s.TestNotification))
		api.Get("/health", s.HealthCheck)

		api.Route("/alerts", func(alerts chi.Router) {
			alerts.Use(WithAuth(s.Tokens))
			alerts.Use(RequireRole("ADMIN"))
			alerts.Get("/", s.ListAlerts)
			alerts.Put("/{alertId}/acknowledge", s.AcknowledgeAlert)
			alerts.Put("/{alertId}/resolve", s.ResolveAlert)
		})
	})

	r.Get("/ws/alerts", s.AlertSocket)
	return r
}

// postOnly answers preflight with 204 and every method other than POST with 405.
func (s *Server) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Access-Control-Allow-Origin") == "" && len(s.Config.CorsOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		switch strings.ToUpper(r.Method) {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next(w, r)
		default:
			w.Header().Set("Allow", "POST, OPTIONS")
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		}
	}
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/finrisk/internal/api/handlers"
	"github.com/wonny/finrisk/pkg/logger"
	"github.com/wonny/finrisk/pkg/redis"
)

// Handlers groups every endpoint handler
type Handlers struct {
	Companies *handlers.CompanyHandler
	Analyses  *handlers.AnalysisHandler
	Alerts    *handlers.AlertHandler
	Dashboard *handlers.DashboardHandler
	Ingest    *handlers.IngestHandler
	AlertFeed http.Handler // GET /ws/alerts
}

// RouterOptions configures cross-cutting behaviour
type RouterOptions struct {
	Limiter         *redis.RateLimiter // recalculation limiter; nil disables limiting
	RecalcPerMinute int
	Health          func(ctx context.Context) error // dependency check; nil = always ok
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes are registered only in this function
func NewRouter(h Handlers, opts RouterOptions, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(opts.Health)).Methods("GET")

	// Realtime alert feed
	if h.AlertFeed != nil {
		r.Handle("/ws/alerts", h.AlertFeed).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Companies
	api.HandleFunc("/companies", h.Companies.List).Methods("GET")
	api.HandleFunc("/companies", h.Companies.Create).Methods("POST")
	api.HandleFunc("/companies/{id:[0-9]+}", h.Companies.Get).Methods("GET")
	api.HandleFunc("/companies/{id:[0-9]+}", h.Companies.Update).Methods("PUT")
	api.HandleFunc("/companies/{id:[0-9]+}", h.Companies.Delete).Methods("DELETE")
	api.HandleFunc("/companies/{id:[0-9]+}/metrics", h.Companies.ListMetrics).Methods("GET")
	api.HandleFunc("/companies/{id:[0-9]+}/metrics", h.Companies.AddMetrics).Methods("POST")
	api.HandleFunc("/companies/{id:[0-9]+}/report.pdf", h.Companies.Report).Methods("GET")
	api.HandleFunc("/companies/{id:[0-9]+}/quick-analysis", h.Companies.QuickAnalysis).Methods("POST")

	var recalc http.Handler = http.HandlerFunc(h.Companies.Recalculate)
	if opts.Limiter != nil && opts.RecalcPerMinute > 0 {
		recalc = rateLimitMiddleware(opts.Limiter, opts.RecalcPerMinute, log)(recalc)
	}
	api.Handle("/companies/{id:[0-9]+}/recalculate", recalc).Methods("POST")

	// Analyses
	api.HandleFunc("/analyses", h.Analyses.List).Methods("GET")
	api.HandleFunc("/analyses", h.Analyses.Create).Methods("POST")
	api.HandleFunc("/analyses/{id:[0-9]+}", h.Analyses.Get).Methods("GET")
	api.HandleFunc("/analyses/{id:[0-9]+}", h.Analyses.Update).Methods("PUT")

	// Alerts
	api.HandleFunc("/alerts", h.Alerts.List).Methods("GET")
	api.HandleFunc("/alerts/stats", h.Alerts.Stats).Methods("GET")
	api.HandleFunc("/alerts/{id:[0-9]+}/read", h.Alerts.MarkRead).Methods("PUT")
	api.HandleFunc("/alerts/{id:[0-9]+}/resolve", h.Alerts.Resolve).Methods("PUT")
	api.HandleFunc("/alerts/generate/{company_id:[0-9]+}", h.Alerts.Generate).Methods("POST")

	// Dashboard
	api.HandleFunc("/dashboard/stats", h.Dashboard.Stats).Methods("GET")

	// Statement ingestion
	api.HandleFunc("/ingest/validate", h.Ingest.Validate).Methods("POST")
	api.HandleFunc("/ingest/companies", h.Ingest.CreateCompany).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
					"status":  "degraded",
					"service": "finrisk-api",
					"error":   err.Error(),
				})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "finrisk-api",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

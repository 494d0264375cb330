package handlers

import (
	"net/http"

	"github.com/wonny/finrisk/internal/dashboard"
	"github.com/wonny/finrisk/internal/ingest"
	"github.com/wonny/finrisk/pkg/logger"
)

// DashboardHandler serves the dashboard aggregate
type DashboardHandler struct {
	dashboard *dashboard.Service
	logger    *logger.Logger
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(svc *dashboard.Service, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: svc, logger: log}
}

// Stats returns the dashboard aggregate
// GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Dashboard")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// IngestHandler handles extracted statement uploads
// Extractor output may carry extra keys, so bodies are decoded leniently.
type IngestHandler struct {
	importer *ingest.Importer
	onChange ChangeHook
	logger   *logger.Logger
}

// NewIngestHandler creates an ingest handler
func NewIngestHandler(importer *ingest.Importer, onChange ChangeHook, log *logger.Logger) *IngestHandler {
	return &IngestHandler{importer: importer, onChange: onChange, logger: log}
}

// Validate checks an extracted statement without storing it
// POST /api/ingest/validate
func (h *IngestHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var s ingest.Statement
	if err := decodeLenient(r, &s); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.importer.Check(&s))
}

// CreateCompany creates a company from an extracted statement
// POST /api/ingest/companies
func (h *IngestHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req ingest.ImportRequest
	if err := decodeLenient(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.importer.Import(r.Context(), &req, actingUser(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	h.onChange.fire(r.Context())
	respondJSON(w, http.StatusCreated, res)
}

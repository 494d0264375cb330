package handlers

import (
	"net/http"

	"github.com/wonny/finrisk/internal/analysis"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// AnalysisHandler handles persisted analysis endpoints
type AnalysisHandler struct {
	analysis *analysis.Service
	logger   *logger.Logger
}

// NewAnalysisHandler creates an analysis handler
func NewAnalysisHandler(svc *analysis.Service, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysis: svc, logger: log}
}

// List returns stored analyses
// GET /api/analyses?company_id&analysis_type&skip&limit
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := page(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	companyID, err := queryInt64(r, "company_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.analysis.List(r.Context(), contracts.AnalysisFilter{
		CompanyID:    companyID,
		AnalysisType: contracts.AnalysisType(r.URL.Query().Get("analysis_type")),
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "Analysis")
		return
	}
	if list == nil {
		list = []*contracts.RiskAnalysis{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Create runs and stores an analysis
// POST /api/analyses
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in analysis.RunInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.analysis.Run(r.Context(), in, actingUser(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// Update amends notes, mitigation actions, status or confidence of an analysis
// PUT /api/analyses/{id}
func (h *AnalysisHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in analysis.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.analysis.Update(r.Context(), id, in, actingUser(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Risk analysis")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// Get returns one stored analysis
// GET /api/analyses/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.analysis.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Risk analysis")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wonny/finrisk/internal/analysis"
	"github.com/wonny/finrisk/internal/companies"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// ReportRenderer renders the PDF risk report of a company
type ReportRenderer interface {
	CompanyReport(ctx context.Context, companyID int64) ([]byte, error)
}

// CompanyHandler handles company endpoints
// ⭐ SSOT: company API handlers live only in this struct
type CompanyHandler struct {
	companies *companies.Service
	analysis  *analysis.Service
	reports   ReportRenderer
	onChange  ChangeHook
	logger    *logger.Logger
}

// NewCompanyHandler creates a company handler
func NewCompanyHandler(
	companySvc *companies.Service,
	analysisSvc *analysis.Service,
	reports ReportRenderer,
	onChange ChangeHook,
	log *logger.Logger,
) *CompanyHandler {
	return &CompanyHandler{
		companies: companySvc,
		analysis:  analysisSvc,
		reports:   reports,
		onChange:  onChange,
		logger:    log,
	}
}

func (h *CompanyHandler) changed(ctx context.Context) {
	h.onChange.fire(ctx)
}

// List returns companies
// GET /api/companies?search&risk_level&sector&status&skip&limit
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := page(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	filter := contracts.CompanyFilter{
		Search:    q.Get("search"),
		RiskLevel: contracts.RiskLevel(q.Get("risk_level")),
		Sector:    q.Get("sector"),
		Status:    contracts.CompanyStatus(q.Get("status")),
		Offset:    offset,
		Limit:     limit,
	}
	if filter.RiskLevel != "" && !filter.RiskLevel.Valid() {
		respondError(w, http.StatusBadRequest, "invalid risk_level")
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	list, err := h.companies.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	if list == nil {
		list = []*contracts.Company{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Create stores a new company
// POST /api/companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in companies.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.companies.Create(r.Context(), in, actingUser(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	h.changed(r.Context())
	respondJSON(w, http.StatusCreated, c)
}

// Get returns a company with its derived figures and latest metrics
// GET /api/companies/{id}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.companies.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Update applies a partial update
// PUT /api/companies/{id}
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in companies.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.companies.Update(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	h.changed(r.Context())
	respondJSON(w, http.StatusOK, c)
}

// Delete deactivates a company
// DELETE /api/companies/{id}
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.companies.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	h.changed(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"message": "Company deleted successfully"})
}

// Recalculate rescores a company from its latest metrics
// POST /api/companies/{id}/recalculate
func (h *CompanyHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.companies.Recalculate(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	h.changed(r.Context())
	respondJSON(w, http.StatusOK, res)
}

// ListMetrics returns a company's financial statement snapshots
// GET /api/companies/{id}/metrics
func (h *CompanyHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.companies.ListMetrics(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	if list == nil {
		list = []*contracts.FinancialMetric{}
	}
	respondJSON(w, http.StatusOK, list)
}

// AddMetrics stores a financial statement snapshot
// POST /api/companies/{id}/metrics
func (h *CompanyHandler) AddMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in companies.MetricInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.companies.AddMetrics(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// QuickAnalysis runs an unpersisted analysis
// POST /api/companies/{id}/quick-analysis?type=credit|pd|stress_test
func (h *CompanyHandler) QuickAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := contracts.AnalysisType(r.URL.Query().Get("type"))
	if t == "" {
		t = contracts.AnalysisCredit
	}

	res, err := h.analysis.Quick(r.Context(), id, t)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Report renders the PDF risk report
// GET /api/companies/{id}/report.pdf
func (h *CompanyHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pdf, err := h.reports.CompanyReport(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\"risk-report-"+strconv.FormatInt(id, 10)+".pdf\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/wonny/finrisk/internal/alerts"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// AlertHandler handles alert endpoints
type AlertHandler struct {
	alerts    *alerts.Service
	repo      contracts.AlertRepository
	companies contracts.CompanyRepository
	onChange  ChangeHook
	logger    *logger.Logger
}

// NewAlertHandler creates an alert handler
func NewAlertHandler(
	svc *alerts.Service,
	repo contracts.AlertRepository,
	companies contracts.CompanyRepository,
	onChange ChangeHook,
	log *logger.Logger,
) *AlertHandler {
	return &AlertHandler{alerts: svc, repo: repo, companies: companies, onChange: onChange, logger: log}
}

// List returns alerts newest first
// GET /api/alerts?unread_only&severity&alert_type&company_id&skip&limit
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
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

	q := r.URL.Query()
	filter := contracts.AlertFilter{
		Severity:  contracts.Severity(q.Get("severity")),
		AlertType: contracts.AlertType(q.Get("alert_type")),
		CompanyID: companyID,
		Offset:    offset,
		Limit:     limit,
	}
	if raw := q.Get("unread_only"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid unread_only")
			return
		}
		filter.UnreadOnly = unread
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		respondError(w, http.StatusBadRequest, "invalid severity")
		return
	}
	if filter.AlertType != "" && !filter.AlertType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid alert_type")
		return
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Alert")
		return
	}
	if list == nil {
		list = []*contracts.AlertWithCompany{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Stats returns alert counters
// GET /api/alerts/stats
func (h *AlertHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Alert")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// MarkRead flags an alert as read
// PUT /api/alerts/{id}/read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.alerts.MarkAsRead(r.Context(), id, actingUser(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Alert")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	}
	h.onChange.fire(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"message": "Alert marked as read"})
}

// Resolve closes an alert
// PUT /api/alerts/{id}/resolve
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.alerts.Resolve(r.Context(), id, actingUser(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Alert")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	}
	h.onChange.fire(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"message": "Alert resolved successfully"})
}

// Generate evaluates the alert rules for one company
// POST /api/alerts/generate/{company_id}
func (h *AlertHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "company_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.companies.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Company")
		return
	}

	created, err := h.alerts.CheckAndGenerate(r.Context(), c)
	if err != nil {
		// Alerts stored before the failure are still reported
		h.logger.WithError(err).WithField("company_id", id).Error("Alert generation partially failed")
		if len(created) == 0 {
			respondError(w, http.StatusInternalServerError, "Failed to generate alerts")
			return
		}
	}

	if len(created) > 0 {
		h.onChange.fire(r.Context())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     fmt.Sprintf("Generated %d new alerts", len(created)),
		"alert_count": len(created),
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/finrisk/internal/analysis"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// UserIDHeader carries the acting user id (no authentication)
const UserIDHeader = "X-User-ID"

// Paging bounds of list endpoints
const (
	defaultLimit = 100
	maxLimit     = 1000
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// ChangeHook runs after a successful write (dashboard cache invalidation); nil is a no-op
type ChangeHook func(ctx context.Context)

func (f ChangeHook) fire(ctx context.Context) {
	if f != nil {
		f(ctx)
	}
}

// respondServiceError maps service errors to status codes
// Unexpected errors are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, what string) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, contracts.ErrValidation), errors.Is(err, analysis.ErrInvalidAnalysisType):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contracts.ErrDuplicateTaxID):
		respondError(w, http.StatusConflict, "Company with this tax ID already exists")
	default:
		log.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeLenient reads a JSON body, ignoring unknown fields
func decodeLenient(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID parses a positive integer route variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// queryInt64 parses an optional positive integer query parameter (0 when absent)
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// page parses skip/limit (skip ≥ 0, 1 ≤ limit ≤ 1000, default 100)
func page(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	limit = defaultLimit

	if raw := q.Get("skip"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid skip: %q", raw)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, fmt.Errorf("invalid limit: %q (1-%d)", raw, maxLimit)
		}
	}
	return offset, limit, nil
}

// actingUser reads X-User-ID; nil when absent or malformed
func actingUser(r *http.Request) *int64 {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

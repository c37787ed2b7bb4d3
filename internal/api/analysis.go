package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/telecuidado/backend/internal/cache"
	"github.com/telecuidado/backend/internal/storage"
	"github.com/telecuidado/backend/internal/types"
)

// AnalysisHandler serves the latest analysis and the persisted run history
type AnalysisHandler struct {
	cache  *cache.SnapshotCache
	store  storage.Store
	logger zerolog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(c *cache.SnapshotCache, store storage.Store, logger zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		cache:  c,
		store:  store,
		logger: logger.With().Str("component", "analysis_api").Logger(),
	}
}

func (h *AnalysisHandler) latest(w http.ResponseWriter) *types.Analysis {
	a := h.cache.Analysis()
	if a == nil {
		http.Error(w, "no analysis available yet, import call data first", http.StatusNotFound)
		return nil
	}
	return a
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// HandleGetAnalysis handles GET /api/analysis
func (h *AnalysisHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a := h.latest(w)
	if a == nil {
		return
	}
	writeJSON(w, a)
}

// HandleGetOperators handles GET /api/analysis/operators
func (h *AnalysisHandler) HandleGetOperators(w http.ResponseWriter, r *http.Request) {
	a := h.latest(w)
	if a == nil {
		return
	}
	writeJSON(w, map[string]interface{}{
		"generatedAt": a.GeneratedAt,
		"operators":   a.Operators,
		"unassigned":  a.Unassigned,
	})
}

// HandleGetGlobal handles GET /api/analysis/global
func (h *AnalysisHandler) HandleGetGlobal(w http.ResponseWriter, r *http.Request) {
	a := h.latest(w)
	if a == nil {
		return
	}
	writeJSON(w, map[string]interface{}{
		"generatedAt": a.GeneratedAt,
		"global":      a.Global,
		"diagnostics": a.Diagnostics,
	})
}

// HandleGetFollowUps handles GET /api/followups with an optional ?status=
// filter. The full list is already sorted most urgent first.
func (h *AnalysisHandler) HandleGetFollowUps(w http.ResponseWriter, r *http.Request) {
	a := h.latest(w)
	if a == nil {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		writeJSON(w, a.FollowUps)
		return
	}
	if !types.ValidStatus(status) {
		http.Error(w, "invalid status, expected al-dia, pendiente or urgente", http.StatusBadRequest)
		return
	}

	filtered := make([]types.BeneficiaryFollowUp, 0)
	for _, f := range a.FollowUps {
		if f.Status == types.FollowUpStatus(status) {
			filtered = append(filtered, f)
		}
	}
	writeJSON(w, filtered)
}

// HandleGetRuns handles GET /api/runs with an optional ?date=YYYY-MM-DD,
// defaulting to today.
func (h *AnalysisHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	dateKey := r.URL.Query().Get("date")
	if dateKey == "" {
		dateKey = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	runs, err := h.store.GetAnalysisRuns(dateKey)
	if err != nil {
		h.logger.Error().Err(err).Str("date", dateKey).Msg("failed to load analysis runs")
		http.Error(w, "failed to load analysis runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []types.AnalysisRun{}
	}
	writeJSON(w, runs)
}

// HandleGetImports handles GET /api/imports with an optional ?date=YYYY-MM-DD
func (h *AnalysisHandler) HandleGetImports(w http.ResponseWriter, r *http.Request) {
	dateKey := r.URL.Query().Get("date")
	if dateKey == "" {
		dateKey = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	batches, err := h.store.GetImportBatches(dateKey)
	if err != nil {
		h.logger.Error().Err(err).Str("date", dateKey).Msg("failed to load import batches")
		http.Error(w, "failed to load import batches", http.StatusInternalServerError)
		return
	}
	if batches == nil {
		batches = []types.ImportBatch{}
	}
	writeJSON(w, batches)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/telecuidado/backend/internal/cache"
	"github.com/telecuidado/backend/internal/storage"
)

// AdminHandler handles destructive maintenance operations
type AdminHandler struct {
	cache  *cache.SnapshotCache
	store  storage.Store
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(c *cache.SnapshotCache, store storage.Store, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		cache:  c,
		store:  store,
		logger: logger.With().Str("component", "admin").Logger(),
	}
}

// HandleReset handles POST /internal/admin/reset. It drops the in-memory
// datasets and truncates the persisted import and run history, so the next
// campaign's imports start clean.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	calls, assignments := h.cache.Clear()

	if err := h.store.TruncateAll(); err != nil {
		h.logger.Error().Err(err).Msg("failed to truncate stored history")
		http.Error(w, fmt.Sprintf(`{"error":"failed to truncate: %s"}`, err), http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Int("calls", calls).
		Int("assignments", assignments).
		Msg("datasets reset")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":            "datasets reset",
		"callsCleared":       calls,
		"assignmentsCleared": assignments,
	})
}

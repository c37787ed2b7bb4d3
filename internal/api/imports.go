package api

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/telecuidado/backend/internal/analysis"
	"github.com/telecuidado/backend/internal/cache"
	"github.com/telecuidado/backend/internal/importer"
	"github.com/telecuidado/backend/internal/metrics"
	"github.com/telecuidado/backend/internal/storage"
	"github.com/telecuidado/backend/internal/types"
)

// ImportHandler handles spreadsheet uploads and assignment registration
type ImportHandler struct {
	cache     *cache.SnapshotCache
	store     storage.Store
	analysis  *analysis.Service
	maxUpload int64
	logger    zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(c *cache.SnapshotCache, store storage.Store, svc *analysis.Service, maxUpload int64, logger zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		cache:     c,
		store:     store,
		analysis:  svc,
		maxUpload: maxUpload,
		logger:    logger.With().Str("component", "imports").Logger(),
	}
}

type importResponse struct {
	ImportID string `json:"importId"`
	Rows     int    `json:"rows"`
	Skipped  int    `json:"skipped"`
}

// HandleImportCalls handles POST /internal/imports/calls. The workbook comes
// as multipart field "file"; ?mode=append extends the dataset instead of
// replacing it.
func (h *ImportHandler) HandleImportCalls(w http.ResponseWriter, r *http.Request) {
	file, fileName, ok := h.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	records, batch, err := importer.ReadCalls(file)
	if err != nil {
		h.logger.Warn().Err(err).Str("file", fileName).Msg("call import rejected")
		metrics.Get().RecordImportError()
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if r.URL.Query().Get("mode") == "append" {
		h.cache.AppendCalls(records)
	} else {
		h.cache.ReplaceCalls(records)
	}

	h.finishImport(w, batch, fileName)
}

// HandleImportAssignments handles POST /internal/imports/assignments
func (h *ImportHandler) HandleImportAssignments(w http.ResponseWriter, r *http.Request) {
	file, fileName, ok := h.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	assignments, batch, err := importer.ReadAssignments(file)
	if err != nil {
		h.logger.Warn().Err(err).Str("file", fileName).Msg("assignment import rejected")
		metrics.Get().RecordImportError()
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.cache.ReplaceAssignments(assignments)
	h.finishImport(w, batch, fileName)
}

// HandleAssignments handles POST /internal/assignments with a JSON body, for
// callers that already have structured data instead of a workbook.
func (h *ImportHandler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	var assignments []types.Assignment
	if err := json.NewDecoder(r.Body).Decode(&assignments); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	h.cache.ReplaceAssignments(assignments)
	h.analysis.Trigger()

	h.logger.Info().Int("assignments", len(assignments)).Msg("assignments registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int{"registered": len(assignments)})
}

func (h *ImportHandler) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return nil, "", false
	}
	return file, header.Filename, true
}

func (h *ImportHandler) finishImport(w http.ResponseWriter, batch importer.Batch, fileName string) {
	metrics.Get().RecordImport(batch.Rows, batch.Skipped)

	record := types.ImportBatch{
		DateKey:    batch.Imported.Format("2006-01-02"),
		ImportID:   batch.ID,
		Kind:       batch.Kind,
		FileName:   fileName,
		Rows:       batch.Rows,
		Skipped:    batch.Skipped,
		ImportedAt: batch.Imported.Format(time.RFC3339),
	}
	if err := h.store.SaveImportBatch(record); err != nil {
		h.logger.Error().Err(err).Msg("failed to persist import batch")
	}

	h.analysis.Trigger()

	h.logger.Info().
		Str("kind", batch.Kind).
		Str("file", fileName).
		Int("rows", batch.Rows).
		Int("skipped", batch.Skipped).
		Msg("import completed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(importResponse{ImportID: batch.ID, Rows: batch.Rows, Skipped: batch.Skipped})
}

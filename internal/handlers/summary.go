package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/orgpulse/apiserver/internal/services"
)

// SummaryHandler serves the aggregated dashboard views and the archived
// exports of them.
type SummaryHandler struct {
	summaries *services.SummaryService
	exports   *services.ExportService
}

// NewSummaryHandler constructs a SummaryHandler. exports may be nil when
// no object storage backend is configured; the export routes then report
// the feature unavailable.
func NewSummaryHandler(summaries *services.SummaryService, exports *services.ExportService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, exports: exports}
}

// SummaryRouter registers the summary routes. Reading the live summary
// requires authentication; export management requires admin.
func SummaryRouter(r chi.Router, summaries *services.SummaryService, exports *services.ExportService, auth *AuthMiddleware) {
	handler := NewSummaryHandler(summaries, exports)

	r.With(auth.RequireAuth).Get("/", handler.Get)
	r.With(auth.RequireAuth, auth.RequireAdmin).Post("/export", handler.Export)
	r.With(auth.RequireAuth, auth.RequireAdmin).Get("/exports/{exportName}", handler.GetExport)
}

// Get computes the four aggregated views over all records.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaries.Summarize(r.Context())
	if err != nil {
		log.Printf("handlers: summary failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Export archives the current summary to object storage.
func (h *SummaryHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		writeError(w, http.StatusServiceUnavailable, "summary export storage is not configured")
		return
	}

	name, err := h.exports.Export(r.Context())
	if err != nil {
		log.Printf("handlers: summary export failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to export summary")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// GetExport streams a previously archived summary.
func (h *SummaryHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		writeError(w, http.StatusServiceUnavailable, "summary export storage is not configured")
		return
	}

	name := chi.URLParam(r, "exportName")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "invalid export name")
		return
	}

	object, err := h.exports.Open(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "application/json")
	if _, err := io.Copy(w, object); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("handlers: export stream failed: %v", err)
	}
}

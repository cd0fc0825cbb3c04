package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
)

// RecordHandler provides HTTP handlers for performance records.
type RecordHandler struct {
	service *services.RecordService
}

func NewRecordHandler(service *services.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// RecordRouter registers record routes: reads require authentication,
// writes require admin.
func RecordRouter(r chi.Router, service *services.RecordService, auth *AuthMiddleware) {
	handler := NewRecordHandler(service)

	r.With(auth.RequireAuth).Get("/", handler.List)
	r.With(auth.RequireAuth, auth.RequireAdmin).Post("/", handler.Create)
	r.Route("/{recordID}", func(r chi.Router) {
		r.With(auth.RequireAuth).Get("/", handler.Get)
		r.With(auth.RequireAuth, auth.RequireAdmin).Put("/", handler.Update)
		r.With(auth.RequireAuth, auth.RequireAdmin).Delete("/", handler.Delete)
	})
}

// RecordUpsertRequest is the create/update payload. Nil fields are left
// untouched on update.
type RecordUpsertRequest struct {
	Metric     *int       `json:"metric"`
	Team       *int       `json:"team"`
	Value      *float64   `json:"value"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// List returns records, optionally narrowed by ?team= and ?metric=.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeResourceError(w, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeResourceError(w, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RecordUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var record types.Record
	applyRecordUpdate(&record, req)

	created, err := h.service.Create(r.Context(), record)
	if err != nil {
		writeResourceError(w, err, "record")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RecordUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeResourceError(w, err, "record")
		return
	}
	applyRecordUpdate(&record, req)

	updated, err := h.service.Update(r.Context(), record)
	if err != nil {
		writeResourceError(w, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeResourceError(w, err, "record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func applyRecordUpdate(record *types.Record, req RecordUpsertRequest) {
	if req.Metric != nil {
		record.MetricID = *req.Metric
	}
	if req.Team != nil {
		record.TeamID = *req.Team
	}
	if req.Value != nil {
		record.Value = *req.Value
	}
	if req.RecordedAt != nil {
		record.RecordedAt = req.RecordedAt
	}
}

func recordFilterFromQuery(r *http.Request) (store.RecordFilter, error) {
	var filter store.RecordFilter
	if raw := r.URL.Query().Get("team"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return store.RecordFilter{}, errors.New("invalid team filter")
		}
		filter.TeamID = id
	}
	if raw := r.URL.Query().Get("metric"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return store.RecordFilter{}, errors.New("invalid metric filter")
		}
		filter.MetricID = id
	}
	return filter, nil
}

func parseRecordID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "recordID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid record id")
	}
	return id, nil
}

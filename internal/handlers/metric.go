package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/types"
)

// MetricHandler provides HTTP handlers for metrics.
type MetricHandler struct {
	service *services.MetricService
}

func NewMetricHandler(service *services.MetricService) *MetricHandler {
	return &MetricHandler{service: service}
}

// MetricRouter registers metric routes: reads require authentication,
// writes require admin.
func MetricRouter(r chi.Router, service *services.MetricService, auth *AuthMiddleware) {
	handler := NewMetricHandler(service)

	r.With(auth.RequireAuth).Get("/", handler.List)
	r.With(auth.RequireAuth, auth.RequireAdmin).Post("/", handler.Create)
	r.Route("/{metricID}", func(r chi.Router) {
		r.With(auth.RequireAuth).Get("/", handler.Get)
		r.With(auth.RequireAuth, auth.RequireAdmin).Put("/", handler.Update)
		r.With(auth.RequireAuth, auth.RequireAdmin).Delete("/", handler.Delete)
	})
}

// MetricUpsertRequest is the create/update payload. Nil fields are left
// untouched on update.
type MetricUpsertRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Target      *float64 `json:"target"`
}

func (h *MetricHandler) List(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.List(r.Context())
	if err != nil {
		writeResourceError(w, err, "metric")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (h *MetricHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseMetricID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metric, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeResourceError(w, err, "metric")
		return
	}
	writeJSON(w, http.StatusOK, metric)
}

func (h *MetricHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MetricUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var metric types.Metric
	applyMetricUpdate(&metric, req)

	created, err := h.service.Create(r.Context(), metric)
	if err != nil {
		writeResourceError(w, err, "metric")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *MetricHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseMetricID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MetricUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	metric, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeResourceError(w, err, "metric")
		return
	}
	applyMetricUpdate(&metric, req)

	updated, err := h.service.Update(r.Context(), metric)
	if err != nil {
		writeResourceError(w, err, "metric")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *MetricHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseMetricID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeResourceError(w, err, "metric")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func applyMetricUpdate(metric *types.Metric, req MetricUpsertRequest) {
	if req.Name != nil {
		metric.Name = *req.Name
	}
	if req.Description != nil {
		metric.Description = *req.Description
	}
	if req.Target != nil {
		metric.Target = *req.Target
	}
}

func parseMetricID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "metricID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid metric id")
	}
	return id, nil
}

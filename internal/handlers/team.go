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

// TeamHandler provides HTTP handlers for teams.
type TeamHandler struct {
	service *services.TeamService
}

func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

// TeamRouter registers team routes: reads require authentication,
// writes require admin.
func TeamRouter(r chi.Router, service *services.TeamService, auth *AuthMiddleware) {
	handler := NewTeamHandler(service)

	r.With(auth.RequireAuth).Get("/", handler.List)
	r.With(auth.RequireAuth, auth.RequireAdmin).Post("/", handler.Create)
	r.Route("/{teamID}", func(r chi.Router) {
		r.With(auth.RequireAuth).Get("/", handler.Get)
		r.With(auth.RequireAuth, auth.RequireAdmin).Put("/", handler.Update)
		r.With(auth.RequireAuth, auth.RequireAdmin).Delete("/", handler.Delete)
	})
}

// TeamUpsertRequest is the create/update payload. Nil fields are left
// untouched on update.
type TeamUpsertRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.List(r.Context())
	if err != nil {
		writeResourceError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseTeamID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeResourceError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TeamUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var team types.Team
	applyTeamUpdate(&team, req)

	created, err := h.service.Create(r.Context(), team)
	if err != nil {
		writeResourceError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseTeamID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req TeamUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	team, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeResourceError(w, err, "team")
		return
	}
	applyTeamUpdate(&team, req)

	updated, err := h.service.Update(r.Context(), team)
	if err != nil {
		writeResourceError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseTeamID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeResourceError(w, err, "team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func applyTeamUpdate(team *types.Team, req TeamUpsertRequest) {
	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
}

func parseTeamID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "teamID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid team id")
	}
	return id, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, errors.New("missing user")
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeFieldErrors renders field-scoped messages the way validation and
// conflict failures are reported: {"field": ["msg", ...]}.
func writeFieldErrors(w http.ResponseWriter, status int, fields map[string][]string) {
	writeJSON(w, status, fields)
}

// writeResourceError translates the shared error taxonomy of the CRUD
// resources. Unexpected errors are logged and reported as a generic
// server failure, never swallowed.
func writeResourceError(w http.ResponseWriter, err error, resource string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeFieldErrors(w, http.StatusBadRequest, validationErr.Fields)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "a "+resource+" with this name already exists")
	case errors.Is(err, store.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, "referenced metric or team does not exist")
	default:
		log.Printf("handlers: %s operation failed: %v", resource, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

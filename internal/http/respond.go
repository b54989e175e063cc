package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"burnrate/internal/core"
	applog "burnrate/internal/log"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, extra map[string]any) {
	payload := map[string]any{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	respondJSON(w, status, payload)
}

// respondErr maps core errors to status codes. Persistence and unexpected
// failures are logged and reported without their details.
func respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		schema  *core.SchemaError
		parse   *core.ParseError
		unknown *core.UnknownCategoryError
		dup     *core.DuplicateKeywordError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &schema):
		respondError(w, http.StatusUnprocessableEntity, err.Error(), map[string]any{"missing": schema.Missing})
	case errors.As(err, &parse):
		respondError(w, http.StatusUnprocessableEntity, err.Error(), map[string]any{"line": parse.Line, "column": parse.Column})
	case errors.As(err, &unknown):
		respondError(w, http.StatusNotFound, err.Error(), map[string]any{"category": unknown.Category})
	case errors.As(err, &dup):
		respondError(w, http.StatusConflict, err.Error(), map[string]any{"owner": dup.Owner})
	case errors.Is(err, core.ErrStatementNotFound):
		respondError(w, http.StatusNotFound, "statement not found", nil)
	case errors.Is(err, core.ErrRowOutOfRange):
		respondError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, core.ErrInvalidDirection), errors.Is(err, errBadRequest):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &tooBig):
		respondError(w, http.StatusRequestEntityTooLarge, "statement too large", map[string]any{"limit": tooBig.Limit})
	case core.IsPersistenceError(err):
		applog.LogError(r.Context(), "Failed to persist categories", err, op, nil)
		respondError(w, http.StatusInternalServerError, "failed to save categories", nil)
	default:
		applog.LogError(r.Context(), "Request failed", err, op, nil)
		respondError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/formbuilder/internal/app"
	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes a structured JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseLimit reads the limit query parameter, defaulting to 50 and capped at 500.
func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

// writeServiceError maps service errors to HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var writeErr *app.RepositoryWriteError
	switch {
	case errors.Is(err, secondary.ErrNodeNotFound),
		errors.Is(err, form.ErrStepNotFound),
		errors.Is(err, form.ErrFieldNotFound):
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, form.ErrInvalidOrder),
		errors.Is(err, form.ErrNestingNotAllowed),
		errors.Is(err, form.ErrEmptyTitle),
		errors.Is(err, form.ErrEmptyName),
		errors.Is(err, fieldtype.ErrUnknownFieldType):
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, form.ErrMissingParentPath):
		s.writeError(w, http.StatusUnprocessableEntity, "MISSING_PARENT_PATH", err.Error())
	case errors.Is(err, app.ErrSaveInProgress), errors.Is(err, app.ErrNoForm):
		s.writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.As(err, &writeErr):
		s.logger.WarnContext(r.Context(), "repository rejected write", "op", writeErr.Op, "target", writeErr.Target, "error", writeErr.Err)
		s.writeError(w, http.StatusBadGateway, "REPOSITORY_ERROR", err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "internal error", slog.String("path", r.URL.Path), slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

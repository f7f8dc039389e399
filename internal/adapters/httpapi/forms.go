package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/formbuilder/internal/ports/primary"
)

type formSummaryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Intro     string `json:"intro"`
	Steps     int    `json:"steps"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type createFormRequest struct {
	Title string `json:"title"`
	Intro string `json:"intro"`
}

type createFormResponse struct {
	FormID string `json:"formId"`
	Path   string `json:"path"`
}

type changeResponse struct {
	ActorID   string `json:"actor,omitempty"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.catalog.ListForms(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]formSummaryResponse, len(forms))
	for i, f := range forms {
		out[i] = formSummaryResponse{
			ID:        f.ID,
			Name:      f.Name,
			Path:      f.Path,
			Title:     f.Title,
			Intro:     f.Intro,
			Steps:     f.Steps,
			UpdatedAt: f.UpdatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) createForm(w http.ResponseWriter, r *http.Request) {
	var req createFormRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	resp, err := s.catalog.CreateForm(r.Context(), primary.CreateFormRequest{Title: req.Title, Intro: req.Intro})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, createFormResponse{FormID: resp.FormID, Path: resp.Path})
}

func (s *Server) duplicateForm(w http.ResponseWriter, r *http.Request) {
	resp, err := s.catalog.DuplicateForm(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, createFormResponse{FormID: resp.FormID, Path: resp.Path})
}

func (s *Server) deleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteForm(r.Context(), chi.URLParam(r, "formID")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) formHistory(w http.ResponseWriter, r *http.Request) {
	changes, err := s.catalog.History(r.Context(), chi.URLParam(r, "formID"), parseLimit(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]changeResponse, len(changes))
	for i, c := range changes {
		out[i] = changeResponse{
			ActorID:   c.ActorID,
			Action:    c.Action,
			Target:    c.Target,
			Detail:    c.Detail,
			CreatedAt: c.CreatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/formbuilder/internal/app"
	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/ports/primary"
)

type openSessionRequest struct {
	FormID   string `json:"formId"`
	Language string `json:"language"`
}

type sessionResponse struct {
	ID                string               `json:"id"`
	FormID            string               `json:"formId"`
	State             primary.SessionState `json:"state"`
	Saving            bool                 `json:"saving"`
	Language          string               `json:"language"`
	Form              *form.Form           `json:"form"`
	DirtySteps        []string             `json:"dirtySteps"`
	DirtyFields       []string             `json:"dirtyFields"`
	FormMetadataDirty bool                 `json:"formMetadataDirty"`
	CreatedAt         time.Time            `json:"createdAt"`
	LastActiveAt      time.Time            `json:"lastActiveAt"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type orderRequest struct {
	ParentFieldID string   `json:"parentFieldId,omitempty"`
	IDs           []string `json:"ids"`
}

type addFieldRequest struct {
	Type       string         `json:"type"`
	Label      string         `json:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func toSessionResponse(m *app.ManagedSession) sessionResponse {
	ed := m.Editor
	return sessionResponse{
		ID:                m.ID,
		FormID:            ed.FormID(),
		State:             ed.State(),
		Saving:            ed.Saving(),
		Language:          ed.Language(),
		Form:              ed.Form(),
		DirtySteps:        ed.DirtySteps(),
		DirtyFields:       ed.DirtyFields(),
		FormMetadataDirty: ed.FormMetadataDirty(),
		CreatedAt:         m.CreatedAt,
		LastActiveAt:      m.LastActiveAt,
	}
}

// session resolves the sessionID route parameter, writing a 404 when it is unknown
// or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*app.ManagedSession, bool) {
	id := chi.URLParam(r, "sessionID")
	m := s.sessions.Get(id)
	if m == nil {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or expired session: "+id)
		return nil, false
	}
	return m, true
}

// respond writes the session after op, or the error op returned.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, m *app.ManagedSession, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionResponse(m))
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.FormID == "" {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "formId is required")
		return
	}
	m, err := s.sessions.Open(r.Context(), req.FormID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.Language != "" {
		if err := m.Editor.SetLanguage(r.Context(), req.Language); err != nil {
			s.sessions.Remove(m.ID)
			s.writeServiceError(w, r, err)
			return
		}
	}
	s.writeJSON(w, http.StatusCreated, toSessionResponse(m))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.writeJSON(w, http.StatusOK, toSessionResponse(m))
	}
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Remove(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.Reload(r.Context()))
	}
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	s.respond(w, r, m, m.Editor.SetLanguage(r.Context(), req.Language))
}

func (s *Server) siteLanguages(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	langs, err := m.Editor.SiteLanguages(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"languages": langs, "current": m.Editor.Language()})
}

func (s *Server) updateForm(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var patch form.FormPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	s.respond(w, r, m, m.Editor.UpdateFormState(patch))
}

func (s *Server) updateStep(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var patch form.StepPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	s.respond(w, r, m, m.Editor.UpdateStepState(chi.URLParam(r, "stepID"), patch))
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var patch form.FieldPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	s.respond(w, r, m, m.Editor.UpdateFieldState(chi.URLParam(r, "stepID"), chi.URLParam(r, "fieldID"), patch))
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.SaveChanges(r.Context()))
	}
}

func (s *Server) addStep(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.AddStep(r.Context()))
	}
}

func (s *Server) removeStep(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.RemoveStep(r.Context(), chi.URLParam(r, "stepID")))
	}
}

func (s *Server) reorderSteps(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	s.respond(w, r, m, m.Editor.ReorderSteps(r.Context(), req.IDs))
}

func (s *Server) addField(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	err := m.Editor.AddNestedField(r.Context(), primary.NestedFieldRequest{
		StepID:     chi.URLParam(r, "stepID"),
		TypeID:     req.Type,
		Label:      req.Label,
		Properties: req.Properties,
	})
	s.respond(w, r, m, err)
}

func (s *Server) addNestedField(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	err := m.Editor.AddNestedField(r.Context(), primary.NestedFieldRequest{
		StepID:        chi.URLParam(r, "stepID"),
		ParentFieldID: chi.URLParam(r, "fieldID"),
		TypeID:        req.Type,
		Label:         req.Label,
		Properties:    req.Properties,
	})
	s.respond(w, r, m, err)
}

func (s *Server) addOption(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.AddOption(r.Context(), chi.URLParam(r, "stepID"), chi.URLParam(r, "fieldID")))
	}
}

func (s *Server) removeField(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.RemoveField(r.Context(), chi.URLParam(r, "stepID"), chi.URLParam(r, "fieldID")))
	}
}

func (s *Server) reorderFields(w http.ResponseWriter, r *http.Request) {
	m, ok := s.session(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	err := m.Editor.ReorderFields(r.Context(), primary.ReorderFieldsRequest{
		StepID:        chi.URLParam(r, "stepID"),
		ParentFieldID: req.ParentFieldID,
		FieldIDs:      req.IDs,
	})
	s.respond(w, r, m, err)
}

func (s *Server) duplicateField(w http.ResponseWriter, r *http.Request) {
	if m, ok := s.session(w, r); ok {
		s.respond(w, r, m, m.Editor.DuplicateField(r.Context(), chi.URLParam(r, "stepID"), chi.URLParam(r, "fieldID")))
	}
}

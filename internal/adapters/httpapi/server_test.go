package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/formbuilder/internal/adapters/httpapi"
	"github.com/example/formbuilder/internal/adapters/sqlite"
	"github.com/example/formbuilder/internal/app"
	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/db"
)

type session struct {
	ID          string     `json:"id"`
	FormID      string     `json:"formId"`
	State       string     `json:"state"`
	Language    string     `json:"language"`
	Form        *form.Form `json:"form"`
	DirtySteps  []string   `json:"dirtySteps"`
	DirtyFields []string   `json:"dirtyFields"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// newTestServer serves the API over a seeded in-memory database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.SeedFixtures(database))

	repo := sqlite.NewContentRepository(database)
	changes := sqlite.NewChangeLogRepository(database)
	registry := fieldtype.Default()
	cfg := config.SessionConfig{}

	catalog := app.NewFormCatalogService(repo, registry, cfg, app.WithChangeLog(changes))
	manager := app.NewSessionManager(func() *app.EditorSession {
		return app.NewEditorSession(repo, registry, cfg, app.WithChangeLog(changes))
	}, time.Hour, time.Hour)

	ts := httptest.NewServer(httpapi.NewServer(manager, catalog, registry, nil).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "alice")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func openSession(t *testing.T, ts *httptest.Server) session {
	t.Helper()
	var s session
	status := call(t, ts, http.MethodPost, "/api/sessions", map[string]string{"formId": db.SampleFormID}, &s)
	require.Equal(t, http.StatusCreated, status)
	return s
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestTypes(t *testing.T) {
	ts := newTestServer(t)

	var types []fieldtype.Descriptor
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/types", nil, &types))
	assert.Len(t, types, len(fieldtype.Default().Types()))
}

func TestForms_ListCreateDelete(t *testing.T) {
	ts := newTestServer(t)

	var forms []map[string]any
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/forms", nil, &forms))
	require.Len(t, forms, 1)
	assert.Equal(t, "Contact us", forms[0]["title"])
	assert.EqualValues(t, 2, forms[0]["steps"])

	var created map[string]string
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/api/forms", map[string]string{"title": "Feedback"}, &created))
	assert.Equal(t, "/sites/default/contents/forms/feedback", created["path"])
	assert.NotEmpty(t, created["formId"])

	var bad apiError
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, "/api/forms", map[string]string{"title": " "}, &bad))
	assert.Equal(t, "VALIDATION_ERROR", bad.Code)

	require.Equal(t, http.StatusNoContent, call(t, ts, http.MethodDelete, "/api/forms/"+created["formId"], nil, nil))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/forms", nil, &forms))
	assert.Len(t, forms, 1)
}

func TestSessions_EditSaveAndHistory(t *testing.T) {
	ts := newTestServer(t)
	s := openSession(t, ts)

	assert.Equal(t, "ready", s.State)
	assert.Equal(t, "en", s.Language)
	require.Len(t, s.Form.Steps, 2)

	var edited session
	status := call(t, ts, http.MethodPatch, "/api/sessions/"+s.ID+"/steps/seed-step-about", map[string]string{"label": "About"}, &edited)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"seed-step-about"}, edited.DirtySteps)

	var saved session
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/sessions/"+s.ID+"/save", nil, &saved))
	assert.Empty(t, saved.DirtySteps)
	assert.Equal(t, "About", saved.Form.Steps[0].Label)

	var history []map[string]string
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/forms/"+db.SampleFormID+"/history?limit=5", nil, &history))
	require.NotEmpty(t, history)
	assert.Equal(t, "set", history[0]["action"])
	assert.Equal(t, "alice", history[0]["actor"])
	assert.Equal(t, "/sites/default/contents/forms/contact/fieldsets/about-you", history[0]["target"])
}

func TestSessions_StructuralEdits(t *testing.T) {
	ts := newTestServer(t)
	s := openSession(t, ts)
	base := "/api/sessions/" + s.ID

	var out session
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/steps/seed-step-message/fields/seed-field-contact-by/options", nil, &out))
	_, group := out.Form.FindField("seed-field-contact-by")
	require.NotNil(t, group)
	assert.Len(t, group.Fields, 3)

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPut, base+"/steps/order", map[string]any{"ids": []string{"seed-step-message", "seed-step-about"}}, &out))
	assert.Equal(t, []string{"seed-step-message", "seed-step-about"}, out.Form.StepIDs())

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/steps/seed-step-about/fields", map[string]string{"type": "inputText"}, &out))
	step, _ := out.Form.FindStep("seed-step-about")
	assert.Len(t, step.Fields, 3)
}

func TestSessions_AddFieldWithLabelAndProperties(t *testing.T) {
	ts := newTestServer(t)
	s := openSession(t, ts)

	var out session
	body := map[string]any{
		"type":       "inputText",
		"label":      "Company",
		"properties": map[string]any{"required": true, "placeholder": "ACME"},
	}
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/sessions/"+s.ID+"/steps/seed-step-about/fields", body, &out))

	step, _ := out.Form.FindStep("seed-step-about")
	require.NotNil(t, step)
	require.Len(t, step.Fields, 3)
	added := step.Fields[2]
	assert.Equal(t, "Company", added.Label)
	assert.Equal(t, "inputText", added.Type)
	assert.Equal(t, true, added.Properties["required"])
	assert.Equal(t, "ACME", added.Properties["placeholder"])
}

func TestSessions_Errors(t *testing.T) {
	ts := newTestServer(t)
	s := openSession(t, ts)
	base := "/api/sessions/" + s.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", nil, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"unknown form", http.MethodPost, "/api/sessions", map[string]string{"formId": "nope"}, http.StatusNotFound, "NOT_FOUND"},
		{"missing form id", http.MethodPost, "/api/sessions", map[string]string{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"partial order", http.MethodPut, base + "/steps/order", map[string]any{"ids": []string{"seed-step-about"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"nesting not allowed", http.MethodPost, base + "/steps/seed-step-about/fields/seed-field-name/children", map[string]string{"type": "inputRadio"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown step", http.MethodPatch, base + "/steps/nope", map[string]string{"label": "x"}, http.StatusNotFound, "NOT_FOUND"},
		{"unknown field type", http.MethodPost, base + "/steps/seed-step-about/fields", map[string]string{"type": "nope"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"option on a text field", http.MethodPost, base + "/steps/seed-step-about/fields/seed-field-name/options", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body apiError
			assert.Equal(t, tt.status, call(t, ts, tt.method, tt.path, tt.body, &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestSessions_Close(t *testing.T) {
	ts := newTestServer(t)
	s := openSession(t, ts)

	require.Equal(t, http.StatusNoContent, call(t, ts, http.MethodDelete, "/api/sessions/"+s.ID, nil, nil))

	var body apiError
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/api/sessions/"+s.ID, nil, &body))
}

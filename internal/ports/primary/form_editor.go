// Package primary defines the primary ports (driving adapters) for the application.
package primary

import (
	"context"

	"github.com/example/formbuilder/internal/core/form"
)

// SessionState is the lifecycle state of an editing session.
type SessionState string

const (
	StateEmpty   SessionState = "empty"
	StateLoading SessionState = "loading"
	StateReady   SessionState = "ready"
	StateSaving  SessionState = "saving"
)

// FormEditor defines the primary port for editing one form definition.
type FormEditor interface {
	// Load fetches and normalizes a form, replacing the model and clearing dirty state.
	Load(ctx context.Context, formID string) error

	// Reload loads the current form again.
	Reload(ctx context.Context) error

	// SetLanguage switches the editing language and reloads.
	SetLanguage(ctx context.Context, language string) error

	// SiteLanguages returns the languages configured on the site.
	SiteLanguages(ctx context.Context) ([]string, error)

	UpdateFormState(patch form.FormPatch) error
	UpdateStepState(stepID string, patch form.StepPatch) error
	UpdateFieldState(stepID, fieldID string, patch form.FieldPatch) error

	AddStep(ctx context.Context) error
	RemoveStep(ctx context.Context, stepID string) error
	ReorderSteps(ctx context.Context, stepIDs []string) error

	AddField(ctx context.Context, stepID, typeID string) error
	AddNestedField(ctx context.Context, req NestedFieldRequest) error
	RemoveField(ctx context.Context, stepID, fieldID string) error
	ReorderFields(ctx context.Context, req ReorderFieldsRequest) error
	DuplicateField(ctx context.Context, stepID, fieldID string) error

	// AddOption adds a choice to a select field (a local edit) or a member to a
	// radio or checkbox group (written right away).
	AddOption(ctx context.Context, stepID, fieldID string) error

	// SaveChanges writes every dirty entity, then reloads.
	SaveChanges(ctx context.Context) error

	Form() *form.Form
	FormID() string
	State() SessionState
	Saving() bool
	Language() string
	DirtySteps() []string
	DirtyFields() []string
	FormMetadataDirty() bool
}

// NestedFieldRequest contains parameters for adding a field inside another field.
// An empty ParentFieldID adds the field at the top level of the step.
type NestedFieldRequest struct {
	StepID        string
	ParentFieldID string
	TypeID        string
	Label         string
	Properties    map[string]any // merged over the type defaults
}

// ReorderFieldsRequest contains parameters for reordering sibling fields.
// ParentFieldID is empty for the step's top-level fields.
type ReorderFieldsRequest struct {
	StepID        string
	ParentFieldID string
	FieldIDs      []string
}

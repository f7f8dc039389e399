package primary

import "context"

// FormCatalog defines the primary port for listing and managing forms.
type FormCatalog interface {
	// ListForms returns the forms stored under the configured forms path.
	ListForms(ctx context.Context) ([]*FormSummary, error)

	// CreateForm creates an empty form.
	CreateForm(ctx context.Context, req CreateFormRequest) (*CreateFormResponse, error)

	// DuplicateForm creates a new empty form titled after an existing one.
	DuplicateForm(ctx context.Context, pathOrID string) (*CreateFormResponse, error)

	// DeleteForm deletes a form and everything below it.
	DeleteForm(ctx context.Context, pathOrID string) error

	// History returns the logged writes below a form.
	History(ctx context.Context, pathOrID string, limit int) ([]*Change, error)
}

// FormSummary represents a form at the port boundary.
type FormSummary struct {
	ID        string
	Name      string
	Path      string
	Title     string
	Intro     string
	Steps     int
	UpdatedAt string
}

// CreateFormRequest contains parameters for creating a form.
type CreateFormRequest struct {
	Title string
	Intro string
}

// CreateFormResponse contains the result of creating a form.
type CreateFormResponse struct {
	FormID string
	Path   string
}

// Change represents one change log entry at the port boundary.
type Change struct {
	ActorID   string
	Action    string
	Target    string
	Detail    string
	CreatedAt string
}

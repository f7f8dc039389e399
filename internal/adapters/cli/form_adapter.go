package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/ports/primary"
)

// FormAdapter is a thin adapter that translates CLI operations to FormCatalog calls.
type FormAdapter struct {
	catalog primary.FormCatalog
	out     io.Writer
}

// NewFormAdapter creates a new FormAdapter with the given catalog.
func NewFormAdapter(catalog primary.FormCatalog, out io.Writer) *FormAdapter {
	return &FormAdapter{
		catalog: catalog,
		out:     out,
	}
}

// List prints the forms in the catalog.
func (a *FormAdapter) List(ctx context.Context) ([]*primary.FormSummary, error) {
	forms, err := a.catalog.ListForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	if len(forms) == 0 {
		fmt.Fprintln(a.out, "No forms found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Create your first form:")
		fmt.Fprintln(a.out, `  formbuilder form create "Contact us"`)
		return forms, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTEPS\tPATH")
	fmt.Fprintln(w, "--\t-----\t-----\t----")
	for _, f := range forms {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.Title, f.Steps, f.Path)
	}
	w.Flush()
	return forms, nil
}

// Create creates an empty form.
func (a *FormAdapter) Create(ctx context.Context, title, intro string) (*primary.CreateFormResponse, error) {
	resp, err := a.catalog.CreateForm(ctx, primary.CreateFormRequest{Title: title, Intro: intro})
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Form created: %s\n", resp.FormID)
	fmt.Fprintf(a.out, "  Path: %s\n", resp.Path)
	return resp, nil
}

// Duplicate creates an empty copy of a form.
func (a *FormAdapter) Duplicate(ctx context.Context, pathOrID string) (*primary.CreateFormResponse, error) {
	resp, err := a.catalog.DuplicateForm(ctx, pathOrID)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate form: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Form %s duplicated as %s\n", pathOrID, resp.FormID)
	fmt.Fprintf(a.out, "  Path: %s\n", resp.Path)
	return resp, nil
}

// Delete deletes a form and everything below it.
func (a *FormAdapter) Delete(ctx context.Context, pathOrID string) error {
	if err := a.catalog.DeleteForm(ctx, pathOrID); err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Form %s deleted\n", pathOrID)
	return nil
}

// History prints the most recent writes below a form.
func (a *FormAdapter) History(ctx context.Context, pathOrID string, limit int) ([]*primary.Change, error) {
	changes, err := a.catalog.History(ctx, pathOrID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	if len(changes) == 0 {
		fmt.Fprintln(a.out, "No changes recorded.")
		return changes, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTOR\tACTION\tTARGET\tDETAIL")
	fmt.Fprintln(w, "----\t-----\t------\t------\t------")
	for _, c := range changes {
		actor := c.ActorID
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.CreatedAt, actor, c.Action, c.Target, c.Detail)
	}
	w.Flush()
	return changes, nil
}

// Types prints the registered field types.
func (a *FormAdapter) Types(registry *fieldtype.Registry) []*fieldtype.Descriptor {
	types := registry.Types()

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNODE TYPE\tLABEL\tNESTS UNDER")
	fmt.Fprintln(w, "----\t---------\t-----\t-----------")
	for _, d := range types {
		parents := "-"
		if len(d.AllowedParents) > 0 {
			parents = strings.Join(d.AllowedParents, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.NodeType, d.Label, parents)
	}
	w.Flush()
	return types
}

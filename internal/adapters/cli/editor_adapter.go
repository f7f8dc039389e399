package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/ports/primary"
)

var (
	titleStyle = color.New(color.Bold)
	stepStyle  = color.New(color.FgCyan, color.Bold)
	idStyle    = color.New(color.FgHiBlack)
	dirtyStyle = color.New(color.FgYellow, color.Bold)
)

// EditorAdapter translates one-shot CLI edits to FormEditor calls. Every
// operation loads the form first; local edits are saved before returning
// unless a dry run is requested.
type EditorAdapter struct {
	editor   primary.FormEditor
	registry *fieldtype.Registry
	out      io.Writer
}

// NewEditorAdapter creates a new EditorAdapter with the given editor. registry
// types the values given to --set.
func NewEditorAdapter(editor primary.FormEditor, registry *fieldtype.Registry, out io.Writer) *EditorAdapter {
	return &EditorAdapter{
		editor:   editor,
		registry: registry,
		out:      out,
	}
}

func (a *EditorAdapter) open(ctx context.Context, formID string) error {
	if err := a.editor.Load(ctx, formID); err != nil {
		return fmt.Errorf("failed to load form: %w", err)
	}
	if a.editor.Form() == nil {
		return fmt.Errorf("failed to load form: %s", formID)
	}
	return nil
}

// finish saves pending local edits, or renders them with dirty markers on a dry run.
func (a *EditorAdapter) finish(ctx context.Context, dryRun bool) error {
	if dryRun {
		a.render(a.editor.Form())
		fmt.Fprintln(a.out, "(dry run, nothing saved)")
		return nil
	}
	if len(a.editor.DirtySteps()) == 0 && len(a.editor.DirtyFields()) == 0 && !a.editor.FormMetadataDirty() {
		return nil
	}
	if err := a.editor.SaveChanges(ctx); err != nil {
		return fmt.Errorf("failed to save changes: %w", err)
	}
	return nil
}

// Show prints a form as a tree of steps and fields.
func (a *EditorAdapter) Show(ctx context.Context, formID string) (*form.Form, error) {
	if err := a.open(ctx, formID); err != nil {
		return nil, err
	}
	f := a.editor.Form()
	a.render(f)
	return f, nil
}

// Languages prints the site languages, marking the one being edited.
func (a *EditorAdapter) Languages(ctx context.Context, formID string) ([]string, error) {
	if err := a.open(ctx, formID); err != nil {
		return nil, err
	}
	langs, err := a.editor.SiteLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read site languages: %w", err)
	}
	current := a.editor.Language()
	for _, l := range langs {
		if l == current {
			fmt.Fprintf(a.out, "%s (editing)\n", l)
			continue
		}
		fmt.Fprintln(a.out, l)
	}
	return langs, nil
}

// UpdateForm edits the form title and intro.
func (a *EditorAdapter) UpdateForm(ctx context.Context, formID string, patch form.FormPatch, dryRun bool) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.UpdateFormState(patch); err != nil {
		return err
	}
	if err := a.finish(ctx, dryRun); err != nil {
		return err
	}
	if !dryRun {
		fmt.Fprintf(a.out, "✓ Form %s updated\n", formID)
	}
	return nil
}

// UpdateStep edits a step's name, label or description.
func (a *EditorAdapter) UpdateStep(ctx context.Context, formID, stepID string, patch form.StepPatch, dryRun bool) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.UpdateStepState(stepID, patch); err != nil {
		return err
	}
	if err := a.finish(ctx, dryRun); err != nil {
		return err
	}
	if !dryRun {
		fmt.Fprintf(a.out, "✓ Step %s updated\n", stepID)
	}
	return nil
}

// UpdateField edits a field. Entries in set are merged over the field's current
// properties, typed by the field type's property schema.
func (a *EditorAdapter) UpdateField(ctx context.Context, formID, stepID, fieldID string, patch form.FieldPatch, set map[string]string, dryRun bool) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if len(set) > 0 {
		_, field := a.editor.Form().FindField(fieldID)
		if field == nil {
			return fmt.Errorf("%w: %s", form.ErrFieldNotFound, fieldID)
		}
		patch.Properties = a.mergeProperties(field.Type, field.Properties, set)
	}
	if err := a.editor.UpdateFieldState(stepID, fieldID, patch); err != nil {
		return err
	}
	if err := a.finish(ctx, dryRun); err != nil {
		return err
	}
	if !dryRun {
		fmt.Fprintf(a.out, "✓ Field %s updated\n", fieldID)
	}
	return nil
}

func (a *EditorAdapter) mergeProperties(typeID string, current map[string]any, set map[string]string) map[string]any {
	var d *fieldtype.Descriptor
	if a.registry != nil {
		d, _ = a.registry.Resolve(typeID)
	}
	out := make(map[string]any, len(current)+len(set))
	for k, v := range current {
		out[k] = v
	}
	for k, raw := range set {
		out[k] = form.ParsePropertyInput(d, k, raw)
	}
	return out
}

// AddStep appends an empty step and returns its id.
func (a *EditorAdapter) AddStep(ctx context.Context, formID string) (string, error) {
	if err := a.open(ctx, formID); err != nil {
		return "", err
	}
	before := collectIDs(a.editor.Form())
	if err := a.editor.AddStep(ctx); err != nil {
		return "", fmt.Errorf("failed to add step: %w", err)
	}
	id := addedID(before, a.editor.Form())
	fmt.Fprintf(a.out, "✓ Step %s added to form %s\n", id, formID)
	return id, nil
}

// RemoveStep deletes a step and its fields.
func (a *EditorAdapter) RemoveStep(ctx context.Context, formID, stepID string) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.RemoveStep(ctx, stepID); err != nil {
		return fmt.Errorf("failed to remove step: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Step %s removed\n", stepID)
	return nil
}

// ReorderSteps puts the steps in the given order.
func (a *EditorAdapter) ReorderSteps(ctx context.Context, formID string, stepIDs []string) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.ReorderSteps(ctx, stepIDs); err != nil {
		return fmt.Errorf("failed to reorder steps: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Steps reordered: %s\n", strings.Join(stepIDs, ", "))
	return nil
}

// AddField appends a field of typeID to a step and returns its id.
func (a *EditorAdapter) AddField(ctx context.Context, formID, stepID, typeID string) (string, error) {
	if err := a.open(ctx, formID); err != nil {
		return "", err
	}
	before := collectIDs(a.editor.Form())
	if err := a.editor.AddField(ctx, stepID, typeID); err != nil {
		return "", fmt.Errorf("failed to add field: %w", err)
	}
	id := addedID(before, a.editor.Form())
	fmt.Fprintf(a.out, "✓ Field %s (%s) added to step %s\n", id, typeID, stepID)
	return id, nil
}

// AddNestedField adds a field inside a group field, or at the top of the step
// when req has no parent, and returns its id. Entries in set are typed like
// UpdateField's and merged over req.Properties.
func (a *EditorAdapter) AddNestedField(ctx context.Context, formID string, req primary.NestedFieldRequest, set map[string]string) (string, error) {
	if err := a.open(ctx, formID); err != nil {
		return "", err
	}
	if len(set) > 0 {
		req.Properties = a.mergeProperties(req.TypeID, req.Properties, set)
	}
	before := collectIDs(a.editor.Form())
	if err := a.editor.AddNestedField(ctx, req); err != nil {
		return "", fmt.Errorf("failed to add nested field: %w", err)
	}
	id := addedID(before, a.editor.Form())
	target := req.ParentFieldID
	if target == "" {
		target = "step " + req.StepID
	}
	fmt.Fprintf(a.out, "✓ Field %s (%s) added to %s\n", id, req.TypeID, target)
	return id, nil
}

// AddOption adds a choice to a select or a member to a radio or checkbox group.
func (a *EditorAdapter) AddOption(ctx context.Context, formID, stepID, fieldID string) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.AddOption(ctx, stepID, fieldID); err != nil {
		return fmt.Errorf("failed to add option: %w", err)
	}
	if err := a.finish(ctx, false); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Option added to %s\n", fieldID)
	return nil
}

// RemoveField deletes a field.
func (a *EditorAdapter) RemoveField(ctx context.Context, formID, stepID, fieldID string) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.RemoveField(ctx, stepID, fieldID); err != nil {
		return fmt.Errorf("failed to remove field: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Field %s removed\n", fieldID)
	return nil
}

// ReorderFields puts sibling fields in the given order.
func (a *EditorAdapter) ReorderFields(ctx context.Context, formID string, req primary.ReorderFieldsRequest) error {
	if err := a.open(ctx, formID); err != nil {
		return err
	}
	if err := a.editor.ReorderFields(ctx, req); err != nil {
		return fmt.Errorf("failed to reorder fields: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Fields reordered: %s\n", strings.Join(req.FieldIDs, ", "))
	return nil
}

// DuplicateField copies a field next to the original and returns the copy's id.
func (a *EditorAdapter) DuplicateField(ctx context.Context, formID, stepID, fieldID string) (string, error) {
	if err := a.open(ctx, formID); err != nil {
		return "", err
	}
	before := collectIDs(a.editor.Form())
	if err := a.editor.DuplicateField(ctx, stepID, fieldID); err != nil {
		return "", fmt.Errorf("failed to duplicate field: %w", err)
	}
	id := addedID(before, a.editor.Form())
	fmt.Fprintf(a.out, "✓ Field %s duplicated as %s\n", fieldID, id)
	return id, nil
}

func (a *EditorAdapter) render(f *form.Form) {
	if f == nil {
		return
	}
	dirtySteps := toSet(a.editor.DirtySteps())
	dirtyFields := toSet(a.editor.DirtyFields())

	title := titleStyle.Sprint(f.Label)
	if a.editor.FormMetadataDirty() {
		title += dirtyStyle.Sprint(" *")
	}
	fmt.Fprintf(a.out, "\nForm: %s %s\n", title, idStyle.Sprintf("[%s]", f.ID))
	fmt.Fprintf(a.out, "Path:     %s\n", f.Path)
	if f.Intro != "" {
		fmt.Fprintf(a.out, "Intro:    %s\n", f.Intro)
	}
	fmt.Fprintf(a.out, "Language: %s\n", a.editor.Language())
	fmt.Fprintln(a.out)

	if len(f.Steps) == 0 {
		fmt.Fprintln(a.out, "No steps yet.")
		return
	}
	for i, step := range f.Steps {
		marker := ""
		if _, ok := dirtySteps[step.ID]; ok {
			marker = dirtyStyle.Sprint(" *")
		}
		fmt.Fprintf(a.out, "%d. %s%s  %s %s\n", i+1, stepStyle.Sprint(step.Label), marker, step.Name, idStyle.Sprintf("[%s]", step.ID))
		if step.Description != nil && *step.Description != "" {
			fmt.Fprintf(a.out, "   %s\n", *step.Description)
		}
		a.renderFields(step.Fields, "   ", dirtyFields)
	}
	fmt.Fprintln(a.out)
}

func (a *EditorAdapter) renderFields(fields []form.Field, indent string, dirty map[string]struct{}) {
	for _, field := range fields {
		marker := ""
		if _, ok := dirty[field.ID]; ok {
			marker = dirtyStyle.Sprint(" *")
		}
		fmt.Fprintf(a.out, "%s- %s%s  %s %s %s\n", indent, field.Label, marker, field.Type, field.Name, idStyle.Sprintf("[%s]", field.ID))
		a.renderFields(field.Fields, indent+"  ", dirty)
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// collectIDs returns every step and field id in f.
func collectIDs(f *form.Form) map[string]struct{} {
	ids := make(map[string]struct{})
	if f == nil {
		return ids
	}
	var walk func([]form.Field)
	walk = func(fields []form.Field) {
		for _, field := range fields {
			ids[field.ID] = struct{}{}
			walk(field.Fields)
		}
	}
	for _, step := range f.Steps {
		ids[step.ID] = struct{}{}
		walk(step.Fields)
	}
	return ids
}

// addedID returns an id present in f but not in before.
func addedID(before map[string]struct{}, f *form.Form) string {
	for id := range collectIDs(f) {
		if _, ok := before[id]; !ok {
			return id
		}
	}
	return "?"
}

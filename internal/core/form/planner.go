package form

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/core/fieldtype"
)

// Entity names carried by write effects.
const (
	EntityForm  = "form"
	EntityStep  = "step"
	EntityField = "field"
)

// SaveInput contains the model and dirty state a save is planned from.
type SaveInput struct {
	Form              *Form
	DirtySteps        map[string]struct{}
	DirtyFields       map[string]struct{}
	FormMetadataDirty bool
	Language          string
}

// SavePlan represents the planned writes of one save.
// Writes holds one CompositeEffect per dirty entity: its property batch followed,
// when the entity was renamed, by the rename.
type SavePlan struct {
	Writes   effects.ConcurrentEffect
	Warnings []effects.LogEffect
}

// WriteCount returns the number of repository calls the plan performs.
func (p SavePlan) WriteCount() int {
	return effects.Count(p.Writes)
}

// Effects returns all effects as a flat slice for execution, warnings first.
func (p SavePlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, len(p.Warnings)+1)
	for _, w := range p.Warnings {
		result = append(result, w)
	}
	if len(p.Writes.Effects) > 0 {
		result = append(result, p.Writes)
	}
	return result
}

// PlanSave builds the writes persisting exactly the dirty entities of a form.
// This is a pure function - all input data must be pre-fetched.
//
// Entities are visited in model order: form metadata, then steps, then fields
// depth-first. Dirty ids that no longer exist in the model are reported as warnings.
func PlanSave(in SaveInput, registry *fieldtype.Registry) (SavePlan, error) {
	f := in.Form
	if f == nil {
		return SavePlan{}, ErrNoForm
	}
	if guard := CanSave(SaveContext{FormID: f.ID, Path: f.Path, FieldsetsPath: f.FieldsetsPath}); !guard.Allowed {
		return SavePlan{}, fmt.Errorf("%w: %s", ErrMissingParentPath, guard.Reason)
	}

	var plan SavePlan
	if in.FormMetadataDirty {
		plan.Writes.Effects = append(plan.Writes.Effects, effects.CompositeEffect{Effects: []effects.Effect{
			effects.SetPropertiesEffect{
				Entity:     EntityForm,
				EntityID:   f.ID,
				PathOrID:   target(f.Path, f.ID),
				Properties: BuildFormMetadataInput(*f, in.Language),
			},
		}})
	}

	seenSteps := make(map[string]bool, len(in.DirtySteps))
	seenFields := make(map[string]bool, len(in.DirtyFields))

	for _, step := range f.Steps {
		if _, dirty := in.DirtySteps[step.ID]; dirty {
			seenSteps[step.ID] = true
			plan.Writes.Effects = append(plan.Writes.Effects, entityWrites(
				EntityStep, step.ID, target(step.Path, step.ID), step.Name, step.InitialName,
				BuildStepPropertiesInput(step, in.Language),
			))
		}
	}

	var visit func(fields []Field)
	visit = func(fields []Field) {
		for _, field := range fields {
			if _, dirty := in.DirtyFields[field.ID]; dirty && !seenFields[field.ID] {
				seenFields[field.ID] = true
				plan.Writes.Effects = append(plan.Writes.Effects, entityWrites(
					EntityField, field.ID, target(field.Path, field.ID), field.Name, field.InitialName,
					BuildFieldPropertiesInput(field, in.Language, registry),
				))
			}
			visit(field.Fields)
		}
	}
	for _, step := range f.Steps {
		visit(step.Fields)
	}

	plan.Warnings = append(plan.Warnings, missingWarnings(EntityStep, in.DirtySteps, seenSteps)...)
	plan.Warnings = append(plan.Warnings, missingWarnings(EntityField, in.DirtyFields, seenFields)...)
	return plan, nil
}

func entityWrites(entity, id, pathOrID, name, initialName string, props []effects.PropertyWrite) effects.CompositeEffect {
	composite := effects.CompositeEffect{Effects: []effects.Effect{
		effects.SetPropertiesEffect{Entity: entity, EntityID: id, PathOrID: pathOrID, Properties: props},
	}}
	if name != initialName {
		newName := Slugify(name)
		if newName == "" {
			newName = name
		}
		composite.Effects = append(composite.Effects, effects.RenameNodeEffect{
			Entity: entity, EntityID: id, PathOrID: pathOrID, Name: newName,
		})
	}
	return composite
}

func missingWarnings(entity string, dirty map[string]struct{}, seen map[string]bool) []effects.LogEffect {
	var missing []string
	for id := range dirty {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	out := make([]effects.LogEffect, 0, len(missing))
	for _, id := range missing {
		out = append(out, effects.LogEffect{
			Level:   "warn",
			Message: "dirty " + entity + " no longer in form, skipping",
			Fields:  map[string]any{"entity": entity, "id": id},
		})
	}
	return out
}

func target(p, id string) string {
	if p != "" {
		return p
	}
	return id
}

// AddStepInput contains pre-fetched data for step creation.
type AddStepInput struct {
	Form     *Form
	Language string
	Now      time.Time
}

// PlanAddStep plans a new step titled "Step N" at the end of the form.
func PlanAddStep(in AddStepInput) (effects.AddNodeEffect, error) {
	f := in.Form
	if f == nil {
		return effects.AddNodeEffect{}, ErrNoForm
	}
	if f.Path == "" {
		return effects.AddNodeEffect{}, fmt.Errorf("%w: form %s has no path", ErrMissingParentPath, f.ID)
	}

	title := fmt.Sprintf("Step %d", len(f.Steps)+1)
	taken := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		taken[i] = s.Name
	}

	return effects.AddNodeEffect{
		ParentPath: f.StepsParentPath(),
		Name:       UniqueName(nodeName(title, "step", in.Now), taken),
		NodeType:   NodeTypeFieldset,
		Properties: []effects.PropertyWrite{
			{Name: PropTitle, Value: title, Language: in.Language, Type: effects.WriteString},
			{Name: PropDescription, Value: "", Language: in.Language, Type: effects.WriteString},
		},
	}, nil
}

// CreateFormInput contains pre-fetched data for form creation.
type CreateFormInput struct {
	ParentPath string
	Title      string
	Intro      string
	TakenNames []string
	Language   string
	Now        time.Time
}

// PlanCreateForm plans a new empty form under ParentPath named after its title.
func PlanCreateForm(in CreateFormInput) (effects.AddNodeEffect, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return effects.AddNodeEffect{}, ErrEmptyTitle
	}
	if in.ParentPath == "" {
		return effects.AddNodeEffect{}, ErrMissingParentPath
	}
	f := Form{Label: title, Intro: in.Intro}
	return effects.AddNodeEffect{
		ParentPath: in.ParentPath,
		Name:       UniqueName(nodeName(title, "form", in.Now), in.TakenNames),
		NodeType:   NodeTypeForm,
		Properties: BuildFormMetadataInput(f, in.Language),
	}, nil
}

// AddFieldInput contains pre-fetched data for field creation.
// Overrides are merged over the template's default properties.
type AddFieldInput struct {
	ParentPath   string
	Template     fieldtype.Template
	Overrides    map[string]any
	SiblingNames []string
	Language     string
	Now          time.Time
}

// PlanAddField plans a new field node built from a registry template.
func PlanAddField(in AddFieldInput, registry *fieldtype.Registry) (effects.AddNodeEffect, error) {
	if in.ParentPath == "" {
		return effects.AddNodeEffect{}, ErrMissingParentPath
	}

	field := FieldFromTemplate(in.Template)
	if len(in.Overrides) > 0 {
		props := make(map[string]any, len(field.Properties)+len(in.Overrides))
		for k, v := range field.Properties {
			props[k] = v
		}
		for k, v := range in.Overrides {
			props[k] = v
		}
		field.Properties = props
	}

	return effects.AddNodeEffect{
		ParentPath: in.ParentPath,
		Name:       UniqueName(nodeName(field.Label, "field", in.Now), in.SiblingNames),
		NodeType:   field.NodeType,
		Properties: BuildFieldPropertiesInput(field, in.Language, registry),
	}, nil
}

// DuplicateFieldInput contains pre-fetched data for duplicating a field.
type DuplicateFieldInput struct {
	Field        Field
	SiblingNames []string
	Language     string
}

// PlanDuplicateField plans a copy of a field and its nested fields next to the
// original. The copy's label gets a " (copy)" suffix.
func PlanDuplicateField(in DuplicateFieldInput, registry *fieldtype.Registry) (effects.CompositeEffect, error) {
	if in.Field.Path == "" {
		return effects.CompositeEffect{}, fmt.Errorf("%w: field %s has no path", ErrMissingParentPath, in.Field.ID)
	}

	copyField := in.Field.Clone()
	copyField.Label = in.Field.Label + " (copy)"
	if copyField.Properties != nil {
		copyField.Properties[PropTitle] = copyField.Label
	}

	base := Slugify(in.Field.Name)
	if base == "" {
		base = "field"
	}
	name := UniqueName(base+"-copy", in.SiblingNames)

	var composite effects.CompositeEffect
	appendSubtree(&composite, path.Dir(in.Field.Path), name, copyField, in.Language, registry)
	return composite, nil
}

func appendSubtree(c *effects.CompositeEffect, parentPath, name string, f Field, language string, registry *fieldtype.Registry) {
	c.Effects = append(c.Effects, effects.AddNodeEffect{
		ParentPath: parentPath,
		Name:       name,
		NodeType:   f.NodeType,
		Properties: BuildFieldPropertiesInput(f, language, registry),
	})
	childParent := path.Join(parentPath, name)
	for _, child := range f.Fields {
		appendSubtree(c, childParent, child.Name, child, language, registry)
	}
}

// PlanReorder plans a new sibling order under parentPath.
func PlanReorder(parentPath string, names []string) (effects.ReorderChildrenEffect, error) {
	if parentPath == "" {
		return effects.ReorderChildrenEffect{}, ErrMissingParentPath
	}
	return effects.ReorderChildrenEffect{PathOrID: parentPath, Names: names}, nil
}

// PlanRemove plans the deletion of a node and its subtree.
func PlanRemove(pathOrID string) effects.DeleteNodeEffect {
	return effects.DeleteNodeEffect{PathOrID: pathOrID}
}

// UniqueName returns base, or base with the smallest numeric suffix that is not
// among taken.
func UniqueName(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

func nodeName(label, prefix string, now time.Time) string {
	if slug := Slugify(label); slug != "" {
		return slug
	}
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

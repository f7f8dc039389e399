package form

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/core/fieldtype"
)

func strPtr(s string) *string { return &s }

func sampleForm() *Form {
	return &Form{
		ID:            "f1",
		Name:          "contact",
		Path:          "/forms/contact",
		Label:         "Contact",
		FieldsetsPath: "/forms/contact/fieldsets",
		Steps: []Step{
			{
				ID: "s1", Name: "step-1", InitialName: "step-1", Path: "/forms/contact/fieldsets/step-1",
				Label: "Step 1", Description: strPtr(""),
				Fields: []Field{
					{ID: "a", Name: "email", InitialName: "email", Path: "/forms/contact/fieldsets/step-1/email",
						Label: "Email", Type: "inputEmail", NodeType: "fmdb:inputEmail", Properties: map[string]any{}},
					{ID: "g", Name: "colour", InitialName: "colour", Path: "/forms/contact/fieldsets/step-1/colour",
						Label: "Colour", Type: "radioGroup", NodeType: "fmdb:radioGroup", Properties: map[string]any{},
						Fields: []Field{
							{ID: "r1", Name: "red", InitialName: "red", Path: "/forms/contact/fieldsets/step-1/colour/red",
								Label: "Red", Type: "inputRadio", NodeType: "fmdb:inputRadio",
								Properties: map[string]any{"value": "red", "defaultChecked": true}},
						}},
				},
			},
			{ID: "s2", Name: "step-2", InitialName: "step-2", Path: "/forms/contact/fieldsets/step-2", Label: "Step 2"},
		},
	}
}

func set(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestPlanSave_EmptyDirtyStateHasNoWrites(t *testing.T) {
	plan, err := PlanSave(SaveInput{Form: sampleForm(), Language: "en"}, fieldtype.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, plan.WriteCount())
	assert.Empty(t, plan.Effects())
}

func TestPlanSave_NilForm(t *testing.T) {
	_, err := PlanSave(SaveInput{}, fieldtype.Default())
	assert.ErrorIs(t, err, ErrNoForm)
}

func TestPlanSave_MissingParentPath(t *testing.T) {
	f := sampleForm()
	f.Path = ""
	f.FieldsetsPath = ""

	_, err := PlanSave(SaveInput{Form: f, DirtySteps: set("s1")}, fieldtype.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingParentPath))
}

func TestPlanSave_StepEdit(t *testing.T) {
	f := sampleForm()
	f.Steps[0].Label = "Renamed"

	plan, err := PlanSave(SaveInput{Form: f, DirtySteps: set("s1"), Language: "en"}, fieldtype.Default())
	require.NoError(t, err)
	require.Equal(t, 1, plan.WriteCount())

	composite := plan.Writes.Effects[0].(effects.CompositeEffect)
	write := composite.Effects[0].(effects.SetPropertiesEffect)
	assert.Equal(t, EntityStep, write.Entity)
	assert.Equal(t, "/forms/contact/fieldsets/step-1", write.PathOrID)
	assert.Equal(t, "Renamed", write.Properties[0].Value)
}

func TestPlanSave_RenameFollowsPropertyWrite(t *testing.T) {
	f := sampleForm()
	f.Steps[0].Fields[0].Name = "Work Email!"

	plan, err := PlanSave(SaveInput{Form: f, DirtyFields: set("a"), Language: "en"}, fieldtype.Default())
	require.NoError(t, err)
	require.Equal(t, 2, plan.WriteCount())

	composite := plan.Writes.Effects[0].(effects.CompositeEffect)
	require.Len(t, composite.Effects, 2)
	assert.IsType(t, effects.SetPropertiesEffect{}, composite.Effects[0])
	rename := composite.Effects[1].(effects.RenameNodeEffect)
	assert.Equal(t, "work-email", rename.Name)
	assert.Equal(t, "/forms/contact/fieldsets/step-1/email", rename.PathOrID)
}

func TestPlanSave_RenameKeepsRawNameWhenSlugEmpty(t *testing.T) {
	f := sampleForm()
	f.Steps[1].Name = "***"

	plan, err := PlanSave(SaveInput{Form: f, DirtySteps: set("s2")}, fieldtype.Default())
	require.NoError(t, err)
	rename := plan.Writes.Effects[0].(effects.CompositeEffect).Effects[1].(effects.RenameNodeEffect)
	assert.Equal(t, "***", rename.Name)
}

func TestPlanSave_ModelOrderAndNestedFields(t *testing.T) {
	plan, err := PlanSave(SaveInput{
		Form:              sampleForm(),
		DirtySteps:        set("s2", "s1"),
		DirtyFields:       set("r1", "a"),
		FormMetadataDirty: true,
		Language:          "en",
	}, fieldtype.Default())
	require.NoError(t, err)

	var order []string
	for _, e := range plan.Writes.Effects {
		write := e.(effects.CompositeEffect).Effects[0].(effects.SetPropertiesEffect)
		order = append(order, write.Entity+":"+write.EntityID)
	}
	assert.Equal(t, []string{"form:f1", "step:s1", "step:s2", "field:a", "field:r1"}, order)
	assert.Equal(t, 5, plan.WriteCount())
}

func TestPlanSave_MissingDirtyIdsAreWarnings(t *testing.T) {
	plan, err := PlanSave(SaveInput{
		Form:        sampleForm(),
		DirtySteps:  set("gone"),
		DirtyFields: set("z", "y"),
	}, fieldtype.Default())
	require.NoError(t, err)

	assert.Equal(t, 0, plan.WriteCount())
	require.Len(t, plan.Warnings, 3)
	assert.Equal(t, "gone", plan.Warnings[0].Fields["id"])
	assert.Equal(t, "y", plan.Warnings[1].Fields["id"])
	assert.Equal(t, "z", plan.Warnings[2].Fields["id"])
}

func TestPlanAddStep(t *testing.T) {
	f := &Form{ID: "f1", Path: "/forms/contact"}

	add, err := PlanAddStep(AddStepInput{Form: f, Language: "en", Now: time.UnixMilli(1700000000000)})
	require.NoError(t, err)
	assert.Equal(t, "/forms/contact", add.ParentPath)
	assert.Equal(t, "step-1", add.Name)
	assert.Equal(t, NodeTypeFieldset, add.NodeType)
	assert.Equal(t, []effects.PropertyWrite{
		{Name: PropTitle, Value: "Step 1", Language: "en", Type: effects.WriteString},
		{Name: PropDescription, Value: "", Language: "en", Type: effects.WriteString},
	}, add.Properties)
}

func TestPlanAddStep_UsesFieldsetsContainerAndAvoidsTakenNames(t *testing.T) {
	f := sampleForm()
	f.Steps[0].Name = "step-3"

	add, err := PlanAddStep(AddStepInput{Form: f, Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "/forms/contact/fieldsets", add.ParentPath)
	assert.Equal(t, "step-3-2", add.Name)
}

func TestPlanAddStep_RequiresFormPath(t *testing.T) {
	_, err := PlanAddStep(AddStepInput{Form: &Form{ID: "f1", FieldsetsPath: "/x"}})
	assert.ErrorIs(t, err, ErrMissingParentPath)

	_, err = PlanAddStep(AddStepInput{})
	assert.ErrorIs(t, err, ErrNoForm)
}

func TestPlanAddField(t *testing.T) {
	registry := fieldtype.Default()
	tpl, err := registry.BuildTemplate("inputCheckbox", "Option 1")
	require.NoError(t, err)

	add, err := PlanAddField(AddFieldInput{
		ParentPath: "/forms/contact/step-1/agree",
		Template:   tpl,
		Overrides:  map[string]any{"value": "option-1", "defaultChecked": true},
		Language:   "en",
	}, registry)
	require.NoError(t, err)

	assert.Equal(t, "option-1", add.Name)
	assert.Equal(t, "fmdb:inputCheckbox", add.NodeType)
	assert.Equal(t, []string{PropTitle, "defaultChecked", "required", "value"}, writeNames(add.Properties))
	assert.Equal(t, "true", add.Properties[1].Value)
	assert.Equal(t, "option-1", add.Properties[3].Value)
	assert.Equal(t, false, tpl.Properties["defaultChecked"], "template defaults stay untouched")
}

func TestPlanAddField_FallbackName(t *testing.T) {
	registry := fieldtype.Default()
	tpl, err := registry.BuildTemplate("inputHidden", "???")
	require.NoError(t, err)

	add, err := PlanAddField(AddFieldInput{ParentPath: "/p", Template: tpl, Now: time.UnixMilli(42)}, registry)
	require.NoError(t, err)
	assert.Equal(t, "field-42", add.Name)

	_, err = PlanAddField(AddFieldInput{Template: tpl}, registry)
	assert.ErrorIs(t, err, ErrMissingParentPath)
}

func TestPlanDuplicateField(t *testing.T) {
	f := sampleForm()
	group := f.Steps[0].Fields[1]

	plan, err := PlanDuplicateField(DuplicateFieldInput{
		Field:        group,
		SiblingNames: []string{"email", "colour", "colour-copy"},
		Language:     "en",
	}, fieldtype.Default())
	require.NoError(t, err)
	require.Len(t, plan.Effects, 2)

	parent := plan.Effects[0].(effects.AddNodeEffect)
	assert.Equal(t, "/forms/contact/fieldsets/step-1", parent.ParentPath)
	assert.Equal(t, "colour-copy-2", parent.Name)
	assert.Equal(t, "Colour (copy)", parent.Properties[0].Value)

	child := plan.Effects[1].(effects.AddNodeEffect)
	assert.Equal(t, "/forms/contact/fieldsets/step-1/colour-copy-2", child.ParentPath)
	assert.Equal(t, "red", child.Name)
	assert.Equal(t, "fmdb:inputRadio", child.NodeType)

	assert.Equal(t, "Colour", f.Steps[0].Fields[1].Label, "original is not modified")
}

func TestPlanReorderAndRemove(t *testing.T) {
	reorder, err := PlanReorder("/forms/contact", []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, effects.ReorderChildrenEffect{PathOrID: "/forms/contact", Names: []string{"b", "a"}}, reorder)

	_, err = PlanReorder("", nil)
	assert.ErrorIs(t, err, ErrMissingParentPath)

	assert.Equal(t, effects.DeleteNodeEffect{PathOrID: "/x"}, PlanRemove("/x"))
}

func TestUniqueName(t *testing.T) {
	assert.Equal(t, "a", UniqueName("a", nil))
	assert.Equal(t, "a-2", UniqueName("a", []string{"a"}))
	assert.Equal(t, "a-3", UniqueName("a", []string{"a", "a-2"}))
}

func TestPlanCreateForm(t *testing.T) {
	eff, err := PlanCreateForm(CreateFormInput{
		ParentPath: "/sites/default/contents/forms",
		Title:      "  Job Application ",
		Intro:      "Apply here",
		TakenNames: []string{"job-application"},
		Language:   "en",
		Now:        time.UnixMilli(42),
	})
	require.NoError(t, err)

	assert.Equal(t, "/sites/default/contents/forms", eff.ParentPath)
	assert.Equal(t, "job-application-2", eff.Name)
	assert.Equal(t, NodeTypeForm, eff.NodeType)
	require.Len(t, eff.Properties, 2)
	assert.Equal(t, "Job Application", eff.Properties[0].Value)
	assert.Equal(t, "Apply here", eff.Properties[1].Value)
}

func TestPlanCreateForm_Errors(t *testing.T) {
	_, err := PlanCreateForm(CreateFormInput{ParentPath: "/forms", Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = PlanCreateForm(CreateFormInput{Title: "X"})
	assert.ErrorIs(t, err, ErrMissingParentPath)

	eff, err := PlanCreateForm(CreateFormInput{ParentPath: "/forms", Title: "!!!", Now: time.UnixMilli(7)})
	require.NoError(t, err)
	assert.Equal(t, "form-7", eff.Name)
}

// Package form contains the pure form-definition logic: the editable model, the
// normalizer that builds it from repository nodes, and the planners that turn edits
// back into repository writes.
// This is part of the Functional Core - no I/O, only pure functions.
package form

import (
	"strings"

	"github.com/example/formbuilder/internal/core/fieldtype"
)

// Repository node types and property names used by form definitions.
const (
	NodeTypeForm     = "fmdb:form"
	NodeTypeFieldset = "fmdb:fieldset"

	// FieldsetsContainerName is the intermediate child some forms keep their steps under.
	FieldsetsContainerName = "fieldsets"

	PropTitle       = "jcr:title"
	PropDescription = "jcr:description"
	PropIntro       = "intro"
	PropOptions     = "options"
	PropLanguages   = "j:languages"
	PropModified    = "jcr:lastModified"
)

// Form is the root of a normalized form definition.
type Form struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Label         string `json:"label"`
	Intro         string `json:"intro"`
	FieldsetsPath string `json:"fieldsetsPath"`
	Steps         []Step `json:"steps"`
}

// Step is one page of a multi-step form.
type Step struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	InitialName string  `json:"initialName"`
	Path        string  `json:"path"`
	Label       string  `json:"label"`
	Description *string `json:"description"`
	Fields      []Field `json:"fields"`
}

// Field is one input of a step. Fields of group types hold their members in Fields.
type Field struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	InitialName string         `json:"initialName"`
	Path        string         `json:"path"`
	Label       string         `json:"label"`
	Type        string         `json:"type"`
	NodeType    string         `json:"nodeType"`
	Properties  map[string]any `json:"properties"`
	Fields      []Field        `json:"fields"`
}

// FormPatch holds form metadata edits. Nil members are left unchanged.
type FormPatch struct {
	Label *string `json:"label,omitempty"`
	Intro *string `json:"intro,omitempty"`
}

// StepPatch holds step edits. Nil members are left unchanged.
type StepPatch struct {
	Name        *string `json:"name,omitempty"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
}

// FieldPatch holds field edits. A non-nil Properties replaces the whole property bag.
type FieldPatch struct {
	Name       *string        `json:"name,omitempty"`
	Label      *string        `json:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// StepsParentPath is the location new steps are created under and reordered in.
// Empty when the form has neither a fieldsets container nor a path.
func (f *Form) StepsParentPath() string {
	if f.FieldsetsPath != "" {
		return f.FieldsetsPath
	}
	return f.Path
}

// FindStep returns the step with the given id and its index, or nil and -1.
func (f *Form) FindStep(id string) (*Step, int) {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i], i
		}
	}
	return nil, -1
}

// FindField searches every step breadth-first, nested fields included.
// It returns the owning step and the field, or nils.
func (f *Form) FindField(id string) (*Step, *Field) {
	for i := range f.Steps {
		step := &f.Steps[i]
		queue := make([]*Field, 0, len(step.Fields))
		for j := range step.Fields {
			queue = append(queue, &step.Fields[j])
		}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if current.ID == id {
				return step, current
			}
			for j := range current.Fields {
				queue = append(queue, &current.Fields[j])
			}
		}
	}
	return nil, nil
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	out := *f
	out.Steps = make([]Step, len(f.Steps))
	for i, s := range f.Steps {
		out.Steps[i] = s.Clone()
	}
	return &out
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	if s.Description != nil {
		d := *s.Description
		out.Description = &d
	}
	out.Fields = cloneFields(s.Fields)
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Properties != nil {
		out.Properties = make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			out.Properties[k] = fieldtype.CloneValue(v)
		}
	}
	out.Fields = cloneFields(f.Fields)
	return out
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// FieldFromTemplate turns a registry template into an unsaved field.
func FieldFromTemplate(tpl fieldtype.Template) Field {
	return Field{
		ID:         tpl.ID,
		Name:       tpl.Name,
		Label:      tpl.Label,
		Type:       tpl.Type,
		NodeType:   tpl.NodeType,
		Properties: tpl.Properties,
	}
}

// Apply returns a copy of the form with the patch applied.
func (p FormPatch) Apply(f Form) Form {
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Intro != nil {
		f.Intro = *p.Intro
	}
	return f
}

// Apply returns a copy of the step with the patch applied.
func (p StepPatch) Apply(s Step) Step {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Label != nil {
		s.Label = *p.Label
	}
	if p.Description != nil {
		d := *p.Description
		s.Description = &d
	}
	return s
}

// Validate rejects a patch that would leave the step without a name.
func (p StepPatch) Validate() error {
	return validateName(p.Name)
}

// Validate rejects a patch that would leave the field without a name.
func (p FieldPatch) Validate() error {
	return validateName(p.Name)
}

func validateName(name *string) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Apply returns a copy of the field with the patch applied.
func (p FieldPatch) Apply(f Field) Field {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Properties != nil {
		props := make(map[string]any, len(p.Properties))
		for k, v := range p.Properties {
			props[k] = v
		}
		f.Properties = props
	}
	return f
}

// UpdateField applies patch to the field with the given id anywhere in fields.
// Slices along the path to the field are copied; untouched subtrees are shared.
// The second result reports whether the field was found.
func UpdateField(fields []Field, id string, patch FieldPatch) ([]Field, bool) {
	var next []Field
	for i, f := range fields {
		updated, changed := updateFieldNode(f, id, patch)
		if !changed {
			continue
		}
		if next == nil {
			next = make([]Field, len(fields))
			copy(next, fields)
		}
		next[i] = updated
	}
	if next == nil {
		return fields, false
	}
	return next, true
}

func updateFieldNode(node Field, id string, patch FieldPatch) (Field, bool) {
	children, childChanged := UpdateField(node.Fields, id, patch)

	if node.ID == id {
		out := patch.Apply(node)
		out.Fields = children
		return out, true
	}
	if childChanged {
		out := node
		out.Fields = children
		return out, true
	}
	return node, false
}

// SiblingFields returns the ordered field list a reorder request refers to:
// the step's own fields when parentFieldID is empty, else the nested fields of
// that parent.
func SiblingFields(step *Step, parentFieldID string) ([]Field, string, bool) {
	if parentFieldID == "" {
		return step.Fields, step.Path, true
	}
	var walk func(fields []Field) (*Field, bool)
	walk = func(fields []Field) (*Field, bool) {
		for i := range fields {
			if fields[i].ID == parentFieldID {
				return &fields[i], true
			}
			if found, ok := walk(fields[i].Fields); ok {
				return found, true
			}
		}
		return nil, false
	}
	parent, ok := walk(step.Fields)
	if !ok {
		return nil, "", false
	}
	return parent.Fields, parent.Path, true
}

// SiblingsOf returns the field list that directly contains fieldID.
func SiblingsOf(step *Step, fieldID string) ([]Field, bool) {
	var walk func(fields []Field) ([]Field, bool)
	walk = func(fields []Field) ([]Field, bool) {
		for i := range fields {
			if fields[i].ID == fieldID {
				return fields, true
			}
			if found, ok := walk(fields[i].Fields); ok {
				return found, true
			}
		}
		return nil, false
	}
	return walk(step.Fields)
}

// WithSiblingFields returns a copy of the step whose fields under parentFieldID
// (the step itself when empty) are replaced by fields.
func (s Step) WithSiblingFields(parentFieldID string, fields []Field) (Step, bool) {
	if parentFieldID == "" {
		s.Fields = fields
		return s, true
	}
	updated, ok := replaceChildren(s.Fields, parentFieldID, fields)
	if !ok {
		return s, false
	}
	s.Fields = updated
	return s, true
}

func replaceChildren(fields []Field, parentID string, children []Field) ([]Field, bool) {
	for i := range fields {
		if fields[i].ID == parentID {
			next := make([]Field, len(fields))
			copy(next, fields)
			next[i].Fields = children
			return next, true
		}
		if updated, ok := replaceChildren(fields[i].Fields, parentID, children); ok {
			next := make([]Field, len(fields))
			copy(next, fields)
			next[i].Fields = updated
			return next, true
		}
	}
	return fields, false
}

// StepIDs returns the ids of the form's steps in order.
func (f *Form) StepIDs() []string {
	ids := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		ids[i] = s.ID
	}
	return ids
}

// FieldIDs returns the ids of fields in order.
func FieldIDs(fields []Field) []string {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	return ids
}

// OrderSteps returns steps arranged by ids. Steps not listed are dropped.
func OrderSteps(steps []Step, ids []string) []Step {
	return orderByID(steps, func(s Step) string { return s.ID }, ids)
}

// OrderFields returns fields arranged by ids. Fields not listed are dropped.
func OrderFields(fields []Field, ids []string) []Field {
	return orderByID(fields, func(f Field) string { return f.ID }, ids)
}

func orderByID[T any](items []T, id func(T) string, ids []string) []T {
	byID := make(map[string]T, len(items))
	for _, item := range items {
		byID[id(item)] = item
	}
	out := make([]T, 0, len(ids))
	for _, want := range ids {
		if item, ok := byID[want]; ok {
			out = append(out, item)
		}
	}
	return out
}

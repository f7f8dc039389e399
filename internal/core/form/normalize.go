package form

import (
	"github.com/example/formbuilder/internal/core/fieldtype"
)

// NormalizeForm builds the editable model from a form node and its loaded subtree.
// It returns nil for a nil node and never fails: unknown node types are kept as-is.
//
// Steps are the fmdb:fieldset children of the form itself followed by the
// fmdb:fieldset children of every child named "fieldsets". FieldsetsPath records
// where new steps go: the first such container, else the form when it holds steps
// directly, else empty.
func NormalizeForm(node *Node, registry *fieldtype.Registry) *Form {
	if node == nil {
		return nil
	}

	intro, _ := node.firstString(PropIntro)
	title, _ := node.firstString(PropTitle)
	if title == "" {
		title = node.DisplayName
	}
	if title == "" {
		title = node.Name
	}

	var direct, contained []*Node
	fieldsetsPath := ""
	for _, child := range node.Children {
		if child == nil {
			continue
		}
		switch {
		case child.NodeType == NodeTypeFieldset:
			direct = append(direct, child)
		case child.Name == FieldsetsContainerName:
			if fieldsetsPath == "" {
				fieldsetsPath = child.Path
			}
			for _, grandchild := range child.Children {
				if grandchild != nil && grandchild.NodeType == NodeTypeFieldset {
					contained = append(contained, grandchild)
				}
			}
		}
	}
	if fieldsetsPath == "" && len(direct) > 0 {
		fieldsetsPath = node.Path
	}

	steps := make([]Step, 0, len(direct)+len(contained))
	for _, s := range direct {
		steps = append(steps, NormalizeStep(s, registry))
	}
	for _, s := range contained {
		steps = append(steps, NormalizeStep(s, registry))
	}

	return &Form{
		ID:            node.ID,
		Name:          node.Name,
		Path:          node.Path,
		Label:         title,
		Intro:         intro,
		FieldsetsPath: fieldsetsPath,
		Steps:         steps,
	}
}

// NormalizeStep builds a step from a fmdb:fieldset node. A missing description
// normalizes to the empty string.
func NormalizeStep(node *Node, registry *fieldtype.Registry) Step {
	description, _ := node.firstString(PropDescription)
	label := node.DisplayName
	if label == "" {
		label = node.Name
	}

	return Step{
		ID:          node.ID,
		Name:        node.Name,
		InitialName: node.Name,
		Path:        node.Path,
		Label:       label,
		Description: &description,
		Fields:      normalizeChildren(node.Children, registry),
	}
}

// NormalizeField builds a field from a node, resolving its type through the
// registry and coercing every raw property into its in-memory shape.
func NormalizeField(node *Node, registry *fieldtype.Registry) Field {
	typeID := node.NodeType
	if d, ok := registry.LookupByNodeType(node.NodeType); ok {
		typeID = d.ID
	}

	props := make(map[string]any, len(node.Properties)+1)
	for _, p := range node.Properties {
		if v, ok := normalizeProperty(p); ok {
			props[p.Name] = v
		}
	}

	title, _ := props[PropTitle].(string)
	if title == "" {
		title = node.DisplayName
	}
	if title == "" {
		title = node.Name
	}
	if title != "" {
		props[PropTitle] = title
	}

	return Field{
		ID:          node.ID,
		Name:        node.Name,
		InitialName: node.Name,
		Path:        node.Path,
		Label:       title,
		Type:        typeID,
		NodeType:    node.NodeType,
		Properties:  props,
		Fields:      normalizeChildren(node.Children, registry),
	}
}

func normalizeChildren(children []*Node, registry *fieldtype.Registry) []Field {
	fields := make([]Field, 0, len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		fields = append(fields, NormalizeField(child, registry))
	}
	return fields
}

// normalizeProperty coerces one raw property. The boolean result is false when the
// property carries no value and should be left out of the bag.
func normalizeProperty(p NodeProperty) (any, bool) {
	if p.Name == PropOptions {
		return normalizeOptions(p), true
	}

	if p.Multiple() {
		if p.Type == "BOOLEAN" {
			out := make([]bool, len(p.Values))
			for i, v := range p.Values {
				out[i] = ParseBool(v)
			}
			return out, true
		}
		out := make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			if v == nil {
				continue
			}
			out = append(out, stringify(v))
		}
		return out, true
	}

	if p.Type == "BOOLEAN" {
		return ParseBool(p.Value), true
	}
	if p.Value == nil {
		return nil, false
	}
	return p.Value, true
}

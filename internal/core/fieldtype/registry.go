// Package fieldtype provides the static catalog of form field types.
//
// The catalog is loaded once from an embedded YAML document, validated against an
// embedded CUE schema, and is read-only afterwards. It drives both normalization of
// repository nodes (lookup by node type) and the editor side (lookup by type id).
package fieldtype

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

//go:embed catalog.cue
var catalogSchema string

// ErrUnknownFieldType is returned when a template is requested for an unregistered type id.
var ErrUnknownFieldType = errors.New("unknown field type")

// Choice is one selectable value of a select property.
type Choice struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// PropertyDescriptor describes one editable property of a field type.
type PropertyDescriptor struct {
	Name         string       `yaml:"name" json:"name"`
	Kind         PropertyKind `yaml:"kind" json:"kind"`
	Label        string       `yaml:"label" json:"label"`
	Options      []Choice     `yaml:"options,omitempty" json:"options,omitempty"`
	DefaultValue any          `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
}

// Descriptor is the schema of one field type.
type Descriptor struct {
	ID                string               `yaml:"id" json:"id"`
	NodeType          string               `yaml:"nodeType" json:"nodeType"`
	Label             string               `yaml:"label" json:"label"`
	AllowedParents    []string             `yaml:"allowedParents,omitempty" json:"allowedParents,omitempty"`
	DefaultProperties map[string]any       `yaml:"defaultProperties" json:"defaultProperties"`
	PropertySchema    []PropertyDescriptor `yaml:"propertySchema" json:"propertySchema"`
}

// Template is a fresh, not yet persisted field built from a descriptor's defaults.
type Template struct {
	ID         string
	Name       string
	Label      string
	Type       string
	NodeType   string
	Properties map[string]any
}

// Registry holds field type descriptors. It is populated once by Load and is safe
// for concurrent read access.
type Registry struct {
	types      []*Descriptor
	byID       map[string]*Descriptor
	byNodeType map[string]*Descriptor
}

type catalogDocument struct {
	Types []*Descriptor `yaml:"types"`
}

var (
	defaultRegistry *Registry
	defaultErr      error
	defaultOnce     sync.Once
)

// Default returns the registry built from the embedded catalog.
// It panics if the embedded catalog is invalid, which can only happen at build time.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(catalogYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded field type catalog: %v", defaultErr))
	}
	return defaultRegistry
}

// Load parses and validates a YAML catalog document.
func Load(data []byte) (*Registry, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse field type catalog: %w", err)
	}

	r := &Registry{
		byID:       make(map[string]*Descriptor, len(doc.Types)),
		byNodeType: make(map[string]*Descriptor, len(doc.Types)),
	}
	for _, d := range doc.Types {
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate field type id %q", d.ID)
		}
		if _, dup := r.byNodeType[d.NodeType]; dup {
			return nil, fmt.Errorf("duplicate field node type %q", d.NodeType)
		}
		d.DefaultProperties = normalizeDefaults(d.DefaultProperties)
		r.types = append(r.types, d)
		r.byID[d.ID] = d
		r.byNodeType[d.NodeType] = d
	}
	return r, nil
}

// validate checks the raw document against the #Catalog definition of catalog.cue.
func validate(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse field type catalog: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(catalogSchema, cue.Filename("catalog.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile catalog schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(ctx.Encode(raw))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid field type catalog: %w", err)
	}
	return nil
}

// LookupByTypeID returns the descriptor registered under an editor type id.
func (r *Registry) LookupByTypeID(id string) (*Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// LookupByNodeType returns the descriptor stored as the given repository node type.
func (r *Registry) LookupByNodeType(nodeType string) (*Descriptor, bool) {
	d, ok := r.byNodeType[nodeType]
	return d, ok
}

// Resolve accepts either a type id or a repository node type.
// The type id is tried first.
func (r *Registry) Resolve(identifier string) (*Descriptor, bool) {
	if d, ok := r.LookupByTypeID(identifier); ok {
		return d, true
	}
	return r.LookupByNodeType(identifier)
}

// Types returns all descriptors in catalog order.
func (r *Registry) Types() []*Descriptor {
	return r.types
}

// BuildTemplate creates a new field of the given type with a temporary id and
// a copy of the type's default properties.
func (r *Registry) BuildTemplate(typeID, label string) (Template, error) {
	d, ok := r.LookupByTypeID(typeID)
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownFieldType, typeID)
	}

	props := make(map[string]any, len(d.DefaultProperties))
	for name, value := range d.DefaultProperties {
		props[name] = CloneValue(value)
	}

	return Template{
		ID:         "temp-" + uuid.NewString(),
		Name:       "",
		Label:      label,
		Type:       d.ID,
		NodeType:   d.NodeType,
		Properties: props,
	}, nil
}

// CanNestUnder reports whether a field of childTypeID may be created inside a
// field of parentTypeID. Types without allowed parents can go anywhere.
func (r *Registry) CanNestUnder(childTypeID, parentTypeID string) bool {
	d, ok := r.LookupByTypeID(childTypeID)
	if !ok {
		return false
	}
	if len(d.AllowedParents) == 0 {
		return true
	}
	for _, allowed := range d.AllowedParents {
		if allowed == parentTypeID {
			return true
		}
	}
	return false
}

// PropertyNames returns the set of schema property names of d.
// A nil descriptor yields an empty set.
func PropertyNames(d *Descriptor) map[string]struct{} {
	names := make(map[string]struct{})
	if d == nil {
		return names
	}
	for _, p := range d.PropertySchema {
		if p.Name != "" {
			names[p.Name] = struct{}{}
		}
	}
	return names
}

// Property returns the schema entry named name.
func (d *Descriptor) Property(name string) (PropertyDescriptor, bool) {
	for _, p := range d.PropertySchema {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// normalizeDefaults turns YAML string sequences into []string so defaults carry the
// same Go types as normalized repository properties. Option lists stay []any.
func normalizeDefaults(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for name, value := range in {
		list, ok := value.([]any)
		if !ok || name == "options" {
			out[name] = value
			continue
		}
		strs := make([]string, 0, len(list))
		for _, item := range list {
			strs = append(strs, fmt.Sprint(item))
		}
		out[name] = strs
	}
	return out
}

// CloneValue deep-copies slices and maps of a property value.
func CloneValue(v any) any {
	switch typed := v.(type) {
	case []string:
		return append([]string{}, typed...)
	case []bool:
		return append([]bool{}, typed...)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Package effects defines effect types as data structures representing repository writes.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// WriteType is the wire type of a property write.
type WriteType string

const (
	WriteString  WriteType = "STRING"
	WriteBoolean WriteType = "BOOLEAN"
)

// PropertyWrite is one property assignment in a batch sent to the content repository.
// Multi-valued writes carry Values and set Multiple; single-valued writes carry Value.
// Language is empty for language-neutral writes (booleans).
type PropertyWrite struct {
	Name     string
	Value    string
	Values   []string
	Multiple bool
	Language string
	Type     WriteType
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// SetPropertiesEffect replaces the listed properties of one node in a single batch.
type SetPropertiesEffect struct {
	Entity     string // "form", "step" or "field"
	EntityID   string
	PathOrID   string
	Properties []PropertyWrite
}

func (e SetPropertiesEffect) EffectType() string { return "set_properties" }

// RenameNodeEffect renames a node in place.
type RenameNodeEffect struct {
	Entity   string
	EntityID string
	PathOrID string
	Name     string
}

func (e RenameNodeEffect) EffectType() string { return "rename_node" }

// AddNodeEffect creates a child node with an initial property batch.
type AddNodeEffect struct {
	ParentPath string
	Name       string
	NodeType   string
	Properties []PropertyWrite
}

func (e AddNodeEffect) EffectType() string { return "add_node" }

// DeleteNodeEffect removes a node and its subtree.
type DeleteNodeEffect struct {
	PathOrID string
}

func (e DeleteNodeEffect) EffectType() string { return "delete_node" }

// ReorderChildrenEffect sets the sibling order of a node's children by name.
type ReorderChildrenEffect struct {
	PathOrID string
	Names    []string
}

func (e ReorderChildrenEffect) EffectType() string { return "reorder_children" }

// CompositeEffect holds multiple effects to be executed in sequence.
// Each effect starts only after the previous one succeeded.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// ConcurrentEffect holds effects with no ordering between them.
// All members are started together and the effect completes when every member settled.
type ConcurrentEffect struct {
	Effects []Effect
}

func (e ConcurrentEffect) EffectType() string { return "concurrent" }

// Count returns the number of repository writes contained in eff, descending into
// composite and concurrent effects. Log effects are not writes.
func Count(eff Effect) int {
	switch typed := eff.(type) {
	case CompositeEffect:
		n := 0
		for _, e := range typed.Effects {
			n += Count(e)
		}
		return n
	case ConcurrentEffect:
		n := 0
		for _, e := range typed.Effects {
			n += Count(e)
		}
		return n
	case LogEffect, nil:
		return 0
	default:
		return 1
	}
}

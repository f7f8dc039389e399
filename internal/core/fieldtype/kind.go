package fieldtype

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PropertyKind classifies how an editable property is presented and stored.
type PropertyKind int

const (
	KindBoolean PropertyKind = iota
	KindText
	KindMultiline
	KindNumber
	KindDate
	KindDateTime
	KindSelect
	KindStringList
)

var kindNames = map[PropertyKind]string{
	KindBoolean:    "boolean",
	KindText:       "text",
	KindMultiline:  "multiline",
	KindNumber:     "number",
	KindDate:       "date",
	KindDateTime:   "datetime",
	KindSelect:     "select",
	KindStringList: "stringList",
}

// String returns the catalog name of the kind.
func (k PropertyKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a catalog name into a PropertyKind.
func ParseKind(s string) (PropertyKind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown property kind %q", s)
}

// UnmarshalYAML decodes a kind from its catalog name.
func (k *PropertyKind) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseKind(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = parsed
	return nil
}

// MarshalText encodes the kind as its catalog name.
func (k PropertyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Textual reports whether values of this kind are free text written per language.
func (k PropertyKind) Textual() bool {
	switch k {
	case KindText, KindMultiline, KindDate, KindDateTime, KindSelect:
		return true
	default:
		return false
	}
}

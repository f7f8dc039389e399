package form

import (
	"sort"
	"strings"

	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/core/fieldtype"
)

// BuildFieldPropertiesInput serializes a field into the property batch that
// replaces its stored properties.
//
// The batch always starts with jcr:title. Other properties are written only when
// their name is in the field type's schema (or is options), in sorted name order.
// Nil values, empty lists and blank strings produce no write.
func BuildFieldPropertiesInput(field Field, language string, registry *fieldtype.Registry) []effects.PropertyWrite {
	title := field.Label
	if title == "" {
		title = field.Name
	}
	writes := []effects.PropertyWrite{
		{Name: PropTitle, Value: title, Language: language, Type: effects.WriteString},
	}

	identifier := field.NodeType
	if identifier == "" {
		identifier = field.Type
	}
	var descriptor *fieldtype.Descriptor
	if d, ok := registry.Resolve(identifier); ok {
		descriptor = d
	}
	allowed := fieldtype.PropertyNames(descriptor)
	allowed[PropTitle] = struct{}{}
	allowed[PropOptions] = struct{}{}

	names := make([]string, 0, len(field.Properties))
	for name := range field.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == PropTitle {
			continue
		}
		if _, ok := allowed[name]; !ok {
			continue
		}
		value := field.Properties[name]
		if value == nil {
			continue
		}

		if name == PropOptions {
			if list, ok := asList(value); ok {
				values := make([]string, 0, len(list))
				for _, entry := range list {
					if encoded, ok := encodeOption(entry); ok {
						values = append(values, encoded)
					}
				}
				if len(values) > 0 {
					writes = append(writes, multiWrite(name, values, language))
				}
				continue
			}
		}

		if list, ok := asList(value); ok {
			if len(list) == 0 {
				continue
			}
			values := make([]string, len(list))
			for i, entry := range list {
				values[i] = stringify(entry)
			}
			writes = append(writes, multiWrite(name, values, language))
			continue
		}

		switch typed := value.(type) {
		case bool:
			writes = append(writes, effects.PropertyWrite{Name: name, Value: stringify(typed), Type: effects.WriteBoolean})
		case string:
			if strings.TrimSpace(typed) == "" {
				continue
			}
			writes = append(writes, effects.PropertyWrite{Name: name, Value: typed, Language: language, Type: effects.WriteString})
		default:
			writes = append(writes, effects.PropertyWrite{Name: name, Value: stringify(typed), Language: language, Type: effects.WriteString})
		}
	}
	return writes
}

// BuildStepPropertiesInput serializes a step. Unlike field text properties, a
// defined but empty description is written, which clears the stored value.
func BuildStepPropertiesInput(step Step, language string) []effects.PropertyWrite {
	writes := []effects.PropertyWrite{
		{Name: PropTitle, Value: step.Label, Language: language, Type: effects.WriteString},
	}
	if step.Description != nil {
		writes = append(writes, effects.PropertyWrite{
			Name: PropDescription, Value: *step.Description, Language: language, Type: effects.WriteString,
		})
	}
	return writes
}

// BuildFormMetadataInput serializes the form's title and intro.
func BuildFormMetadataInput(f Form, language string) []effects.PropertyWrite {
	return []effects.PropertyWrite{
		{Name: PropTitle, Value: f.Label, Language: language, Type: effects.WriteString},
		{Name: PropIntro, Value: f.Intro, Language: language, Type: effects.WriteString},
	}
}

func multiWrite(name string, values []string, language string) effects.PropertyWrite {
	return effects.PropertyWrite{
		Name:     name,
		Values:   values,
		Multiple: true,
		Language: language,
		Type:     effects.WriteString,
	}
}

// asList reports whether v is one of the list shapes a property bag may hold.
func asList(v any) ([]any, bool) {
	switch typed := v.(type) {
	case []any:
		return typed, true
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out, true
	case []bool:
		out := make([]any, len(typed))
		for i, b := range typed {
			out[i] = b
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(typed))
		for i, m := range typed {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

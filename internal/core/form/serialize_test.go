package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/core/fieldtype"
)

func writeNames(writes []effects.PropertyWrite) []string {
	names := make([]string, len(writes))
	for i, w := range writes {
		names[i] = w.Name
	}
	return names
}

func TestBuildFieldPropertiesInput_AllowListAndSkips(t *testing.T) {
	field := Field{
		Name:     "first-name",
		Label:    "First name",
		Type:     "inputText",
		NodeType: "fmdb:inputText",
		Properties: map[string]any{
			PropTitle:      "stale title",
			"foo":          "bar",
			"required":     false,
			"placeholder":  "",
			"defaultValue": "   ",
			"list":         []string{},
			"minLength":    3,
			"maxLength":    nil,
		},
	}

	writes := BuildFieldPropertiesInput(field, "fr", fieldtype.Default())

	assert.Equal(t, []string{PropTitle, "minLength", "required"}, writeNames(writes))
	assert.Equal(t, effects.PropertyWrite{Name: PropTitle, Value: "First name", Language: "fr", Type: effects.WriteString}, writes[0])
	assert.Equal(t, effects.PropertyWrite{Name: "minLength", Value: "3", Language: "fr", Type: effects.WriteString}, writes[1])
	assert.Equal(t, effects.PropertyWrite{Name: "required", Value: "false", Type: effects.WriteBoolean}, writes[2])
	for _, w := range writes {
		assert.NotEqual(t, "foo", w.Name)
	}
}

func TestBuildFieldPropertiesInput_TitleFallsBackToName(t *testing.T) {
	writes := BuildFieldPropertiesInput(Field{Name: "raw", NodeType: "fmdb:inputText"}, "en", fieldtype.Default())
	require.Len(t, writes, 1)
	assert.Equal(t, "raw", writes[0].Value)

	writes = BuildFieldPropertiesInput(Field{NodeType: "fmdb:inputText"}, "en", fieldtype.Default())
	assert.Equal(t, "", writes[0].Value)
}

func TestBuildFieldPropertiesInput_StringList(t *testing.T) {
	field := Field{
		Label:      "Email",
		Type:       "inputEmail",
		Properties: map[string]any{"list": []string{"a@example.com", "b@example.com"}},
	}

	writes := BuildFieldPropertiesInput(field, "en", fieldtype.Default())
	require.Len(t, writes, 2)
	assert.Equal(t, effects.PropertyWrite{
		Name:     "list",
		Values:   []string{"a@example.com", "b@example.com"},
		Multiple: true,
		Language: "en",
		Type:     effects.WriteString,
	}, writes[1])
}

func TestBuildFieldPropertiesInput_OptionsRoundTrip(t *testing.T) {
	registry := fieldtype.Default()
	field := Field{
		Label:    "Country",
		Type:     "select",
		NodeType: "fmdb:select",
		Properties: map[string]any{
			PropOptions: []any{map[string]any{"label": "A", "value": "a", "selected": false}},
		},
	}

	writes := BuildFieldPropertiesInput(field, "en", registry)
	require.Len(t, writes, 2)
	options := writes[1]
	assert.Equal(t, PropOptions, options.Name)
	assert.True(t, options.Multiple)
	require.Len(t, options.Values, 1)
	assert.JSONEq(t, `{"label":"A","value":"a","selected":false}`, options.Values[0])

	values := make([]any, len(options.Values))
	for i, v := range options.Values {
		values[i] = v
	}
	node := &Node{Name: "country", NodeType: "fmdb:select", Properties: []NodeProperty{
		{Name: PropOptions, Type: "STRING", Values: values},
	}}
	renormalized := NormalizeField(node, registry)
	assert.Equal(t, []any{map[string]any{"label": "A", "value": "a", "selected": false}}, renormalized.Properties[PropOptions])
}

func TestBuildFieldPropertiesInput_OptionsDropEmpty(t *testing.T) {
	field := Field{
		Label:      "Country",
		Type:       "select",
		Properties: map[string]any{PropOptions: []any{nil, "", false}},
	}

	writes := BuildFieldPropertiesInput(field, "en", fieldtype.Default())
	assert.Equal(t, []string{PropTitle}, writeNames(writes))
}

func TestBuildFieldPropertiesInput_OptionsKeepStringsAndHTML(t *testing.T) {
	field := Field{
		Label: "Country",
		Type:  "select",
		Properties: map[string]any{PropOptions: []any{
			`{"value":"raw"}`,
			map[string]any{"label": "<b>&</b>", "value": "b"},
		}},
	}

	writes := BuildFieldPropertiesInput(field, "en", fieldtype.Default())
	require.Len(t, writes, 2)
	assert.Equal(t, `{"value":"raw"}`, writes[1].Values[0])
	assert.Equal(t, `{"label":"<b>&</b>","value":"b"}`, writes[1].Values[1])
}

func TestBuildFieldPropertiesInput_UnknownTypeWritesOnlyMandatory(t *testing.T) {
	field := Field{
		Label:    "Legacy",
		Type:     "jnt:bigText",
		NodeType: "jnt:bigText",
		Properties: map[string]any{
			"text":      "hello",
			PropOptions: []any{map[string]any{"value": "x"}},
		},
	}

	writes := BuildFieldPropertiesInput(field, "en", fieldtype.Default())
	assert.Equal(t, []string{PropTitle, PropOptions}, writeNames(writes))
}

func TestBuildFieldPropertiesInput_Deterministic(t *testing.T) {
	field := Field{
		Label: "Message",
		Type:  "textarea",
		Properties: map[string]any{
			"rows":        4,
			"resize":      "none",
			"required":    true,
			"placeholder": "Say something",
			"maxLength":   500.0,
		},
	}

	first := BuildFieldPropertiesInput(field, "en", fieldtype.Default())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildFieldPropertiesInput(field, "en", fieldtype.Default()))
	}
	assert.Equal(t, []string{PropTitle, "maxLength", "placeholder", "required", "resize", "rows"}, writeNames(first))
	assert.Equal(t, "500", first[1].Value)
}

func TestBuildStepPropertiesInput(t *testing.T) {
	empty := ""
	writes := BuildStepPropertiesInput(Step{Label: "Step 1", Description: &empty}, "en")
	require.Len(t, writes, 2)
	assert.Equal(t, effects.PropertyWrite{Name: PropDescription, Value: "", Language: "en", Type: effects.WriteString}, writes[1])

	writes = BuildStepPropertiesInput(Step{Label: "Step 1"}, "en")
	assert.Equal(t, []string{PropTitle}, writeNames(writes))
	assert.Equal(t, "Step 1", writes[0].Value)
}

func TestBuildFormMetadataInput(t *testing.T) {
	writes := BuildFormMetadataInput(Form{Label: "Contact"}, "de")
	assert.Equal(t, []effects.PropertyWrite{
		{Name: PropTitle, Value: "Contact", Language: "de", Type: effects.WriteString},
		{Name: PropIntro, Value: "", Language: "de", Type: effects.WriteString},
	}, writes)
}

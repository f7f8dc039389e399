package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroupOption(t *testing.T) {
	label, props := NewGroupOption(2)

	assert.Equal(t, "Option 3", label)
	assert.Equal(t, map[string]any{"value": "option-3", "defaultChecked": false}, props)
}

func TestAppendSelectOption(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	props := map[string]any{
		"required": true,
		"options":  []any{map[string]any{"label": "A", "value": "a", "selected": false}},
	}

	next := AppendSelectOption(props, now)

	options, ok := next["options"].([]any)
	require.True(t, ok)
	require.Len(t, options, 2)
	assert.Equal(t, map[string]any{"label": "Option 2", "value": "option-1700000000000", "selected": false}, options[1])
	assert.Equal(t, true, next["required"])
	assert.Len(t, props["options"], 1, "input bag is not modified")
}

func TestAppendSelectOption_NoOptionsYet(t *testing.T) {
	next := AppendSelectOption(map[string]any{}, time.UnixMilli(5))

	options := next["options"].([]any)
	require.Len(t, options, 1)
	assert.Equal(t, "Option 1", options[0].(map[string]any)["label"])
}

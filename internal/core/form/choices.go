package form

import (
	"fmt"
	"strconv"
	"time"
)

// NewSelectOption returns the option appended to a select field that already
// has count options.
func NewSelectOption(count int, now time.Time) map[string]any {
	return map[string]any{
		"label":    fmt.Sprintf("Option %d", count+1),
		"value":    "option-" + strconv.FormatInt(now.UnixMilli(), 10),
		"selected": false,
	}
}

// NewGroupOption returns the label and properties of a new member of a radio or
// checkbox group that already has count members.
func NewGroupOption(count int) (string, map[string]any) {
	n := count + 1
	return fmt.Sprintf("Option %d", n), map[string]any{
		"value":          fmt.Sprintf("option-%d", n),
		"defaultChecked": false,
	}
}

// AppendSelectOption returns a copy of props whose options list has one more entry.
func AppendSelectOption(props map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	existing, _ := asList(props[PropOptions])
	options := make([]any, 0, len(existing)+1)
	options = append(options, existing...)
	options = append(options, NewSelectOption(len(existing), now))
	out[PropOptions] = options
	return out
}

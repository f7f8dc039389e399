package form

import "strings"

const maxSlugLength = 42

// Slugify turns a label into a node name: lower case, every run of characters
// outside [a-z0-9] collapsed to '-', no leading or trailing dashes, at most 42 bytes.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	out := b.String()
	if len(out) > maxSlugLength {
		out = out[:maxSlugLength]
	}
	return out
}

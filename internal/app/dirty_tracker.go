package app

import "sort"

// dirtyTracker records which entities diverged from the last loaded state.
// Marks are idempotent and only a load clears them.
type dirtyTracker struct {
	steps        map[string]struct{}
	fields       map[string]struct{}
	formMetadata bool
}

func newDirtyTracker() dirtyTracker {
	return dirtyTracker{
		steps:  make(map[string]struct{}),
		fields: make(map[string]struct{}),
	}
}

func (d *dirtyTracker) markStep(id string)  { d.steps[id] = struct{}{} }
func (d *dirtyTracker) markField(id string) { d.fields[id] = struct{}{} }
func (d *dirtyTracker) markFormMetadata()   { d.formMetadata = true }

func (d *dirtyTracker) clear() {
	*d = newDirtyTracker()
}

// snapshot returns copies of the dirty sets.
func (d *dirtyTracker) snapshot() (steps, fields map[string]struct{}, formMetadata bool) {
	return copySet(d.steps), copySet(d.fields), d.formMetadata
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

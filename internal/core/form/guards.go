package form

import (
	"errors"
	"fmt"
)

var (
	// ErrNoForm is returned when an operation needs a loaded form.
	ErrNoForm = errors.New("no form loaded")
	// ErrMissingParentPath is returned when a form has no location for its steps.
	ErrMissingParentPath = errors.New("missing parent path for steps")
	ErrStepNotFound      = errors.New("step not found")
	ErrFieldNotFound     = errors.New("field not found")
	// ErrInvalidOrder is returned when a reorder request is not a permutation of the siblings.
	ErrInvalidOrder = errors.New("invalid sibling order")
	// ErrNestingNotAllowed is returned when a field type may not live under the requested parent.
	ErrNestingNotAllowed = errors.New("nesting not allowed")
	ErrEmptyTitle        = errors.New("title is required")
	ErrEmptyName         = errors.New("name must not be empty")
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// SaveContext provides context for the save guard.
type SaveContext struct {
	FormID        string
	Path          string
	FieldsetsPath string
}

// CanSave evaluates whether pending edits of a form can be written.
// Rule: the form must have a location for its steps (the fieldsets container or
// the form itself).
func CanSave(ctx SaveContext) GuardResult {
	if ctx.FieldsetsPath == "" && ctx.Path == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("form %s has no path to write steps under", ctx.FormID),
		}
	}
	return GuardResult{Allowed: true}
}

// NestContext provides context for the nesting guard.
type NestContext struct {
	ChildTypeID    string
	ParentTypeID   string
	AllowedParents []string
}

// CanNest evaluates whether a field of ChildTypeID may be created inside a field of
// ParentTypeID. A child type without allowed parents may go anywhere.
func CanNest(ctx NestContext) GuardResult {
	if len(ctx.AllowedParents) == 0 {
		return GuardResult{Allowed: true}
	}
	for _, p := range ctx.AllowedParents {
		if p == ctx.ParentTypeID {
			return GuardResult{Allowed: true}
		}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("%s fields can only be added to %v, not %s", ctx.ChildTypeID, ctx.AllowedParents, ctx.ParentTypeID),
	}
}

// ValidateOrder evaluates whether ids is a permutation of current.
func ValidateOrder(current, ids []string) GuardResult {
	if len(current) != len(ids) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("expected %d ids, got %d", len(current), len(ids)),
		}
	}
	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = false
	}
	for _, id := range ids {
		seen, ok := known[id]
		if !ok {
			return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown id %s", id)}
		}
		if seen {
			return GuardResult{Allowed: false, Reason: fmt.Sprintf("duplicate id %s", id)}
		}
		known[id] = true
	}
	return GuardResult{Allowed: true}
}

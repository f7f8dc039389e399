// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import (
	"context"
	"os"
)

type editorKey struct{}

// WithEditor returns a context carrying the id of the person or process making edits.
func WithEditor(ctx context.Context, editorID string) context.Context {
	return context.WithValue(ctx, editorKey{}, editorID)
}

// EditorFromContext returns the editor id from context, or empty string if not set.
func EditorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(editorKey{}).(string); ok {
		return v
	}
	return ""
}

// LocalEditor names the editor of a command-line invocation: $FORMBUILDER_EDITOR,
// else $USER, else "cli".
func LocalEditor() string {
	for _, name := range []string{"FORMBUILDER_EDITOR", "USER"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return "cli"
}

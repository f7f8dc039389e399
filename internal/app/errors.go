package app

import (
	"errors"
	"fmt"

	"github.com/example/formbuilder/internal/core/form"
)

var (
	// ErrNoForm is returned by operations that need a loaded form.
	ErrNoForm = form.ErrNoForm
	// ErrSaveInProgress is returned when SaveChanges is called while a save is running.
	ErrSaveInProgress = errors.New("save already in progress")
)

// RepositoryWriteError is a write the content repository rejected.
type RepositoryWriteError struct {
	Op     string
	Target string
	Err    error
}

func (e *RepositoryWriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *RepositoryWriteError) Unwrap() error {
	return e.Err
}

// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor executes effects against a content repository workspace.
// Every successful write is recorded in the change log when one is configured.
type DefaultEffectExecutor struct {
	repo      secondary.ContentRepository
	workspace string
	changes   secondary.ChangeLog
	logger    *slog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor. changes and logger may be nil.
func NewEffectExecutor(repo secondary.ContentRepository, workspace string, changes secondary.ChangeLog, logger *slog.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DefaultEffectExecutor{
		repo:      repo,
		workspace: workspace,
		changes:   changes,
		logger:    logger,
	}
}

// Execute processes a slice of effects, executing each in sequence.
// It stops at the first failure; writes that already succeeded are kept.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return err
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.ConcurrentEffect:
		return e.executeConcurrent(ctx, typed)
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	case effects.SetPropertiesEffect:
		err := e.repo.SetProperties(ctx, e.workspace, typed.PathOrID, toPropertyInputs(typed.Properties))
		return e.finish(ctx, "set", "setProperties", typed.PathOrID, fmt.Sprintf("%s %s: %d properties", typed.Entity, typed.EntityID, len(typed.Properties)), err)
	case effects.RenameNodeEffect:
		err := e.repo.RenameNode(ctx, e.workspace, typed.PathOrID, typed.Name)
		return e.finish(ctx, "rename", "renameNode", typed.PathOrID, typed.Name, err)
	case effects.AddNodeEffect:
		_, err := e.repo.AddNode(ctx, e.workspace, secondary.AddNodeRequest{
			ParentPath: typed.ParentPath,
			Name:       typed.Name,
			NodeType:   typed.NodeType,
			Properties: toPropertyInputs(typed.Properties),
		})
		return e.finish(ctx, "add", "addNode", path.Join(typed.ParentPath, typed.Name), typed.NodeType, err)
	case effects.DeleteNodeEffect:
		err := e.repo.DeleteNode(ctx, e.workspace, typed.PathOrID)
		return e.finish(ctx, "delete", "deleteNode", typed.PathOrID, "", err)
	case effects.ReorderChildrenEffect:
		err := e.repo.ReorderChildren(ctx, e.workspace, typed.PathOrID, typed.Names)
		return e.finish(ctx, "reorder", "reorderChildren", typed.PathOrID, strings.Join(typed.Names, ","), err)
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

// executeConcurrent starts every member at once and waits for all of them.
// A failing member does not cancel the others.
func (e *DefaultEffectExecutor) executeConcurrent(ctx context.Context, eff effects.ConcurrentEffect) error {
	var g errgroup.Group
	for _, member := range eff.Effects {
		g.Go(func() error {
			return e.executeOne(ctx, member)
		})
	}
	return g.Wait()
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	level := slog.LevelInfo
	switch eff.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	attrs := make([]any, 0, len(eff.Fields)*2)
	for k, v := range eff.Fields {
		attrs = append(attrs, k, v)
	}
	e.logger.Log(ctx, level, eff.Message, attrs...)
}

// finish wraps a failed write or records a successful one.
func (e *DefaultEffectExecutor) finish(ctx context.Context, action, op, target, detail string, err error) error {
	if err != nil {
		e.logger.ErrorContext(ctx, "repository write failed", "op", op, "target", target, "error", err)
		return &RepositoryWriteError{Op: op, Target: target, Err: err}
	}
	e.logger.DebugContext(ctx, "repository write", "op", op, "target", target)
	if e.changes == nil {
		return nil
	}
	entry := &secondary.ChangeRecord{
		Workspace: e.workspace,
		Action:    action,
		Target:    target,
		Detail:    detail,
	}
	if err := e.changes.Record(ctx, entry); err != nil {
		e.logger.WarnContext(ctx, "failed to record change", "target", target, "error", err)
	}
	return nil
}

func toPropertyInputs(writes []effects.PropertyWrite) []secondary.PropertyInput {
	out := make([]secondary.PropertyInput, len(writes))
	for i, w := range writes {
		out[i] = secondary.PropertyInput{
			Name:     w.Name,
			Value:    w.Value,
			Values:   w.Values,
			Multiple: w.Multiple,
			Language: w.Language,
			Type:     string(w.Type),
		}
	}
	return out
}

// Ensure DefaultEffectExecutor implements the interface
var _ EffectExecutor = (*DefaultEffectExecutor)(nil)

package app

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/ports/primary"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// FormCatalogService implements the FormCatalog interface.
type FormCatalogService struct {
	repo     secondary.ContentRepository
	registry *fieldtype.Registry
	cfg      config.SessionConfig
	executor EffectExecutor
	changes  secondary.ChangeLog
	logger   *slog.Logger
	now      func() time.Time
}

// NewFormCatalogService creates a new FormCatalogService with injected dependencies.
// It accepts the same options as an editing session.
func NewFormCatalogService(repo secondary.ContentRepository, registry *fieldtype.Registry, cfg config.SessionConfig, opts ...SessionOption) *FormCatalogService {
	cfg = cfg.Normalize()
	o := buildOptions(repo, cfg.Workspace, opts)
	return &FormCatalogService{
		repo:     repo,
		registry: registry,
		cfg:      cfg,
		executor: o.executor,
		changes:  o.changes,
		logger:   o.logger,
		now:      o.now,
	}
}

// ListForms returns the forms below the configured forms path, ordered by path.
func (s *FormCatalogService) ListForms(ctx context.Context) ([]*primary.FormSummary, error) {
	// Depth 2 reaches steps in both layouts without loading fields.
	records, err := s.repo.FindNodes(ctx, secondary.NodeQuery{
		Workspace: s.cfg.Workspace,
		Language:  s.cfg.Language,
		NodeType:  form.NodeTypeForm,
		Paths:     []string{s.cfg.FormsPath},
		Depth:     2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	summaries := make([]*primary.FormSummary, len(records))
	for i, rec := range records {
		summaries[i] = s.recordToSummary(rec)
	}
	return summaries, nil
}

// CreateForm creates an empty form named after its title.
func (s *FormCatalogService) CreateForm(ctx context.Context, req primary.CreateFormRequest) (*primary.CreateFormResponse, error) {
	existing, err := s.ListForms(ctx)
	if err != nil {
		return nil, err
	}
	taken := make([]string, len(existing))
	for i, f := range existing {
		taken[i] = f.Name
	}

	eff, err := form.PlanCreateForm(form.CreateFormInput{
		ParentPath: s.cfg.FormsPath,
		Title:      req.Title,
		Intro:      req.Intro,
		TakenNames: taken,
		Language:   s.cfg.Language,
		Now:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.executor.Execute(ctx, []effects.Effect{eff}); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	formPath := path.Join(eff.ParentPath, eff.Name)
	created, err := s.repo.GetTree(ctx, s.cfg.Workspace, s.cfg.Language, formPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read created form: %w", err)
	}
	s.logger.InfoContext(ctx, "form created", "form", created.ID, "path", formPath)

	return &primary.CreateFormResponse{
		FormID: created.ID,
		Path:   formPath,
	}, nil
}

// DuplicateForm creates a new empty form titled "<title> (copy)" with the same intro.
func (s *FormCatalogService) DuplicateForm(ctx context.Context, pathOrID string) (*primary.CreateFormResponse, error) {
	rec, err := s.repo.GetTree(ctx, s.cfg.Workspace, s.cfg.Language, pathOrID)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	source := form.NormalizeForm(toNode(rec), s.registry)

	return s.CreateForm(ctx, primary.CreateFormRequest{
		Title: source.Label + " (copy)",
		Intro: source.Intro,
	})
}

// DeleteForm deletes a form and everything below it.
func (s *FormCatalogService) DeleteForm(ctx context.Context, pathOrID string) error {
	if err := s.executor.Execute(ctx, []effects.Effect{form.PlanRemove(pathOrID)}); err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	s.logger.InfoContext(ctx, "form deleted", "form", pathOrID)
	return nil
}

// History returns the logged writes at or below a form, newest first.
// Without a change log it returns nothing.
func (s *FormCatalogService) History(ctx context.Context, pathOrID string, limit int) ([]*primary.Change, error) {
	if s.changes == nil {
		return nil, nil
	}
	formPath := pathOrID
	if !strings.HasPrefix(pathOrID, "/") {
		rec, err := s.repo.GetTree(ctx, s.cfg.Workspace, s.cfg.Language, pathOrID)
		if err != nil {
			return nil, fmt.Errorf("failed to get form: %w", err)
		}
		formPath = rec.Path
	}

	records, err := s.changes.List(ctx, secondary.ChangeFilters{
		Workspace: s.cfg.Workspace,
		Subtree:   formPath,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}

	out := make([]*primary.Change, len(records))
	for i, r := range records {
		out[i] = &primary.Change{
			ActorID:   r.ActorID,
			Action:    r.Action,
			Target:    r.Target,
			Detail:    r.Detail,
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

// Helper methods

func (s *FormCatalogService) recordToSummary(rec *secondary.NodeRecord) *primary.FormSummary {
	f := form.NormalizeForm(toNode(rec), s.registry)
	summary := &primary.FormSummary{
		ID:    rec.ID,
		Name:  rec.Name,
		Path:  rec.Path,
		Title: f.Label,
		Intro: f.Intro,
		Steps: len(f.Steps),
	}
	if p, ok := rec.Property(form.PropModified); ok {
		if v, ok := p.Value.(string); ok {
			summary.UpdatedAt = v
		}
	}
	return summary
}

// Ensure FormCatalogService implements the interface
var _ primary.FormCatalog = (*FormCatalogService)(nil)

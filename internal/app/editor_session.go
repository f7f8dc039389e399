package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/core/fieldtype"
	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/ports/primary"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// SessionOption configures an EditorSession or a FormCatalogService.
type SessionOption func(*options)

type options struct {
	logger   *slog.Logger
	executor EffectExecutor
	changes  secondary.ChangeLog
	now      func() time.Time
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(o *options) {
		o.logger = logger
	}
}

// WithExecutor replaces the executor built from the repository.
func WithExecutor(executor EffectExecutor) SessionOption {
	return func(o *options) {
		o.executor = executor
	}
}

// WithClock sets the time source used for generated node names.
func WithClock(now func() time.Time) SessionOption {
	return func(o *options) {
		o.now = now
	}
}

// WithChangeLog records every write in changes.
func WithChangeLog(changes secondary.ChangeLog) SessionOption {
	return func(o *options) {
		o.changes = changes
	}
}

func buildOptions(repo secondary.ContentRepository, workspace string, opts []SessionOption) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.executor == nil {
		o.executor = NewEffectExecutor(repo, workspace, o.changes, o.logger)
	}
	return o
}

// EditorSession implements primary.FormEditor for one form at a time.
//
// Local edits change the in-memory model and mark entities dirty; SaveChanges
// writes them. Structural operations write to the repository right away and then
// reload. Repository calls happen outside the session lock.
type EditorSession struct {
	repo     secondary.ContentRepository
	registry *fieldtype.Registry
	cfg      config.SessionConfig
	executor EffectExecutor
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	formID   string
	language string
	model    *form.Form
	state    primary.SessionState
	saving   bool
	loadSeq  uint64
	dirty    dirtyTracker
}

// NewEditorSession creates an empty session over repo.
func NewEditorSession(repo secondary.ContentRepository, registry *fieldtype.Registry, cfg config.SessionConfig, opts ...SessionOption) *EditorSession {
	cfg = cfg.Normalize()
	o := buildOptions(repo, cfg.Workspace, opts)
	return &EditorSession{
		repo:     repo,
		registry: registry,
		cfg:      cfg,
		executor: o.executor,
		logger:   o.logger,
		now:      o.now,
		language: cfg.Language,
		state:    primary.StateEmpty,
		dirty:    newDirtyTracker(),
	}
}

// Load fetches and normalizes a form, replacing the model and clearing dirty state.
// A load that finishes after a newer one started is discarded.
func (s *EditorSession) Load(ctx context.Context, formID string) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.formID = formID
	language := s.language
	if formID == "" {
		s.model = nil
		s.dirty.clear()
		s.state = primary.StateEmpty
		s.mu.Unlock()
		return nil
	}
	if !s.saving {
		s.state = primary.StateLoading
	}
	s.mu.Unlock()

	model, err := s.fetch(ctx, formID, language)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		s.logger.DebugContext(ctx, "discarding stale load", "form", formID)
		return nil
	}
	if err != nil {
		s.settle()
		return fmt.Errorf("failed to load form %s: %w", formID, err)
	}
	s.model = model
	s.dirty.clear()
	s.settle()
	s.logger.InfoContext(ctx, "form loaded", "form", formID, "language", language, "steps", len(model.Steps))
	return nil
}

// settle picks the resting state after a load. Caller holds mu.
func (s *EditorSession) settle() {
	switch {
	case s.saving:
		s.state = primary.StateSaving
	case s.model == nil:
		s.state = primary.StateEmpty
	default:
		s.state = primary.StateReady
	}
}

func (s *EditorSession) fetch(ctx context.Context, formID, language string) (*form.Form, error) {
	rec, err := s.repo.GetTree(ctx, s.cfg.Workspace, language, formID)
	if err != nil {
		return nil, err
	}
	return form.NormalizeForm(toNode(rec), s.registry), nil
}

// Reload loads the current form again.
func (s *EditorSession) Reload(ctx context.Context) error {
	s.mu.Lock()
	formID := s.formID
	s.mu.Unlock()
	if formID == "" {
		return ErrNoForm
	}
	return s.Load(ctx, formID)
}

// SetLanguage switches the editing language and reloads the current form.
// An empty language selects the configured default.
func (s *EditorSession) SetLanguage(ctx context.Context, language string) error {
	if language == "" {
		language = s.cfg.Language
	}
	s.mu.Lock()
	s.language = language
	formID := s.formID
	s.mu.Unlock()
	if formID == "" {
		return nil
	}
	return s.Load(ctx, formID)
}

// SiteLanguages returns the languages configured on the site, or the current
// language when the site lists none.
func (s *EditorSession) SiteLanguages(ctx context.Context) ([]string, error) {
	langs, err := s.repo.SiteLanguages(ctx, s.cfg.Workspace, s.cfg.SitePath())
	if err != nil {
		return nil, fmt.Errorf("failed to read site languages: %w", err)
	}
	if len(langs) == 0 {
		return []string{s.Language()}, nil
	}
	return langs, nil
}

// UpdateFormState applies a metadata patch and marks the form metadata dirty.
func (s *EditorSession) UpdateFormState(patch form.FormPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ErrNoForm
	}
	next := patch.Apply(*s.model)
	s.model = &next
	s.dirty.markFormMetadata()
	return nil
}

// UpdateStepState applies a patch to one step and marks it dirty.
func (s *EditorSession) UpdateStepState(stepID string, patch form.StepPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ErrNoForm
	}
	_, idx := s.model.FindStep(stepID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", form.ErrStepNotFound, stepID)
	}
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("step %s: %w", stepID, err)
	}
	s.replaceStep(idx, patch.Apply(s.model.Steps[idx]))
	s.dirty.markStep(stepID)
	return nil
}

// UpdateFieldState applies a patch to a field of a step, at any depth, and marks
// the field dirty.
func (s *EditorSession) UpdateFieldState(stepID, fieldID string, patch form.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ErrNoForm
	}
	_, idx := s.model.FindStep(stepID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", form.ErrStepNotFound, stepID)
	}
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("field %s: %w", fieldID, err)
	}
	step := s.model.Steps[idx]
	fields, ok := form.UpdateField(step.Fields, fieldID, patch)
	if !ok {
		return fmt.Errorf("%w: %s", form.ErrFieldNotFound, fieldID)
	}
	step.Fields = fields
	s.replaceStep(idx, step)
	s.dirty.markField(fieldID)
	return nil
}

// replaceStep swaps in a new model whose step idx is step. Caller holds mu.
func (s *EditorSession) replaceStep(idx int, step form.Step) {
	next := *s.model
	next.Steps = make([]form.Step, len(s.model.Steps))
	copy(next.Steps, s.model.Steps)
	next.Steps[idx] = step
	s.model = &next
}

// AddStep creates a step titled "Step N" at the end of the form.
func (s *EditorSession) AddStep(ctx context.Context) error {
	s.mu.Lock()
	if s.model == nil {
		s.mu.Unlock()
		return ErrNoForm
	}
	eff, err := form.PlanAddStep(form.AddStepInput{Form: s.model, Language: s.language, Now: s.now()})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.apply(ctx, "add step", eff)
}

// RemoveStep deletes a step and its fields.
func (s *EditorSession) RemoveStep(ctx context.Context, stepID string) error {
	s.mu.Lock()
	step, err := s.lookupStep(stepID)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.apply(ctx, "remove step", form.PlanRemove(pathOrID(step.Path, step.ID)))
}

// ReorderSteps sets the step order. The model shows the new order immediately and
// goes back to the previous one if the repository rejects it.
func (s *EditorSession) ReorderSteps(ctx context.Context, stepIDs []string) error {
	s.mu.Lock()
	if s.model == nil {
		s.mu.Unlock()
		return ErrNoForm
	}
	if guard := form.ValidateOrder(s.model.StepIDs(), stepIDs); !guard.Allowed {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", form.ErrInvalidOrder, guard.Reason)
	}
	ordered := form.OrderSteps(s.model.Steps, stepIDs)
	names := make([]string, len(ordered))
	for i, step := range ordered {
		names[i] = step.Name
	}
	eff, err := form.PlanReorder(s.model.StepsParentPath(), names)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	previous := s.model
	next := *s.model
	next.Steps = ordered
	s.model = &next
	s.mu.Unlock()

	return s.applyOptimistic(ctx, "reorder steps", eff, previous, &next)
}

// AddField appends a field of typeID to a step, labelled "Field N".
func (s *EditorSession) AddField(ctx context.Context, stepID, typeID string) error {
	s.mu.Lock()
	step, err := s.lookupStep(stepID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	tpl, err := s.registry.BuildTemplate(typeID, fmt.Sprintf("Field %d", len(step.Fields)+1))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	eff, err := form.PlanAddField(form.AddFieldInput{
		ParentPath:   step.Path,
		Template:     tpl,
		SiblingNames: fieldNames(step.Fields),
		Language:     s.language,
		Now:          s.now(),
	}, s.registry)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.apply(ctx, "add field", eff)
}

// AddNestedField adds a field inside another field, such as an option of a
// radio group. The child type must accept the parent's type. Without a parent
// field the field goes at the end of the step, like AddField with a label and
// property overrides.
func (s *EditorSession) AddNestedField(ctx context.Context, req primary.NestedFieldRequest) error {
	s.mu.Lock()
	eff, err := s.planNestedField(req)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	op := "add nested field"
	if req.ParentFieldID == "" {
		op = "add field"
	}
	return s.apply(ctx, op, eff)
}

// planNestedField builds the add effect for req. Caller holds mu.
func (s *EditorSession) planNestedField(req primary.NestedFieldRequest) (effects.AddNodeEffect, error) {
	var (
		parentPath string
		siblings   []form.Field
		label      = req.Label
	)
	if req.ParentFieldID == "" {
		step, err := s.lookupStep(req.StepID)
		if err != nil {
			return effects.AddNodeEffect{}, err
		}
		parentPath, siblings = step.Path, step.Fields
		if label == "" {
			label = fmt.Sprintf("Field %d", len(step.Fields)+1)
		}
	} else {
		parent, err := s.lookupField(req.StepID, req.ParentFieldID)
		if err != nil {
			return effects.AddNodeEffect{}, err
		}
		d, ok := s.registry.LookupByTypeID(req.TypeID)
		if !ok {
			return effects.AddNodeEffect{}, fmt.Errorf("%w: %s", fieldtype.ErrUnknownFieldType, req.TypeID)
		}
		guard := form.CanNest(form.NestContext{ChildTypeID: d.ID, ParentTypeID: parent.Type, AllowedParents: d.AllowedParents})
		if !guard.Allowed {
			return effects.AddNodeEffect{}, fmt.Errorf("%w: %s", form.ErrNestingNotAllowed, guard.Reason)
		}
		parentPath, siblings = parent.Path, parent.Fields
		if label == "" {
			label = fmt.Sprintf("Option %d", len(parent.Fields)+1)
		}
	}

	tpl, err := s.registry.BuildTemplate(req.TypeID, label)
	if err != nil {
		return effects.AddNodeEffect{}, err
	}
	return form.PlanAddField(form.AddFieldInput{
		ParentPath:   parentPath,
		Template:     tpl,
		Overrides:    req.Properties,
		SiblingNames: fieldNames(siblings),
		Language:     s.language,
		Now:          s.now(),
	}, s.registry)
}

// AddOption adds a choice to a field. Select fields get a new entry in their
// options property, which marks them dirty; radio and checkbox groups get a new
// member field written right away.
func (s *EditorSession) AddOption(ctx context.Context, stepID, fieldID string) error {
	s.mu.Lock()
	field, err := s.lookupField(stepID, fieldID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if memberType, ok := s.memberType(field.Type); ok {
		label, props := form.NewGroupOption(len(field.Fields))
		eff, err := s.planNestedField(primary.NestedFieldRequest{
			StepID:        stepID,
			ParentFieldID: fieldID,
			TypeID:        memberType,
			Label:         label,
			Properties:    props,
		})
		s.mu.Unlock()
		if err != nil {
			return err
		}
		return s.apply(ctx, "add option", eff)
	}

	d, ok := s.registry.LookupByTypeID(field.Type)
	_, hasOptions := field.Properties[form.PropOptions]
	if !ok || (d.ID != "select" && !hasOptions) {
		s.mu.Unlock()
		return fmt.Errorf("%w: field %s of type %s has no options", form.ErrNestingNotAllowed, fieldID, field.Type)
	}
	props := form.AppendSelectOption(field.Properties, s.now())
	s.mu.Unlock()
	return s.UpdateFieldState(stepID, fieldID, form.FieldPatch{Properties: props})
}

// memberType returns the type whose fields may only live under groupType.
func (s *EditorSession) memberType(groupType string) (string, bool) {
	for _, d := range s.registry.Types() {
		for _, parent := range d.AllowedParents {
			if parent == groupType {
				return d.ID, true
			}
		}
	}
	return "", false
}

// RemoveField deletes a field and its nested fields.
func (s *EditorSession) RemoveField(ctx context.Context, stepID, fieldID string) error {
	s.mu.Lock()
	field, err := s.lookupField(stepID, fieldID)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.apply(ctx, "remove field", form.PlanRemove(pathOrID(field.Path, field.ID)))
}

// ReorderFields sets the order of sibling fields, optimistically like ReorderSteps.
func (s *EditorSession) ReorderFields(ctx context.Context, req primary.ReorderFieldsRequest) error {
	s.mu.Lock()
	step, err := s.lookupStep(req.StepID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	siblings, parentPath, ok := form.SiblingFields(step, req.ParentFieldID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", form.ErrFieldNotFound, req.ParentFieldID)
	}
	if guard := form.ValidateOrder(form.FieldIDs(siblings), req.FieldIDs); !guard.Allowed {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", form.ErrInvalidOrder, guard.Reason)
	}
	ordered := form.OrderFields(siblings, req.FieldIDs)
	eff, err := form.PlanReorder(parentPath, fieldNames(ordered))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	updated, _ := step.WithSiblingFields(req.ParentFieldID, ordered)
	_, idx := s.model.FindStep(req.StepID)
	previous := s.model
	s.replaceStep(idx, updated)
	next := s.model
	s.mu.Unlock()

	return s.applyOptimistic(ctx, "reorder fields", eff, previous, next)
}

// DuplicateField copies a field, nested fields included, next to the original.
func (s *EditorSession) DuplicateField(ctx context.Context, stepID, fieldID string) error {
	s.mu.Lock()
	step, err := s.lookupStep(stepID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	siblings, ok := form.SiblingsOf(step, fieldID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", form.ErrFieldNotFound, fieldID)
	}
	var original form.Field
	for _, f := range siblings {
		if f.ID == fieldID {
			original = f
		}
	}
	eff, err := form.PlanDuplicateField(form.DuplicateFieldInput{
		Field:        original,
		SiblingNames: fieldNames(siblings),
		Language:     s.language,
	}, s.registry)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.apply(ctx, "duplicate field", eff)
}

// SaveChanges writes every dirty entity, then reloads. Dirty state is cleared
// only by the reload; a failed write leaves it intact for a retry.
func (s *EditorSession) SaveChanges(ctx context.Context) error {
	s.mu.Lock()
	if s.model == nil {
		s.mu.Unlock()
		return ErrNoForm
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	steps, fields, meta := s.dirty.snapshot()
	plan, err := form.PlanSave(form.SaveInput{
		Form:              s.model,
		DirtySteps:        steps,
		DirtyFields:       fields,
		FormMetadataDirty: meta,
		Language:          s.language,
	}, s.registry)
	if err != nil {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "save aborted", "error", err)
		return err
	}
	s.saving = true
	s.state = primary.StateSaving
	formID := s.formID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.settle()
		s.mu.Unlock()
	}()

	s.logger.InfoContext(ctx, "saving form", "form", formID, "writes", plan.WriteCount())
	if err := s.executor.Execute(ctx, plan.Effects()); err != nil {
		return fmt.Errorf("failed to save form %s: %w", formID, err)
	}
	return s.Load(ctx, formID)
}

// apply executes a structural change and reloads the form.
func (s *EditorSession) apply(ctx context.Context, op string, eff effects.Effect) error {
	if err := s.executor.Execute(ctx, []effects.Effect{eff}); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	s.logger.InfoContext(ctx, "structural change", "op", op, "writes", effects.Count(eff))
	return s.Reload(ctx)
}

// applyOptimistic is apply for changes already shown in the model. On failure the
// previous model comes back unless something replaced the optimistic one meanwhile.
func (s *EditorSession) applyOptimistic(ctx context.Context, op string, eff effects.Effect, previous, optimistic *form.Form) error {
	if err := s.executor.Execute(ctx, []effects.Effect{eff}); err != nil {
		s.mu.Lock()
		if s.model == optimistic {
			s.model = previous
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return s.Reload(ctx)
}

// lookupStep returns the step with id. Caller holds mu.
func (s *EditorSession) lookupStep(id string) (*form.Step, error) {
	if s.model == nil {
		return nil, ErrNoForm
	}
	step, _ := s.model.FindStep(id)
	if step == nil {
		return nil, fmt.Errorf("%w: %s", form.ErrStepNotFound, id)
	}
	return step, nil
}

// lookupField returns the field with id inside step stepID. Caller holds mu.
func (s *EditorSession) lookupField(stepID, fieldID string) (*form.Field, error) {
	if _, err := s.lookupStep(stepID); err != nil {
		return nil, err
	}
	owner, field := s.model.FindField(fieldID)
	if field == nil || owner.ID != stepID {
		return nil, fmt.Errorf("%w: %s", form.ErrFieldNotFound, fieldID)
	}
	return field, nil
}

// Form returns a copy of the current model, or nil.
func (s *EditorSession) Form() *form.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Clone()
}

// FormID returns the id of the form the session was last asked to load.
func (s *EditorSession) FormID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formID
}

func (s *EditorSession) State() primary.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *EditorSession) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

func (s *EditorSession) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// DirtySteps returns the ids of edited steps, sorted.
func (s *EditorSession) DirtySteps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.dirty.steps)
}

// DirtyFields returns the ids of edited fields, sorted.
func (s *EditorSession) DirtyFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.dirty.fields)
}

func (s *EditorSession) FormMetadataDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty.formMetadata
}

func fieldNames(fields []form.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func pathOrID(p, id string) string {
	if p != "" {
		return p
	}
	return id
}

// toNode converts a repository record into the normalizer's input.
func toNode(rec *secondary.NodeRecord) *form.Node {
	if rec == nil {
		return nil
	}
	n := &form.Node{
		ID:          rec.ID,
		Name:        rec.Name,
		Path:        rec.Path,
		NodeType:    rec.NodeType,
		DisplayName: rec.DisplayName,
		Properties:  make([]form.NodeProperty, len(rec.Properties)),
	}
	for i, p := range rec.Properties {
		n.Properties[i] = form.NodeProperty{Name: p.Name, Type: p.Type, Value: p.Value, Values: p.Values}
	}
	for _, child := range rec.Children {
		n.Children = append(n.Children, toNode(child))
	}
	return n
}

// Ensure EditorSession implements the interface
var _ primary.FormEditor = (*EditorSession)(nil)

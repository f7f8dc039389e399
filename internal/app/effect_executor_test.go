package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/formbuilder/internal/core/effects"
	"github.com/example/formbuilder/internal/ports/secondary"
)

func TestEffectExecutor_WritesInOrder(t *testing.T) {
	repo := newFakeRepository(formsRoot(contactForm()))
	changes := &fakeChangeLog{}
	exec := NewEffectExecutor(repo, "EDIT", changes, nil)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.CompositeEffect{Effects: []effects.Effect{
			effects.SetPropertiesEffect{Entity: "step", EntityID: "s2", PathOrID: "s2", Properties: []effects.PropertyWrite{
				{Name: "jcr:title", Value: "Details", Language: "en", Type: effects.WriteString},
			}},
			effects.RenameNodeEffect{Entity: "step", EntityID: "s2", PathOrID: "s2", Name: "details"},
		}},
		effects.ReorderChildrenEffect{PathOrID: "/forms/contact/fieldsets", Names: []string{"details", "step-1"}},
	})
	require.NoError(t, err)

	writes := repo.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, []string{"set", "rename", "reorder"}, []string{writes[0].Op, writes[1].Op, writes[2].Op})
	assert.Equal(t, secondary.PropertyInput{Name: "jcr:title", Value: "Details", Language: "en", Type: "STRING"}, writes[0].Props[0])

	require.Len(t, changes.entries, 3)
	assert.Equal(t, "set", changes.entries[0].Action)
	assert.Equal(t, "step s2: 1 properties", changes.entries[0].Detail)
	assert.Equal(t, "details", changes.entries[1].Detail)
	assert.Equal(t, "details,step-1", changes.entries[2].Detail)
}

func TestEffectExecutor_StopsAtFirstFailure(t *testing.T) {
	repo := newFakeRepository(formsRoot(contactForm()))
	repo.FailOn("delete", errors.New("locked"))
	exec := NewEffectExecutor(repo, "EDIT", nil, nil)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.DeleteNodeEffect{PathOrID: "/forms/contact/fieldsets/step-2"},
		effects.ReorderChildrenEffect{PathOrID: "/forms/contact/fieldsets", Names: []string{"step-1"}},
	})

	var writeErr *RepositoryWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "deleteNode", writeErr.Op)
	assert.Equal(t, "/forms/contact/fieldsets/step-2", writeErr.Target)
	assert.EqualError(t, err, "deleteNode /forms/contact/fieldsets/step-2: locked")
	assert.Len(t, repo.Writes(), 1)
}

func TestEffectExecutor_ConcurrentRunsEveryMember(t *testing.T) {
	repo := newFakeRepository(formsRoot(contactForm()))
	repo.FailOn("set", errors.New("conflict"))
	exec := NewEffectExecutor(repo, "EDIT", nil, nil)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.ConcurrentEffect{Effects: []effects.Effect{
			effects.SetPropertiesEffect{PathOrID: "s1"},
			effects.SetPropertiesEffect{PathOrID: "s2"},
			effects.SetPropertiesEffect{PathOrID: "a"},
		}},
	})

	require.Error(t, err)
	assert.Len(t, repo.Writes(), 3)
}

func TestEffectExecutor_AddNodeTarget(t *testing.T) {
	repo := newFakeRepository(formsRoot(contactForm()))
	changes := &fakeChangeLog{}
	exec := NewEffectExecutor(repo, "LIVE", changes, nil)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.AddNodeEffect{ParentPath: "/forms/contact/fieldsets", Name: "step-3", NodeType: "fmdb:fieldset"},
	})
	require.NoError(t, err)

	require.Len(t, changes.entries, 1)
	assert.Equal(t, "/forms/contact/fieldsets/step-3", changes.entries[0].Target)
	assert.Equal(t, "fmdb:fieldset", changes.entries[0].Detail)
	assert.Equal(t, "LIVE", changes.entries[0].Workspace)
}

func TestEffectExecutor_LogEffect(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	exec := NewEffectExecutor(newFakeRepository(), "EDIT", nil, logger)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.LogEffect{Level: "warn", Message: "dirty field no longer in form", Fields: map[string]any{"id": "x1"}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="dirty field no longer in form"`)
	assert.Contains(t, out, "id=x1")
}

type failingChangeLog struct{ fakeChangeLog }

func (f *failingChangeLog) Record(ctx context.Context, entry *secondary.ChangeRecord) error {
	return errors.New("disk full")
}

func TestEffectExecutor_ChangeLogFailureIsNotFatal(t *testing.T) {
	repo := newFakeRepository(formsRoot(contactForm()))
	exec := NewEffectExecutor(repo, "EDIT", &failingChangeLog{}, nil)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.DeleteNodeEffect{PathOrID: "r1"},
	})

	assert.NoError(t, err)
}

type unknownEffect struct{}

func (unknownEffect) EffectType() string { return "unknown" }

func TestEffectExecutor_UnknownEffect(t *testing.T) {
	exec := NewEffectExecutor(newFakeRepository(), "EDIT", nil, nil)

	err := exec.Execute(context.Background(), []effects.Effect{unknownEffect{}})

	assert.EqualError(t, err, "unknown effect type: app.unknownEffect")
}

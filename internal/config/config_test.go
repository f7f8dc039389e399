package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   SessionConfig
		want SessionConfig
	}{
		{
			name: "defaults",
			in:   SessionConfig{},
			want: SessionConfig{Workspace: "EDIT", Language: "en", SiteKey: "default", FormsPath: "/sites/default/contents/forms"},
		},
		{
			name: "live workspace in lower case",
			in:   SessionConfig{Workspace: "live", Language: "fr", SiteKey: "acme"},
			want: SessionConfig{Workspace: "LIVE", Language: "fr", SiteKey: "acme", FormsPath: "/sites/acme/contents/forms"},
		},
		{
			name: "unknown workspace falls back to edit",
			in:   SessionConfig{Workspace: "staging", FormsPath: "/custom"},
			want: SessionConfig{Workspace: "EDIT", Language: "en", SiteKey: "default", FormsPath: "/custom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Repository.Backend)
	assert.NotEmpty(t, cfg.Repository.Path)
	assert.Equal(t, "EDIT", cfg.Session.Workspace)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Session:    SessionConfig{Workspace: "LIVE", Language: "de", SiteKey: "shop"},
		Repository: RepositoryConfig{Backend: "graphql", Endpoint: "http://localhost:8080/modules/graphql"},
		LogLevel:   "debug",
	}
	require.NoError(t, SaveConfig(dir, cfg))

	_, err := os.Stat(filepath.Join(dir, ".formbuilder", "config.yaml"))
	require.NoError(t, err)

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "LIVE", loaded.Session.Workspace)
	assert.Equal(t, "/sites/shop/contents/forms", loaded.Session.FormsPath)
	assert.Equal(t, BackendGraphQL, loaded.Repository.Backend)
	assert.Equal(t, "debug", loaded.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORMBUILDER_LANGUAGE", "it")
	t.Setenv("FORMBUILDER_DB_PATH", filepath.Join(dir, "x.db"))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "it", cfg.Session.Language)
	assert.Equal(t, filepath.Join(dir, "x.db"), cfg.Repository.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("graphql without endpoint", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, SaveConfig(dir, &Config{Repository: RepositoryConfig{Backend: "graphql"}}))
		_, err := LoadConfig(dir)
		assert.ErrorContains(t, err, "requires an endpoint")
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("FORMBUILDER_BACKEND", "mongo")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "unknown repository backend")
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".formbuilder"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".formbuilder", "config.yaml"), []byte("session: [oops"), 0644))
		_, err := LoadConfig(dir)
		assert.ErrorContains(t, err, "failed to parse config")
	})
}

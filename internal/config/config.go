package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Repository backends
const (
	BackendSQLite  = "sqlite"
	BackendGraphQL = "graphql"
)

// Workspaces
const (
	WorkspaceEdit = "EDIT"
	WorkspaceLive = "LIVE"
)

const (
	configDirName  = ".formbuilder"
	configFileName = "config.yaml"
	envPrefix      = "FORMBUILDER_"
)

// SessionConfig is the per-session editing context handed to the editor and the
// form catalog.
type SessionConfig struct {
	Workspace string `yaml:"workspace"`
	Language  string `yaml:"language"`
	SiteKey   string `yaml:"site"`
	FormsPath string `yaml:"forms_path,omitempty"`
}

// Normalize returns a copy with defaults filled in: workspace EDIT (only EDIT and
// LIVE are accepted), language "en", site "default" and forms path
// /sites/<site>/contents/forms.
func (c SessionConfig) Normalize() SessionConfig {
	c.Workspace = strings.ToUpper(strings.TrimSpace(c.Workspace))
	if c.Workspace != WorkspaceLive {
		c.Workspace = WorkspaceEdit
	}
	if c.Language = strings.TrimSpace(c.Language); c.Language == "" {
		c.Language = "en"
	}
	if c.SiteKey = strings.TrimSpace(c.SiteKey); c.SiteKey == "" {
		c.SiteKey = "default"
	}
	if c.FormsPath == "" {
		c.FormsPath = "/sites/" + c.SiteKey + "/contents/forms"
	}
	return c
}

// SitePath returns the repository path of the configured site.
func (c SessionConfig) SitePath() string {
	return "/sites/" + c.SiteKey
}

// RepositoryConfig selects and configures the content repository backend.
type RepositoryConfig struct {
	Backend  string `yaml:"backend"`            // "sqlite" or "graphql"
	Path     string `yaml:"path,omitempty"`     // sqlite database file
	Endpoint string `yaml:"endpoint,omitempty"` // graphql endpoint URL
	Token    string `yaml:"token,omitempty"`    // graphql bearer token
}

// Config represents the formbuilder configuration file.
type Config struct {
	Session    SessionConfig    `yaml:"session"`
	Repository RepositoryConfig `yaml:"repository"`
	LogLevel   string           `yaml:"log_level,omitempty"`
	Listen     string           `yaml:"listen,omitempty"`
}

// Default returns the configuration used when no file exists. Session defaults are
// filled in by SessionConfig.Normalize when the configuration is loaded.
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{Backend: BackendSQLite},
		LogLevel:   "info",
		Listen:     "127.0.0.1:8080",
	}
}

// LoadConfig reads .formbuilder/config.yaml from the specified directory and applies
// FORMBUILDER_* environment overrides. A missing file yields the defaults.
func LoadConfig(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, configDirName, configFileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg, os.LookupEnv)
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes config.yaml to directory
func SaveConfig(dir string, cfg *Config) error {
	cfgDir := filepath.Join(dir, configDirName)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", configDirName, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(cfgDir, configFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultDatabasePath returns the sqlite file used when none is configured.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName, "content.db"), nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	set("WORKSPACE", &cfg.Session.Workspace)
	set("LANGUAGE", &cfg.Session.Language)
	set("SITE", &cfg.Session.SiteKey)
	set("FORMS_PATH", &cfg.Session.FormsPath)
	set("BACKEND", &cfg.Repository.Backend)
	set("DB_PATH", &cfg.Repository.Path)
	set("ENDPOINT", &cfg.Repository.Endpoint)
	set("TOKEN", &cfg.Repository.Token)
	set("LOG_LEVEL", &cfg.LogLevel)
	set("LISTEN", &cfg.Listen)
}

func (c *Config) finish() error {
	c.Session = c.Session.Normalize()

	c.Repository.Backend = strings.ToLower(strings.TrimSpace(c.Repository.Backend))
	switch c.Repository.Backend {
	case "":
		c.Repository.Backend = BackendSQLite
	case BackendSQLite:
	case BackendGraphQL:
		if c.Repository.Endpoint == "" {
			return fmt.Errorf("repository backend %q requires an endpoint", BackendGraphQL)
		}
	default:
		return fmt.Errorf("unknown repository backend %q", c.Repository.Backend)
	}

	if c.Repository.Backend == BackendSQLite && c.Repository.Path == "" {
		path, err := DefaultDatabasePath()
		if err != nil {
			return err
		}
		c.Repository.Path = path
	}
	return nil
}

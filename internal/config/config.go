// Package config reads and writes nflow's two configuration scopes: the
// per-user global file holding credentials, and the per-repository
// project file naming the tickets database.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// FileName is the name of both configuration files.
	FileName = "config.yaml"

	// ProjectDirName is the directory at the repository root holding the
	// project configuration.
	ProjectDirName = ".nflow"

	// DefaultDevBranch is the integration branch work branches start from.
	DefaultDevBranch = "develop"

	// EnvPrefix prefixes environment overrides of global keys.
	EnvPrefix = "NFLOW"
)

// ErrIncomplete is returned by Validate when required keys are missing.
var ErrIncomplete = errors.New("configuration incomplete")

// Global is the per-user configuration.
type Global struct {
	NotionToken string `yaml:"notion_token" mapstructure:"notion_token"`
	GitHubToken string `yaml:"github_token" mapstructure:"github_token"`
	UserID      string `yaml:"user_id,omitempty" mapstructure:"user_id"`     // Notion user assigned on start
	UserName    string `yaml:"user_name,omitempty" mapstructure:"user_name"` // Display name of UserID
}

// Validate reports missing credentials.
func (g *Global) Validate() error {
	var missing []string
	if g.NotionToken == "" {
		missing = append(missing, "notion_token")
	}
	if g.GitHubToken == "" {
		missing = append(missing, "github_token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// Project is the per-repository configuration.
type Project struct {
	Project      string `yaml:"project"`
	DatabaseID   string `yaml:"database_id"`
	TicketPrefix string `yaml:"ticket_prefix,omitempty"`
	DevBranch    string `yaml:"dev_branch,omitempty"`
}

// Validate reports missing required keys.
func (p *Project) Validate() error {
	if p.DatabaseID == "" {
		return fmt.Errorf("%w: missing database_id", ErrIncomplete)
	}
	return nil
}

// GlobalPath returns the global configuration file path:
// $XDG_CONFIG_HOME/nflow/config.yaml, defaulting to ~/.config.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "nflow", FileName), nil
}

// GlobalStore returns the store of the global scope.
func GlobalStore() (*Store[Global], error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return NewStore[Global](path), nil
}

// ProjectPath returns the project configuration path below root.
func ProjectPath(root string) string {
	return filepath.Join(root, ProjectDirName, FileName)
}

// ProjectStore returns the store of the project scope below root.
func ProjectStore(root string) *Store[Project] {
	return NewStore[Project](ProjectPath(root))
}

// LoadGlobal reads the global file and applies environment overrides:
// NFLOW_NOTION_TOKEN, NFLOW_GITHUB_TOKEN (falling back to GITHUB_TOKEN),
// NFLOW_USER_ID and NFLOW_USER_NAME. A missing file is not an error; the
// result then holds only what the environment provides.
func LoadGlobal() (*Global, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadGlobal(path)
}

func loadGlobal(path string) (*Global, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)

	for _, key := range []string{"notion_token", "user_id", "user_name"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	if err := v.BindEnv("github_token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var g Global
	if err := v.Unmarshal(&g); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &g, nil
}

// ReadGlobalFile returns the global scope exactly as stored in store,
// without environment overrides, so that writing it back never persists a
// token that only lives in the environment. A missing file yields an empty
// Global.
func ReadGlobalFile(store *Store[Global]) (*Global, error) {
	g, err := store.Read()
	if err != nil {
		return nil, err
	}
	if g == nil {
		g = &Global{}
	}
	return g, nil
}

// LoadProject reads the project file below root and fills defaults.
// It returns nil, nil when the repository has not been initialized.
func LoadProject(root string) (*Project, error) {
	p, err := ProjectStore(root).Read()
	if err != nil || p == nil {
		return nil, err
	}
	if p.DevBranch == "" {
		p.DevBranch = DefaultDevBranch
	}
	return p, nil
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kayz/facet/internal/facet"
	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	Facets      FacetsConfig      `yaml:"facets"`
	Store       StoreConfig       `yaml:"store,omitempty"`
	PromptBuild PromptBuildConfig `yaml:"promptbuild,omitempty"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// FacetsConfig locates facet files.
type FacetsConfig struct {
	// Roots are searched in order; each holds one directory per facet kind
	// (personas/, policies/, knowledge/, instructions/, ...). Earlier roots win.
	Roots []string `yaml:"roots"`
	// BaseDir anchors relative resource paths. Default: current directory.
	BaseDir string `yaml:"base_dir,omitempty"`
	// ContextMaxChars limits the policy and knowledge blocks.
	ContextMaxChars int `yaml:"context_max_chars"`
}

// StoreConfig configures the optional SQLite facet store, consulted after the
// file roots.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// PromptBuildConfig controls recipe builds and their audit trail.
type PromptBuildConfig struct {
	AuditEnabled       bool   `yaml:"audit_enabled"`
	AuditDir           string `yaml:"audit_dir,omitempty"`
	AuditRetentionDays int    `yaml:"audit_retention_days,omitempty"`
	AuditFilePrefix    string `yaml:"audit_file_prefix,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Facets: FacetsConfig{
			Roots:           []string{".facet"},
			BaseDir:         ".",
			ContextMaxChars: facet.DefaultContextMaxChars,
		},
		PromptBuild: PromptBuildConfig{
			AuditEnabled:       false,
			AuditDir:           ".facet/audit",
			AuditRetentionDays: 7,
			AuditFilePrefix:    "promptbuild",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// CandidateDirs returns the directories searched for facets of kind, in
// priority order.
func (c *Config) CandidateDirs(kind facet.Kind) []string {
	dirs := make([]string, 0, len(c.Facets.Roots))
	for _, root := range c.Facets.Roots {
		dirs = append(dirs, filepath.Join(root, kind.Dir()))
	}
	return dirs
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".facet.yaml")
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads the config at path. A missing file yields the defaults.
// FACET_ROOTS (path-list separated) and FACET_CONTEXT_MAX_CHARS override the
// file.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if roots := strings.TrimSpace(os.Getenv("FACET_ROOTS")); roots != "" {
		c.Facets.Roots = filepath.SplitList(roots)
	}
	if raw := strings.TrimSpace(os.Getenv("FACET_CONTEXT_MAX_CHARS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid FACET_CONTEXT_MAX_CHARS %q", raw)
		}
		c.Facets.ContextMaxChars = n
	}
	return nil
}

// Save writes the config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

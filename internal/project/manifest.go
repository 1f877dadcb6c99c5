package project

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dftemplate/internal/diag"
	"dftemplate/internal/format"
	"dftemplate/internal/lint"
)

// Manifest is a decoded dftemplate.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Knowledge   KnowledgeConfig   `toml:"knowledge"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Workspace   WorkspaceConfig   `toml:"workspace"`
	Format      FormatConfig      `toml:"format"`
}

type KnowledgeConfig struct {
	// Tables is a directory relative to the manifest.
	Tables string `toml:"tables,omitempty"`
}

type DiagnosticsConfig struct {
	Disable          []string          `toml:"disable,omitempty"`
	Ignore           []string          `toml:"ignore,omitempty"`
	Max              int               `toml:"max,omitempty"`
	MinSeverity      string            `toml:"min_severity,omitempty"`
	WarningsAsErrors bool              `toml:"warnings_as_errors,omitempty"`
	NoSuggestions    bool              `toml:"no_suggestions,omitempty"`
	Severity         map[string]string `toml:"severity,omitempty"`
}

type WorkspaceConfig struct {
	Jobs int `toml:"jobs,omitempty"`
	// Cache defaults to true when absent.
	Cache *bool `toml:"cache,omitempty"`
}

type FormatConfig struct {
	// IndentWidth in spaces; 0 indents actions with a tab.
	IndentWidth   int `toml:"indent_width,omitempty"`
	MaxBlankLines int `toml:"max_blank_lines,omitempty"`
}

// LoadManifest finds and decodes the manifest above start. ok is false when
// there is none.
func LoadManifest(start string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(start)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Diagnostics.Max < 0 {
		return fmt.Errorf("[diagnostics].max must not be negative")
	}
	if c.Workspace.Jobs < 0 {
		return fmt.Errorf("[workspace].jobs must not be negative")
	}
	if c.Format.IndentWidth < 0 || c.Format.MaxBlankLines < 0 {
		return fmt.Errorf("[format] values must not be negative")
	}
	if _, err := c.LintOptions(); err != nil {
		return err
	}
	_, err := c.DiagConfig()
	return err
}

// LintOptions converts [diagnostics] into lint options.
func (c Config) LintOptions() (lint.Options, error) {
	opts := lint.Options{NoSuggestions: c.Diagnostics.NoSuggestions}
	for _, name := range c.Diagnostics.Disable {
		check, err := lint.ParseCheck(name)
		if err != nil {
			return lint.Options{}, fmt.Errorf("[diagnostics].disable: %w", err)
		}
		opts.Disabled = append(opts.Disabled, check)
	}
	return opts, nil
}

// DiagConfig converts [diagnostics] into an output filter.
func (c Config) DiagConfig() (diag.Config, error) {
	cfg := diag.DefaultConfig()
	cfg.WarningsAsErrors = c.Diagnostics.WarningsAsErrors
	if c.Diagnostics.MinSeverity != "" {
		sev, err := diag.ParseSeverity(c.Diagnostics.MinSeverity)
		if err != nil {
			return diag.Config{}, fmt.Errorf("[diagnostics].min_severity: %w", err)
		}
		cfg.MinSeverity = sev
	}
	for _, pattern := range c.Diagnostics.Ignore {
		if _, err := path.Match(pattern, ""); err != nil {
			return diag.Config{}, fmt.Errorf("[diagnostics].ignore: bad pattern %q: %w", pattern, err)
		}
		cfg.Ignore = append(cfg.Ignore, strings.ToUpper(pattern))
	}
	if len(c.Diagnostics.Severity) > 0 {
		cfg.Overrides = make(map[string]diag.Severity, len(c.Diagnostics.Severity))
	}
	for id, value := range c.Diagnostics.Severity {
		code, ok := diag.ParseCode(strings.ToUpper(id))
		if !ok {
			return diag.Config{}, fmt.Errorf("[diagnostics.severity]: unknown code %q", id)
		}
		sev, err := diag.ParseSeverity(value)
		if err != nil {
			return diag.Config{}, fmt.Errorf("[diagnostics.severity].%s: %w", id, err)
		}
		cfg.Overrides[code.ID()] = sev
	}
	return cfg, nil
}

// FormatOptions converts [format] into formatter options.
func (c Config) FormatOptions() format.Options {
	return format.Options{
		IndentWidth:   c.Format.IndentWidth,
		MaxBlankLines: c.Format.MaxBlankLines,
	}
}

// CacheEnabled reports whether [workspace].cache allows the disk cache.
func (c Config) CacheEnabled() bool {
	return c.Workspace.Cache == nil || *c.Workspace.Cache
}

// TablesDir resolves [knowledge].tables against the manifest directory.
// It is empty when no override directory is configured.
func (m *Manifest) TablesDir() string {
	dir := strings.TrimSpace(m.Config.Knowledge.Tables)
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}

// DefaultConfig is written by `dftemplate init`.
func DefaultConfig() Config {
	cache := true
	return Config{
		Diagnostics: DiagnosticsConfig{Max: 200},
		Workspace:   WorkspaceConfig{Cache: &cache},
	}
}

// WriteConfig encodes cfg into dir/dftemplate.toml. An existing manifest is
// never overwritten.
func WriteConfig(dir string, cfg Config) (string, error) {
	target := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%s already exists", target)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("%s: failed to encode TOML: %w", target, err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

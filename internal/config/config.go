// Package config holds the resolver configuration: where documents live,
// how their caches are laid out, and how to invoke the compiler when a
// cache is missing.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name searched in the working directory.
const DefaultFile = ".nbcache.yaml"

// Config holds all nbcache configuration.
type Config struct {
	// Extension of document source files, dot included.
	Extension string `yaml:"extension"`

	// SearchRoot is the directory prefixes resolve against.
	SearchRoot string `yaml:"search_root"`

	// WorkflowsDir is the sibling directory consulted by flexible
	// lookups, relative to SearchRoot.
	WorkflowsDir string `yaml:"workflows_dir"`

	// UnrefPrefix marks chunk names excluded from referencing.
	UnrefPrefix string `yaml:"unref_prefix"`

	// CacheSuffix is appended to a document's base name to form its
	// cache directory.
	CacheSuffix string `yaml:"cache_suffix"`

	// CacheFile is the object database file inside the cache directory.
	CacheFile string `yaml:"cache_file"`

	// ChapterPattern matches the ordering prefix of chaptered book files
	// (e.g. "P3_W04." or "07-") during flexible lookups.
	ChapterPattern string `yaml:"chapter_pattern"`

	Compiler CompilerConfig `yaml:"compiler"`

	Logging LoggingConfig `yaml:"logging"`
}

// CompilerConfig configures the external compile fallback.
type CompilerConfig struct {
	// Command is the compiler program and arguments. An argument
	// containing "{doc}" receives the document path; otherwise the path
	// is appended.
	Command []string `yaml:"command"`

	// Timeout bounds one compilation ("10m" style); empty means none.
	Timeout string `yaml:"timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Extension:      ".Rmd",
		SearchRoot:     ".",
		WorkflowsDir:   "../workflows",
		UnrefPrefix:    "unref-",
		CacheSuffix:    "_cache",
		CacheFile:      "objects.db",
		ChapterPattern: `^[A-Za-z]?[0-9]+([._-][A-Za-z]?[0-9]+)*[._-]`,
	}
}

// Load reads configuration from path, layering it over defaults and then
// applying environment overrides. A missing file is not an error: defaults
// plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers NBCACHE_* environment variables over the file
// values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NBCACHE_EXTENSION"); v != "" {
		c.Extension = v
	}
	if v := os.Getenv("NBCACHE_SEARCH_ROOT"); v != "" {
		c.SearchRoot = v
	}
	if v := os.Getenv("NBCACHE_WORKFLOWS_DIR"); v != "" {
		c.WorkflowsDir = v
	}
	if v := os.Getenv("NBCACHE_COMPILER"); v != "" {
		c.Compiler.Command = strings.Fields(v)
	}
	if v := os.Getenv("NBCACHE_VERBOSE"); v == "1" || strings.EqualFold(v, "true") {
		c.Logging.Verbose = true
	}
}

// Validate checks the invariants the resolver relies on.
func (c *Config) Validate() error {
	if c.Extension == "" || !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension must start with a dot, got %q", c.Extension)
	}
	if c.CacheSuffix == "" {
		return fmt.Errorf("cache_suffix must not be empty")
	}
	if c.CacheFile == "" {
		return fmt.Errorf("cache_file must not be empty")
	}
	if c.UnrefPrefix == "" {
		return fmt.Errorf("unref_prefix must not be empty")
	}
	if _, err := regexp.Compile(c.ChapterPattern); err != nil {
		return fmt.Errorf("invalid chapter_pattern: %w", err)
	}
	if _, err := c.CompileTimeout(); err != nil {
		return err
	}
	return nil
}

// CompileTimeout parses the configured compiler timeout; zero when unset.
func (c *Config) CompileTimeout() (time.Duration, error) {
	if c.Compiler.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Compiler.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid compiler timeout %q: %w", c.Compiler.Timeout, err)
	}
	return d, nil
}

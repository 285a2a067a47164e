// Package config loads and validates the unidocs configuration.
//
// Precedence, lowest to highest: built-in defaults, user config file
// (~/.unidocs/config.yaml), UNIDOCS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete unidocs configuration.
type Config struct {
	Version int         `yaml:"version" json:"version"`
	Paths   PathsConfig `yaml:"paths" json:"paths"`
	Unity   UnityConfig `yaml:"unity" json:"unity"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Fetch   FetchConfig  `yaml:"fetch" json:"fetch"`
	Server  ServerConfig `yaml:"server" json:"server"`
}

// PathsConfig configures where unidocs keeps its data.
type PathsConfig struct {
	// DataDir holds the SQLite database, the Bleve index (if enabled),
	// extracted documentation trees, and logs. Default: ~/.unidocs
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// UnityConfig identifies the documentation corpus.
type UnityConfig struct {
	// DefaultVersion is the documentation release served when a query
	// does not name one (e.g., "6000.1").
	DefaultVersion string `yaml:"default_version" json:"default_version"`

	// DocsURL is the template URL for the offline documentation zip.
	// The placeholder {version} is replaced at fetch time.
	DocsURL string `yaml:"docs_url" json:"docs_url"`

	// PackagesURL is the page listing published package documentation.
	PackagesURL string `yaml:"packages_url" json:"packages_url"`
}

// SearchConfig configures the full-text search layer.
type SearchConfig struct {
	// Backend selects the fulltext index backend.
	// Options: "fts5" (default, shares the document database) or "bleve".
	Backend string `yaml:"backend" json:"backend"`

	// SnippetTokens is the approximate number of tokens of context
	// around a match in generated snippets.
	SnippetTokens int `yaml:"snippet_tokens" json:"snippet_tokens"`

	// MaxResults caps the result count of a single search call.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// FetchConfig configures archive downloading.
type FetchConfig struct {
	// Timeout bounds a single archive download.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Concurrency bounds parallel package downloads.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Unity: UnityConfig{
			DefaultVersion: "6000.1",
			DocsURL:        "https://cloudmedia-docs.unity3d.com/docscloudstorage/en/{version}/UnityDocumentation.zip",
			PackagesURL:    "https://docs.unity3d.com/Manual/pack-safe.html",
		},
		Search: SearchConfig{
			Backend:       "fts5",
			SnippetTokens: 64,
			MaxResults:    50,
		},
		Fetch: FetchConfig{
			Timeout:     5 * time.Minute,
			Concurrency: 2,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// defaultDataDir returns the default data directory (~/.unidocs).
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".unidocs")
	}
	return filepath.Join(home, ".unidocs")
}

// UserConfigPath returns the path of the user configuration file.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "unidocs", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".unidocs", "config.yaml")
	}
	return filepath.Join(home, ".unidocs", "config.yaml")
}

// Load builds the effective configuration: defaults, then the user config
// file if present, then environment overrides, then validation.
func Load() (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(UserConfigPath()); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile merges configuration from a YAML file if it exists.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// No config file is fine - use defaults
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}
	if other.Unity.DefaultVersion != "" {
		c.Unity.DefaultVersion = other.Unity.DefaultVersion
	}
	if other.Unity.DocsURL != "" {
		c.Unity.DocsURL = other.Unity.DocsURL
	}
	if other.Unity.PackagesURL != "" {
		c.Unity.PackagesURL = other.Unity.PackagesURL
	}
	if other.Search.Backend != "" {
		c.Search.Backend = other.Search.Backend
	}
	if other.Search.SnippetTokens != 0 {
		c.Search.SnippetTokens = other.Search.SnippetTokens
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.Concurrency != 0 {
		c.Fetch.Concurrency = other.Fetch.Concurrency
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies UNIDOCS_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("UNIDOCS_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("UNIDOCS_DEFAULT_VERSION"); v != "" {
		c.Unity.DefaultVersion = v
	}
	if v := os.Getenv("UNIDOCS_DOCS_URL"); v != "" {
		c.Unity.DocsURL = v
	}
	if v := os.Getenv("UNIDOCS_SEARCH_BACKEND"); v != "" {
		c.Search.Backend = v
	}
	if v := os.Getenv("UNIDOCS_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("UNIDOCS_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Fetch.Timeout = d
		}
	}
	if v := os.Getenv("UNIDOCS_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the final configuration for consistency.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if c.Unity.DefaultVersion == "" {
		return fmt.Errorf("unity.default_version must not be empty")
	}

	validBackends := map[string]bool{"fts5": true, "bleve": true}
	if !validBackends[strings.ToLower(c.Search.Backend)] {
		return fmt.Errorf("search.backend must be 'fts5' or 'bleve', got %s", c.Search.Backend)
	}

	if c.Search.SnippetTokens <= 0 {
		return fmt.Errorf("search.snippet_tokens must be positive, got %d", c.Search.SnippetTokens)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency)
	}

	validTransports := map[string]bool{"stdio": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// DocsURLFor returns the documentation archive URL for a version.
func (c *Config) DocsURLFor(version string) string {
	return strings.ReplaceAll(c.Unity.DocsURL, "{version}", version)
}

// DatabasePath returns the SQLite database path under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "docs.db")
}

// DocsDir returns the directory where extracted documentation trees live.
func (c *Config) DocsDir() string {
	return filepath.Join(c.Paths.DataDir, "docs")
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configNames are tried in order inside a config directory.
var configNames = []string{"config.json", "config.yaml", "config.yml"}

// Config holds application configuration.
type Config struct {
	// DefaultRadius is the radius given to nodes created without one.
	DefaultRadius float64 `json:"default_radius,omitempty" yaml:"default_radius,omitempty"`

	// HistoryLimit caps undo steps per editing session. Negative means unlimited.
	HistoryLimit int `json:"history_limit,omitempty" yaml:"history_limit,omitempty"`

	// SnapDistance is the move-snapping threshold in screen pixels.
	// Negative disables snapping.
	SnapDistance float64 `json:"snap_distance,omitempty" yaml:"snap_distance,omitempty"`

	MinZoom float64 `json:"min_zoom,omitempty" yaml:"min_zoom,omitempty"`
	MaxZoom float64 `json:"max_zoom,omitempty" yaml:"max_zoom,omitempty"`

	// MaxDocumentNodes is the largest document, in nodes, that can be saved or imported.
	MaxDocumentNodes int `json:"max_document_nodes,omitempty" yaml:"max_document_nodes,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.globs/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// DisabledTypes disables every MCP tool of a type.
	// Known types: "doc", "node", "glob", "history".
	DisabledTypes []string `json:"disabled_types,omitempty" yaml:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultRadius:    25,
		HistoryLimit:     100,
		SnapDistance:     8,
		MinZoom:          0.1,
		MaxZoom:          8,
		MaxDocumentNodes: 5000,
		LogLevel:         "warn",
	}
}

// Validate checks values that Merge cannot repair.
func (c *Config) Validate() error {
	if c.DefaultRadius < 0 {
		return fmt.Errorf("default_radius must not be negative")
	}
	if c.MinZoom <= 0 || c.MaxZoom < c.MinZoom {
		return fmt.Errorf("zoom range [%g, %g] is invalid", c.MinZoom, c.MaxZoom)
	}
	if c.MaxDocumentNodes < 0 {
		return fmt.Errorf("max_document_nodes must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Load loads configuration from baseDir/config.json or baseDir/config.yaml.
// Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.globs.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(findIn(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.globs) and repo (.globs) directories.
// Repo config is found by walking upward from startDir to the nearest .globs/config.*.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(findIn(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .globs/config.*.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		if p := findIn(filepath.Join(dir, ".globs")); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// findIn returns the first config file present in dir, or "".
func findIn(dir string) string {
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch filepath.Ext(configPath) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for non-zero scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		DefaultRadius:    pick(overlay.DefaultRadius, base.DefaultRadius),
		HistoryLimit:     pick(overlay.HistoryLimit, base.HistoryLimit),
		SnapDistance:     pick(overlay.SnapDistance, base.SnapDistance),
		MinZoom:          pick(overlay.MinZoom, base.MinZoom),
		MaxZoom:          pick(overlay.MaxZoom, base.MaxZoom),
		MaxDocumentNodes: pick(overlay.MaxDocumentNodes, base.MaxDocumentNodes),
		LogLevel:         pick(overlay.LogLevel, base.LogLevel),
		DBMaxOpenConns:   pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),

		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,

		AllowedPaths:  mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		DisabledTools: mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes: mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

// pick returns overlay unless it is the zero value.
func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay == zero {
		return base
	}
	return overlay
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

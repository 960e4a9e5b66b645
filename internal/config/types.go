package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nibzard/mapmylife/internal/appdir"
	"github.com/nibzard/mapmylife/internal/duedate"
	"github.com/nibzard/mapmylife/internal/storage"
	"github.com/nibzard/mapmylife/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultStateDir   = "~/" + appdir.Dir
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultBackend    = storage.BackendFile
	DefaultRedisAddr  = "localhost:6379"
	DefaultSortBy     = string(todo.FieldCreatedAt)
	DefaultDateLayout = duedate.DefaultLayout
)

// Config holds the full configuration for mapmylife.
type Config struct {
	// StateDir holds the file backend's data, the sqlite database and logs.
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// ValidateState checks the stored blob against the JSON schema on load.
	ValidateState bool `toml:"validate_state"`

	Storage StorageConfig `toml:"storage"`
	Display DisplayConfig `toml:"display"`

	// Ephemeral forces the memory backend. Flag only.
	Ephemeral bool `toml:"-"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// DisplayConfig controls how the task table is ordered and how dates are shown.
type DisplayConfig struct {
	SortBy     string `toml:"sort_by"`
	SortDesc   bool   `toml:"sort_desc"`
	DateLayout string `toml:"date_layout"`
	Timezone   string `toml:"timezone"`
}

// StorageOptions maps the config onto storage.Options.
func (c *Config) StorageOptions() storage.Options {
	backend := c.Storage.Backend
	if c.Ephemeral {
		backend = storage.BackendMemory
	}
	path := c.Storage.Path
	if path == "" {
		path = appdir.DBPath(c.StateDir)
	}
	return storage.Options{
		Backend:       backend,
		Dir:           c.StateDir,
		Path:          path,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		RedisPrefix:   c.Storage.RedisPrefix,
	}
}

// Location returns the configured timezone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Display.Timezone == "" || strings.EqualFold(c.Display.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Display.Timezone, err)
	}
	return loc, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend != "" && !slices.Contains(storage.Backends(), backend) {
		return fmt.Errorf("unknown storage backend %q (want one of %s)", c.Storage.Backend, strings.Join(storage.Backends(), ", "))
	}
	if _, err := todo.TaskComparator(todo.Field(c.Display.SortBy), c.Display.SortDesc); err != nil {
		return fmt.Errorf("display.sort_by: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	if c.Storage.RedisDB < 0 {
		return fmt.Errorf("storage.redis_db must not be negative")
	}
	return nil
}

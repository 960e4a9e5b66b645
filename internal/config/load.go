package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/nibzard/mapmylife/internal/appdir"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.mapmylife/mapmylife.toml or OS-specific config dir)
// 3. Project config file (mapmylife.toml or .mapmylife.toml in current directory)
// 4. .env file in the current directory
// 5. Environment variables
// 6. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := load(fs, args, false)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Sources maps dotted field names (e.g. "storage.backend") to where they were set.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	return load(fs, args, true)
}

func load(fs *flag.FlagSet, args []string, track bool) (*ConfigWithSources, error) {
	cws := &ConfigWithSources{Config: &Config{}}
	cfg := cws.Config
	if track {
		cws.Sources = make(map[string]ConfigSource)
	}

	// 1. Set defaults
	setDefaults(cfg)
	for _, field := range configFields() {
		cws.mark(field, SourceDefault)
	}

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, cws, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, cws, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	// 4-5. .env then real environment
	dotenv, err := readDotEnv(".env")
	if err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	loadFromEnv(cfg, envLookup(dotenv), cws)

	// 6. CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, cws); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 7. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cws, nil
}

// mark records the source of field when tracking is enabled.
func (cws *ConfigWithSources) mark(field string, source ConfigSource) {
	if cws == nil || cws.Sources == nil {
		return
	}
	cws.Sources[field] = source
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"state_dir",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"validate_state",
		"storage.backend",
		"storage.path",
		"storage.redis_addr",
		"storage.redis_password",
		"storage.redis_db",
		"storage.redis_prefix",
		"display.sort_by",
		"display.sort_desc",
		"display.date_layout",
		"display.timezone",
	}
}

// loadConfigFile decodes a TOML file over cfg. Keys absent from the file keep
// their current values; unknown keys are an error.
func loadConfigFile(cfg *Config, path string, cws *ConfigWithSources, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, field := range configFields() {
		if md.IsDefined(strings.Split(field, ".")...) {
			cws.mark(field, source)
		}
	}
	if cws != nil {
		cws.Files = append(cws.Files, path)
	}
	return nil
}

// readDotEnv parses a .env file. A missing file yields an empty map.
func readDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return vars, err
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	// Determine project root
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}

	cfg.StateDir = absPath(cfg.ProjectRoot, expandPath(cfg.StateDir))
	if cfg.LogDir == "" {
		cfg.LogDir = appdir.LogPath(cfg.StateDir)
	}
	cfg.LogDir = absPath(cfg.ProjectRoot, expandPath(cfg.LogDir))
	if cfg.Storage.Path != "" && cfg.Storage.Path != ":memory:" {
		cfg.Storage.Path = absPath(cfg.ProjectRoot, expandPath(cfg.Storage.Path))
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Display.SortBy == "" {
		cfg.Display.SortBy = DefaultSortBy
	}
	if cfg.Display.DateLayout == "" {
		cfg.Display.DateLayout = DefaultDateLayout
	}
	return cfg.Validate()
}

func absPath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

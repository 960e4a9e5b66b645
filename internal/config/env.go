package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "MAPMYLIFE_"

// lookupFunc reports the value of an environment variable and where it came from.
type lookupFunc func(name string) (string, ConfigSource, bool)

// envLookup resolves names against the process environment first, then the
// parsed .env file. A .env value never overrides a real variable.
func envLookup(dotenv map[string]string) lookupFunc {
	return func(name string) (string, ConfigSource, bool) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v, SourceEnv, true
		}
		if v, ok := dotenv[name]; ok && v != "" {
			return v, SourceDotEnv, true
		}
		return "", "", false
	}
}

type envBinding struct {
	name  string
	field string
	set   func(cfg *Config, v string) bool
}

func envString(dst func(*Config) *string) func(*Config, string) bool {
	return func(cfg *Config, v string) bool {
		*dst(cfg) = v
		return true
	}
}

func envBool(dst func(*Config) *bool) func(*Config, string) bool {
	return func(cfg *Config, v string) bool {
		*dst(cfg) = boolFromString(v)
		return true
	}
}

func envInt(dst func(*Config) *int) func(*Config, string) bool {
	return func(cfg *Config, v string) bool {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		*dst(cfg) = i
		return true
	}
}

func envBindings() []envBinding {
	return []envBinding{
		{"STATE_DIR", "state_dir", envString(func(c *Config) *string { return &c.StateDir })},
		{"LOG_DIR", "log_dir", envString(func(c *Config) *string { return &c.LogDir })},
		{"LOG_LEVEL", "log_level", envString(func(c *Config) *string { return &c.LogLevel })},
		{"LOG_FORMAT", "log_format", envString(func(c *Config) *string { return &c.LogFormat })},
		{"LOG_TIMESTAMPS", "log_timestamps", envBool(func(c *Config) *bool { return &c.LogTimestamps })},
		{"LOG_CALLER", "log_caller", envBool(func(c *Config) *bool { return &c.LogCaller })},
		{"VALIDATE_STATE", "validate_state", envBool(func(c *Config) *bool { return &c.ValidateState })},
		{"STORAGE", "storage.backend", envString(func(c *Config) *string { return &c.Storage.Backend })},
		{"DB_PATH", "storage.path", envString(func(c *Config) *string { return &c.Storage.Path })},
		{"REDIS_ADDR", "storage.redis_addr", envString(func(c *Config) *string { return &c.Storage.RedisAddr })},
		{"REDIS_PASSWORD", "storage.redis_password", envString(func(c *Config) *string { return &c.Storage.RedisPassword })},
		{"REDIS_DB", "storage.redis_db", envInt(func(c *Config) *int { return &c.Storage.RedisDB })},
		{"REDIS_PREFIX", "storage.redis_prefix", envString(func(c *Config) *string { return &c.Storage.RedisPrefix })},
		{"SORT_BY", "display.sort_by", envString(func(c *Config) *string { return &c.Display.SortBy })},
		{"SORT_DESC", "display.sort_desc", envBool(func(c *Config) *bool { return &c.Display.SortDesc })},
		{"DATE_LAYOUT", "display.date_layout", envString(func(c *Config) *string { return &c.Display.DateLayout })},
		{"TZ", "display.timezone", envString(func(c *Config) *string { return &c.Display.Timezone })},
	}
}

// loadFromEnv overrides config from MAPMYLIFE_* variables. Unparseable
// integers are ignored.
func loadFromEnv(cfg *Config, lookup lookupFunc, cws *ConfigWithSources) {
	for _, b := range envBindings() {
		v, source, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		if b.set(cfg, v) {
			cws.mark(b.field, source)
		}
	}
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

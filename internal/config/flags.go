package config

import (
	"flag"
)

// flagBinding applies a parsed flag value to the config.
type flagBinding struct {
	field string
	apply func()
}

type flagBinder struct {
	fs       *flag.FlagSet
	bindings map[string]flagBinding
}

func (b *flagBinder) str(name, field string, dst *string, usage string) {
	v := new(string)
	b.fs.StringVar(v, name, *dst, usage)
	b.bindings[name] = flagBinding{field: field, apply: func() { *dst = *v }}
}

func (b *flagBinder) boolean(name, field string, dst *bool, usage string) {
	v := new(bool)
	b.fs.BoolVar(v, name, *dst, usage)
	b.bindings[name] = flagBinding{field: field, apply: func() { *dst = *v }}
}

func (b *flagBinder) integer(name, field string, dst *int, usage string) {
	v := new(int)
	b.fs.IntVar(v, name, *dst, usage)
	b.bindings[name] = flagBinding{field: field, apply: func() { *dst = *v }}
}

// parseFlags defines the global flags on fs and parses args. Only flags that
// were set on the command line change cfg.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, cws *ConfigWithSources) error {
	if fs == nil {
		fs = flag.NewFlagSet("mapmylife", flag.ContinueOnError)
	}
	b := &flagBinder{fs: fs, bindings: make(map[string]flagBinding)}

	// Paths
	b.str("state-dir", "state_dir", &cfg.StateDir, "State directory (file backend data, sqlite db, logs)")
	b.str("log-dir", "log_dir", &cfg.LogDir, "Log directory")

	// Storage
	b.str("storage", "storage.backend", &cfg.Storage.Backend, "Storage backend (file, sqlite, redis, memory)")
	b.str("db", "storage.path", &cfg.Storage.Path, "SQLite database path")
	b.str("redis-addr", "storage.redis_addr", &cfg.Storage.RedisAddr, "Redis address")
	b.integer("redis-db", "storage.redis_db", &cfg.Storage.RedisDB, "Redis database number")
	b.str("redis-prefix", "storage.redis_prefix", &cfg.Storage.RedisPrefix, "Redis key prefix")
	b.boolean("ephemeral", "ephemeral", &cfg.Ephemeral, "Keep tasks in memory only")
	b.boolean("validate-state", "validate_state", &cfg.ValidateState, "Validate stored state against the schema on load")

	// Display
	b.str("sort-by", "display.sort_by", &cfg.Display.SortBy, "Sort field (createdAt, dueAt, description, complete, id)")
	b.boolean("sort-desc", "display.sort_desc", &cfg.Display.SortDesc, "Sort descending")
	b.str("date-layout", "display.date_layout", &cfg.Display.DateLayout, "Go time layout for absolute due dates")
	b.str("tz", "display.timezone", &cfg.Display.Timezone, "Timezone for due dates (IANA name or local)")

	// Logging
	b.str("log-level", "log_level", &cfg.LogLevel, "Log level (debug, info, warn, error)")
	b.str("log-format", "log_format", &cfg.LogFormat, "Log format (text, json, logfmt)")
	b.boolean("log-timestamps", "log_timestamps", &cfg.LogTimestamps, "Show timestamps in logs")
	b.boolean("log-caller", "log_caller", &cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		binding, ok := b.bindings[f.Name]
		if !ok {
			return
		}
		binding.apply()
		cws.mark(binding.field, SourceFlag)
	})
	return nil
}

package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# mapmylife configuration file
# Values can be overridden by .env, MAPMYLIFE_* environment variables or CLI flags

# State directory (supports ~ and $VAR expansion)
state_dir = "~/.mapmylife"

# Log directory (defaults to <state_dir>/logs)
# log_dir = "~/.mapmylife/logs"

# Logging: debug, info, warn, error / text, json, logfmt
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# Check the stored task blob against the JSON schema on every load
validate_state = true

[storage]
# file, sqlite, redis or memory
backend = "file"

# SQLite database (defaults to <state_dir>/mapmylife.db)
# path = "~/.mapmylife/mapmylife.db"

# redis_addr = "localhost:6379"
# redis_password = ""
# redis_db = 0
# redis_prefix = "mapmylife:"

[display]
# createdAt, dueAt, description, complete or id
sort_by = "createdAt"
sort_desc = false

# Go time layout for the absolute due date shown next to relative dates
date_layout = "2006-01-02 15:04"

# IANA timezone used to interpret due dates without an offset
# timezone = "Europe/Zagreb"
`
}

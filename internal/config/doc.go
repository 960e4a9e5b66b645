// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.mapmylife/mapmylife.toml or OS-specific config directory)
// 3. Project config file (mapmylife.toml or .mapmylife.toml in the working directory)
// 4. A .env file in the working directory
// 5. Environment variables (MAPMYLIFE_*)
// 6. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
// Values from .env never override variables already set in the environment.
//
// User-level config locations:
// - ~/.mapmylife/mapmylife.toml (preferred)
// - Windows: %APPDATA%\mapmylife\mapmylife.toml
// - macOS: ~/Library/Application Support/mapmylife/mapmylife.toml
// - Linux/BSD: $XDG_CONFIG_HOME/mapmylife/mapmylife.toml or ~/.config/mapmylife/mapmylife.toml
package config

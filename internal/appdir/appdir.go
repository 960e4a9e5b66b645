// Package appdir provides constants and utilities for the .mapmylife state directory.
package appdir

import "path/filepath"

const (
	// Dir is the name of the state directory, created under the user's home.
	Dir = ".mapmylife"

	// StorageKey is the fixed key the whole task store is saved under.
	StorageKey = "mapmylife"

	// DefaultConfigFile is the config file name (inside Dir or a project root).
	DefaultConfigFile = "mapmylife.toml"

	// DefaultDBFile is the SQLite database file name used by the sqlite backend.
	DefaultDBFile = "mapmylife.db"

	// LogSubdir holds per-run log files.
	LogSubdir = "logs"
)

// DirPath returns the full path to the state directory within a base directory.
func DirPath(base string) string {
	if base == "." || base == "" {
		return Dir
	}
	return filepath.Join(base, Dir)
}

// ConfigPath returns the config file path within a base directory.
func ConfigPath(base string) string {
	return filepath.Join(DirPath(base), DefaultConfigFile)
}

// DBPath returns the default SQLite path inside a state directory.
func DBPath(stateDir string) string {
	return filepath.Join(stateDir, DefaultDBFile)
}

// LogPath returns the log directory inside a state directory.
func LogPath(stateDir string) string {
	return filepath.Join(stateDir, LogSubdir)
}

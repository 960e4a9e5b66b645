// Package storage provides the key-value facility the task store is persisted in.
//
// Every backend stores opaque byte values under string keys. A Set overwrites
// the previous value in one operation; there are no partial writes.
//
// # Backends
//
//   - "file": one file per key inside a directory (default)
//   - "sqlite": a single kv table in a SQLite database
//   - "redis": plain string keys, optionally prefixed
//   - "memory": process-local map, lost on exit
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrEmptyKey is returned when a key is blank.
var ErrEmptyKey = errors.New("storage key is empty")

// KV is a durable key-value facility.
type KV interface {
	// Get returns the value stored at key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases the backend's resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string

	// Dir is the directory used by the file backend.
	Dir string
	// Path is the database file used by the sqlite backend.
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch normalizeBackend(opts.Backend) {
	case BackendFile:
		return NewFileKV(opts.Dir)
	case BackendSQLite:
		return NewSQLiteKV(ctx, opts.Path)
	case BackendRedis:
		return NewRedisKV(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected file|sqlite|redis|memory)", opts.Backend)
	}
}

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}
}

func normalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return BackendFile
	}
	return name
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}

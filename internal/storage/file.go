package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFileKey is returned by the file backend for keys that are not a
// safe file name. Keys are used as file names unchanged, so two keys never
// share a file.
var ErrInvalidFileKey = errors.New("key is not a valid file name")

// FileKV stores each key as <dir>/<key>.json. Keys may contain only ASCII
// letters, digits, '_', '-' and '.', and may not start with '.'.
type FileKV struct {
	dir string
}

// NewFileKV creates the directory if needed and returns a file backend.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, fmt.Errorf("file storage dir is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Path returns the file that backs key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get reads the file for key. A missing file is an absent key.
func (f *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkFileKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written value.
func (f *FileKV) Set(ctx context.Context, key string, value []byte) error {
	if err := checkFileKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (f *FileKV) Close() error {
	return nil
}

// checkFileKey rejects keys that would escape the storage directory or
// clash with temp files.
func checkFileKey(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidFileKey, key)
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '_' || c == '-' || c == '.'
		if !valid {
			return fmt.Errorf("%w: %q", ErrInvalidFileKey, key)
		}
	}
	return nil
}

package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nibzard/mapmylife/internal/storage"
)

// ErrMalformedState is returned by Load when a stored blob exists but cannot
// be turned into a Store. It is never returned for an absent key.
var ErrMalformedState = errors.New("malformed persisted state")

// StateError reports why a stored blob was rejected.
type StateError struct {
	Key    string
	Errors []error
}

func (e *StateError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s at key %q: %s", ErrMalformedState, e.Key, strings.Join(msgs, "; "))
}

// Unwrap exposes ErrMalformedState and each individual violation.
func (e *StateError) Unwrap() []error {
	return append([]error{ErrMalformedState}, e.Errors...)
}

// Adapter loads and saves a Store as one blob under a fixed key.
type Adapter struct {
	kv       storage.KV
	key      string
	validate bool
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithValidation toggles JSON Schema validation on load (default on).
func WithValidation(enabled bool) AdapterOption {
	return func(a *Adapter) {
		a.validate = enabled
	}
}

// NewAdapter returns an adapter for key in kv.
func NewAdapter(kv storage.KV, key string, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		kv:       kv,
		key:      key,
		validate: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Load reads the stored blob. An absent key yields an empty store; a blob
// that fails to parse or validate yields a *StateError.
func (a *Adapter) Load(ctx context.Context) (*Store, error) {
	data, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if !ok {
		return NewStore(), nil
	}
	return a.decode(data)
}

func (a *Adapter) decode(data []byte) (*Store, error) {
	if a.validate {
		if errs := validateState(data); len(errs) > 0 {
			return nil, &StateError{Key: a.key, Errors: errs}
		}
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &StateError{Key: a.key, Errors: []error{fmt.Errorf("parse state: %w", err)}}
	}
	if s.Tasks == nil {
		s.Tasks = make(map[string]Task)
	}
	if errs := s.checkKeys(); len(errs) > 0 {
		return nil, &StateError{Key: a.key, Errors: errs}
	}
	return &s, nil
}

// Save serializes the full store and overwrites the key.
func (a *Adapter) Save(ctx context.Context, s *Store) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Marshal encodes a store with 2-space indentation and a trailing newline.
func Marshal(s *Store) ([]byte, error) {
	out := s
	if out.Tasks == nil {
		out = NewStore()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return append(data, '\n'), nil
}

// Inspection describes the stored blob without failing on bad data.
type Inspection struct {
	Exists bool
	Bytes  int
	Tasks  int
	Errors []error
}

// Valid reports whether the blob is absent or loads cleanly.
func (i *Inspection) Valid() bool {
	return len(i.Errors) == 0
}

// Inspect reads the key and reports every problem found. Storage errors are
// returned; data problems land in Inspection.Errors.
func (a *Adapter) Inspect(ctx context.Context) (*Inspection, error) {
	data, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	ins := &Inspection{Exists: ok, Bytes: len(data)}
	if !ok {
		return ins, nil
	}
	s, err := a.decode(data)
	if err != nil {
		var se *StateError
		if errors.As(err, &se) {
			ins.Errors = se.Errors
		} else {
			ins.Errors = []error{err}
		}
		return ins, nil
	}
	ins.Tasks = s.Len()
	return ins, nil
}

package todo

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nibzard/mapmylife/internal/storage"
)

func TestLoadAbsentKeyIsEmptyStore(t *testing.T) {
	a := NewAdapter(storage.NewMemoryKV(), "mapmylife")
	s, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Tasks == nil || s.Len() != 0 {
		t.Errorf("Load() = %+v, want empty task mapping", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		store *Store
	}{
		{"empty", NewStore()},
		{"several", sampleStore()},
		{"unicode", &Store{Tasks: map[string]Task{
			"u": {ID: "u", Description: "café ☕ \"quoted\"", CreatedAt: 1714558200000, DueAt: "next friday"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(storage.NewMemoryKV(), "mapmylife")
			if err := a.Save(ctx, tt.store); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := a.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.store) {
				t.Errorf("round trip = %+v, want %+v", got, tt.store)
			}
		})
	}
}

func TestSaveFormat(t *testing.T) {
	kv := storage.NewMemoryKV()
	a := NewAdapter(kv, "mapmylife")
	s := NewStore()
	s.Tasks["a1"] = Task{ID: "a1", Description: "x", CreatedAt: 1}
	if err := a.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	data, ok, err := kv.Get(context.Background(), "mapmylife")
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	content := string(data)
	if !strings.HasSuffix(content, "\n") {
		t.Error("saved state has no trailing newline")
	}
	if !strings.Contains(content, "\n  \"tasks\": {") {
		t.Errorf("saved state not indented with 2 spaces:\n%s", content)
	}
	for _, key := range []string{`"id"`, `"description"`, `"complete"`, `"createdAt"`, `"dueAt"`} {
		if !strings.Contains(content, key) {
			t.Errorf("saved state missing %s:\n%s", key, content)
		}
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantPath string
	}{
		{"not json", `{"tasks":`, ""},
		{"tasks missing", `{}`, ""},
		{"tasks wrong type", `{"tasks": []}`, "tasks"},
		{"createdAt string", `{"tasks":{"a":{"id":"a","description":"x","complete":false,"createdAt":"now"}}}`, "tasks.a.createdAt"},
		{"complete missing", `{"tasks":{"a":{"id":"a","description":"x","createdAt":1}}}`, "tasks.a"},
		{"key mismatch", `{"tasks":{"a":{"id":"b","description":"x","complete":false,"createdAt":1}}}`, "tasks.a.id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			if err := kv.Set(context.Background(), "mapmylife", []byte(tt.data)); err != nil {
				t.Fatal(err)
			}
			_, err := NewAdapter(kv, "mapmylife").Load(context.Background())
			if !errors.Is(err, ErrMalformedState) {
				t.Fatalf("Load() error = %v, want ErrMalformedState", err)
			}
			if tt.wantPath == "" {
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Load() error %v carries no ValidationError", err)
			}
			var se *StateError
			if !errors.As(err, &se) {
				t.Fatalf("Load() error %v is not a StateError", err)
			}
			found := false
			for _, e := range se.Errors {
				if errors.As(e, &ve) && ve.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no violation at %q in %v", tt.wantPath, se.Errors)
			}
		})
	}
}

func TestLoadWithoutValidationStillRejectsKeyMismatch(t *testing.T) {
	kv := storage.NewMemoryKV()
	data := `{"tasks":{"a":{"id":"b","description":"x","complete":false,"createdAt":1}}}`
	if err := kv.Set(context.Background(), "mapmylife", []byte(data)); err != nil {
		t.Fatal(err)
	}
	_, err := NewAdapter(kv, "mapmylife", WithValidation(false)).Load(context.Background())
	if !errors.Is(err, ErrMalformedState) {
		t.Errorf("Load() error = %v, want ErrMalformedState", err)
	}
}

func TestLoadWithoutValidationToleratesMissingTasks(t *testing.T) {
	kv := storage.NewMemoryKV()
	if err := kv.Set(context.Background(), "mapmylife", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	s, err := NewAdapter(kv, "mapmylife", WithValidation(false)).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Tasks == nil {
		t.Error("Tasks is nil, want empty map")
	}
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	a := NewAdapter(kv, "mapmylife")

	ins, err := a.Inspect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ins.Exists || !ins.Valid() {
		t.Errorf("absent key: Exists=%v Valid=%v", ins.Exists, ins.Valid())
	}

	if err := a.Save(ctx, sampleStore()); err != nil {
		t.Fatal(err)
	}
	ins, err = a.Inspect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ins.Exists || !ins.Valid() || ins.Tasks != 3 {
		t.Errorf("saved store: %+v", ins)
	}

	if err := kv.Set(ctx, "mapmylife", []byte(`{"tasks": 3}`)); err != nil {
		t.Fatal(err)
	}
	ins, err = a.Inspect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ins.Valid() {
		t.Error("Inspect() on malformed blob reported valid")
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		ptr  string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"#/tasks", "tasks"},
		{"/tasks/a1/createdAt", "tasks.a1.createdAt"},
		{"/tasks/12/id", "tasks.12.id"},
		{"/tasks/a~1b/id", "tasks.a/b.id"},
	}
	for _, tt := range tests {
		t.Run(tt.ptr, func(t *testing.T) {
			if got := jsonPointerToPath(tt.ptr); got != tt.want {
				t.Errorf("jsonPointerToPath(%q) = %q, want %q", tt.ptr, got, tt.want)
			}
		})
	}
}

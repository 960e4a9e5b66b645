package todo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound is returned when no task has the given id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAmbiguousID is returned when an id prefix matches several tasks.
	ErrAmbiguousID = errors.New("ambiguous task id")
	// ErrUnknownField is returned for field names that cannot be edited or sorted on.
	ErrUnknownField = errors.New("unknown task field")
	// ErrDuplicateID is returned when adding a task whose id is already stored.
	ErrDuplicateID = errors.New("duplicate task id")
)

// Field names a task attribute by its serialized name.
type Field string

const (
	FieldID          Field = "id"
	FieldDescription Field = "description"
	FieldComplete    Field = "complete"
	FieldCreatedAt   Field = "createdAt"
	FieldDueAt       Field = "dueAt"
)

// Editable reports whether the field can be changed after creation.
func (f Field) Editable() bool {
	return f == FieldDescription || f == FieldDueAt
}

// Task is a single to-do item.
type Task struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Complete    bool   `json:"complete" yaml:"complete"`
	CreatedAt   int64  `json:"createdAt" yaml:"createdAt"`
	DueAt       string `json:"dueAt" yaml:"dueAt"`
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return strings.TrimSpace(t.DueAt) != ""
}

// Store maps task id to task. Iteration order carries no meaning.
type Store struct {
	Tasks map[string]Task `json:"tasks"`
}

// NewStore returns a store with an empty task mapping.
func NewStore() *Store {
	return &Store{Tasks: make(map[string]Task)}
}

// NewID returns a fresh opaque task id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.Tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (Task, bool) {
	t, ok := s.Tasks[id]
	return t, ok
}

// Lookup resolves an exact id or a unique id prefix.
func (s *Store) Lookup(ref string) (Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Task{}, fmt.Errorf("%w: empty id", ErrTaskNotFound)
	}
	if t, ok := s.Tasks[ref]; ok {
		return t, nil
	}
	var match Task
	matches := 0
	for id, t := range s.Tasks {
		if strings.HasPrefix(id, ref) {
			match = t
			matches++
		}
	}
	switch matches {
	case 0:
		return Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, ref)
	case 1:
		return match, nil
	default:
		return Task{}, fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguousID, ref, matches)
	}
}

// List returns the tasks in unspecified order.
func (s *Store) List() []Task {
	tasks := make([]Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		tasks = append(tasks, t)
	}
	return tasks
}

// Add inserts a new task. The id must be non-empty and unused.
func (s *Store) Add(t Task) error {
	if t.ID == "" {
		return fmt.Errorf("add task: id is empty")
	}
	if s.Tasks == nil {
		s.Tasks = make(map[string]Task)
	}
	if _, exists := s.Tasks[t.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
	}
	s.Tasks[t.ID] = t
	return nil
}

// Toggle flips the complete flag of the task with id.
func (s *Store) Toggle(id string) error {
	t, ok := s.Tasks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	t.Complete = !t.Complete
	s.Tasks[id] = t
	return nil
}

// Delete removes the task with id. Deleting a missing id is a no-op and
// returns false.
func (s *Store) Delete(id string) bool {
	if _, ok := s.Tasks[id]; !ok {
		return false
	}
	delete(s.Tasks, id)
	return true
}

// SetField writes value into an editable field of the task with id.
func (s *Store) SetField(id string, field Field, value string) error {
	t, ok := s.Tasks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	switch field {
	case FieldDescription:
		t.Description = value
	case FieldDueAt:
		t.DueAt = value
	default:
		return fmt.Errorf("%w: %q is not editable", ErrUnknownField, field)
	}
	s.Tasks[id] = t
	return nil
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{Tasks: make(map[string]Task, len(s.Tasks))}
	for id, t := range s.Tasks {
		c.Tasks[id] = t
	}
	return c
}

// checkKeys verifies that every key matches the id of its task.
func (s *Store) checkKeys() []error {
	var errs []error
	for key, t := range s.Tasks {
		if key != t.ID {
			errs = append(errs, &ValidationError{
				Path: "tasks." + key + ".id",
				Err:  fmt.Errorf("id %q does not match key %q", t.ID, key),
			})
		}
	}
	return errs
}

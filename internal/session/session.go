// Package session runs the load, mutate, persist, re-render loop.
//
// A Session owns the task store for the lifetime of a program run. Every
// command mutates the store, saves it through the persister, and then asks
// the renderer to redraw from the store. A Session is not safe for
// concurrent use; callers deliver gestures one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/mapmylife/internal/duedate"
	"github.com/nibzard/mapmylife/internal/render"
	"github.com/nibzard/mapmylife/internal/todo"
)

// ErrInvalidDueDate is returned when a non-empty due date does not parse.
var ErrInvalidDueDate = errors.New("invalid due date")

// Persister loads and saves the whole store.
type Persister interface {
	Load(ctx context.Context) (*todo.Store, error)
	Save(ctx context.Context, s *todo.Store) error
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) {
		s.newID = newID
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDates sets the due-date parser used for validation.
func WithDates(p *duedate.Parser) Option {
	return func(s *Session) {
		s.dates = p
	}
}

// Session holds the store and the collaborators every command goes through.
type Session struct {
	store     *todo.Store
	persister Persister
	renderer  render.Renderer
	dates     *duedate.Parser
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// New returns a session over an already loaded store.
func New(store *todo.Store, persister Persister, renderer render.Renderer, opts ...Option) *Session {
	if store == nil {
		store = todo.NewStore()
	}
	if renderer == nil {
		renderer = render.Discard
	}
	s := &Session{
		store:     store,
		persister: persister,
		renderer:  renderer,
		dates:     &duedate.Parser{},
		logger:    log.New(io.Discard),
		now:       time.Now,
		newID:     todo.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the store from persister and returns a session over it.
// Malformed persisted state is returned as an error; nothing is saved.
func Open(ctx context.Context, persister Persister, renderer render.Renderer, opts ...Option) (*Session, error) {
	store, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return New(store, persister, renderer, opts...), nil
}

// SetRenderer replaces the renderer. It does not render.
func (s *Session) SetRenderer(r render.Renderer) {
	if r == nil {
		r = render.Discard
	}
	s.renderer = r
}

// Store returns the live store. Callers must not mutate it.
func (s *Session) Store() *todo.Store {
	return s.store
}

// Task returns the task with id.
func (s *Session) Task(id string) (todo.Task, bool) {
	return s.store.Get(id)
}

// Resolve maps an id or unique id prefix to a task id.
func (s *Session) Resolve(ref string) (string, error) {
	t, err := s.store.Lookup(ref)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// Render redraws from the store without changing it.
func (s *Session) Render() {
	s.renderer.Render(s.store)
}

// Cancel discards any uncommitted presentation state by redrawing.
func (s *Session) Cancel() {
	s.logger.Debug("edit cancelled")
	s.Render()
}

// ValidateDue returns the live-validation marker for a due-date input.
func (s *Session) ValidateDue(value string) duedate.Marker {
	return s.dates.Check(value)
}

// AddTask creates a task. The due date is trimmed and a blank one means no
// due date. A non-empty due date must parse, otherwise the store is left
// untouched and ErrInvalidDueDate is returned.
func (s *Session) AddTask(ctx context.Context, description, dueAt string) (todo.Task, error) {
	dueAt = strings.TrimSpace(dueAt)
	if dueAt != "" && !s.dates.Valid(dueAt) {
		s.logger.Debug("add rejected", "due_at", dueAt)
		return todo.Task{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, dueAt)
	}

	t := todo.Task{
		ID:          s.newID(),
		Description: description,
		Complete:    false,
		CreatedAt:   s.now().UnixMilli(),
		DueAt:       dueAt,
	}
	if err := s.store.Add(t); err != nil {
		return todo.Task{}, err
	}
	s.logger.Debug("task added", "task_id", t.ID)
	return t, s.persistAndRender(ctx)
}

// ToggleComplete flips the complete flag of the task with id.
func (s *Session) ToggleComplete(ctx context.Context, id string) error {
	if err := s.store.Toggle(id); err != nil {
		s.Render()
		return err
	}
	t, _ := s.store.Get(id)
	s.logger.Debug("task toggled", "task_id", id, "complete", t.Complete)
	return s.persistAndRender(ctx)
}

// DeleteTask removes the task with id. A missing id changes nothing and is
// not an error; the view is still redrawn.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	if !s.store.Delete(id) {
		s.logger.Debug("delete of missing task", "task_id", id)
		s.Render()
		return nil
	}
	s.logger.Debug("task deleted", "task_id", id)
	return s.persistAndRender(ctx)
}

// CommitField writes an edited value into the store. Due dates are
// validated like AddTask after trimming: a non-empty unparseable value is
// refused with ErrInvalidDueDate and nothing is rendered, so the editor
// stays open.
func (s *Session) CommitField(ctx context.Context, id string, field todo.Field, value string) error {
	if field == todo.FieldDueAt {
		value = strings.TrimSpace(value)
	}
	if field == todo.FieldDueAt && value != "" && !s.dates.Valid(value) {
		s.logger.Debug("edit rejected", "task_id", id, "due_at", value)
		return fmt.Errorf("%w: %q", ErrInvalidDueDate, value)
	}
	if err := s.store.SetField(id, field, value); err != nil {
		s.Render()
		return err
	}
	s.logger.Debug("field committed", "task_id", id, "field", string(field))
	return s.persistAndRender(ctx)
}

// Reload discards the in-memory store, loads it again, and redraws. On
// error the current store is kept.
func (s *Session) Reload(ctx context.Context) error {
	store, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Error("reload failed", "err", err)
		return fmt.Errorf("reload tasks: %w", err)
	}
	s.store = store
	s.logger.Debug("store reloaded", "tasks", store.Len())
	s.Render()
	return nil
}

// persistAndRender saves the store and redraws. The redraw happens even if
// the save fails so the view matches the in-memory store.
func (s *Session) persistAndRender(ctx context.Context) error {
	var err error
	if s.persister != nil {
		if err = s.persister.Save(ctx, s.store); err != nil {
			s.logger.Error("save failed", "err", err)
			err = fmt.Errorf("save tasks: %w", err)
		}
	}
	s.Render()
	return err
}

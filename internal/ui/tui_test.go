package ui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/mapmylife/internal/duedate"
	"github.com/nibzard/mapmylife/internal/render"
	"github.com/nibzard/mapmylife/internal/session"
	"github.com/nibzard/mapmylife/internal/storage"
	"github.com/nibzard/mapmylife/internal/todo"
)

type harness struct {
	model   *Model
	sess    *session.Session
	adapter *todo.Adapter
}

func newHarness(t *testing.T, tasks ...todo.Task) *harness {
	t.Helper()
	ctx := context.Background()
	adapter := todo.NewAdapter(storage.NewMemoryKV(), "mapmylife")
	seed := todo.NewStore()
	for _, task := range tasks {
		seed.Tasks[task.ID] = task
	}
	if err := adapter.Save(ctx, seed); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dates := &duedate.Parser{Location: time.UTC, Now: func() time.Time { return now }}
	seq := 0
	sess, err := session.Open(ctx, adapter, nil,
		session.WithDates(dates),
		session.WithClock(func() time.Time { return now }),
		session.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("new%d", seq)
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(ctx, sess, render.Options{Dates: dates})
	return &harness{model: m, sess: sess, adapter: adapter}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = h.model.Update(keyMsg(k))
	}
	return cmd
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) persisted(t *testing.T) *todo.Store {
	t.Helper()
	s, err := h.adapter.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func twoTasks() []todo.Task {
	return []todo.Task{
		{ID: "first", Description: "Write report", CreatedAt: 100},
		{ID: "second", Description: "Call mom", CreatedAt: 200, DueAt: "2024-05-03 09:00"},
	}
}

func TestInitialRender(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	f := h.model.Frame()
	if len(f.Rows) != 2 || f.Rows[0].TaskID != "first" || f.Rows[1].TaskID != "second" {
		t.Fatalf("rows = %+v", f.Rows)
	}

	view := h.model.View()
	for _, want := range []string{"Task", "Created At", "Due At", "Write report", "Call mom", "2 tasks", "No Due Date"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCursorMovement(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("j")
	if h.model.selectedID() != "second" {
		t.Errorf("after j selected = %q", h.model.selectedID())
	}
	h.press("down")
	if h.model.selectedID() != "second" {
		t.Error("cursor moved past the last row")
	}
	h.press("k", "up")
	if h.model.selectedID() != "first" {
		t.Errorf("after k selected = %q", h.model.selectedID())
	}
}

func TestToggleKey(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("j", " ")

	got, _ := h.persisted(t).Get("second")
	if !got.Complete {
		t.Error("second not complete after toggle")
	}
	if first, _ := h.persisted(t).Get("first"); first.Complete {
		t.Error("first toggled too")
	}
	if !h.model.Frame().Rows[1].Complete {
		t.Error("frame not rebuilt after toggle")
	}
	if !strings.Contains(h.model.View(), "[x]") {
		t.Error("view has no checked box")
	}
}

func TestDeleteKey(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("d")

	if _, ok := h.persisted(t).Get("first"); ok {
		t.Error("first still persisted")
	}
	if len(h.model.Frame().Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(h.model.Frame().Rows))
	}
	if h.model.selectedID() != "second" {
		t.Errorf("selected = %q, want second", h.model.selectedID())
	}
}

func TestDeleteOnEmptyList(t *testing.T) {
	h := newHarness(t)
	h.press("d", " ", "e")
	if h.model.focus != focusList {
		t.Error("focus left the list on an empty store")
	}
}

func TestEditDescriptionCommitOnEnter(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("e")
	if h.model.edit == nil || h.model.edit.input.Value() != "Write report" {
		t.Fatal("editor not opened with the stored value")
	}
	h.typeText("s")
	h.press("enter")

	if h.model.edit != nil {
		t.Error("editor still open after commit")
	}
	got, _ := h.persisted(t).Get("first")
	if got.Description != "Write reports" {
		t.Errorf("Description = %q, want Write reports", got.Description)
	}
}

func TestEditCommitOnFocusLoss(t *testing.T) {
	for _, k := range []string{"tab", "shift+tab", "up", "down"} {
		t.Run(k, func(t *testing.T) {
			h := newHarness(t, twoTasks()...)
			h.press("e")
			h.typeText("!")
			h.press(k)

			got, _ := h.persisted(t).Get("first")
			if got.Description != "Write report!" {
				t.Errorf("Description = %q", got.Description)
			}
			if h.model.focus != focusList {
				t.Error("focus not back on the list")
			}
		})
	}
}

func TestEditCancelLeavesStoreUnchanged(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	before := h.persisted(t)

	h.press("e")
	h.typeText(" and more")
	h.press("esc")

	if h.model.edit != nil {
		t.Error("editor still open after cancel")
	}
	got, _ := h.sess.Task("first")
	if got.Description != "Write report" {
		t.Errorf("Description = %q", got.Description)
	}
	after := h.persisted(t)
	if a, _ := after.Get("first"); a != before.Tasks["first"] {
		t.Error("cancel changed persisted state")
	}
	if h.model.Frame().Rows[0].Description != "Write report" {
		t.Error("frame shows the cancelled value")
	}
}

func TestDueEditInvalidOnEnterKeepsEditor(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("t")
	h.typeText("whenever")
	if h.model.edit.marker != duedate.MarkerInvalid {
		t.Errorf("marker = %v, want invalid", h.model.edit.marker)
	}
	h.press("enter")

	if h.model.edit == nil {
		t.Fatal("editor closed after refused commit")
	}
	if h.model.edit.marker != duedate.MarkerInvalid {
		t.Error("invalid marker cleared")
	}
	got, _ := h.sess.Task("first")
	if got.DueAt != "" {
		t.Errorf("DueAt = %q, want empty", got.DueAt)
	}
}

func TestDueEditInvalidOnBlurIsDiscarded(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("j", "t")
	h.typeText("xyz")
	h.press("tab")

	if h.model.edit != nil {
		t.Error("editor still open")
	}
	got, _ := h.persisted(t).Get("second")
	if got.DueAt != "2024-05-03 09:00" {
		t.Errorf("DueAt = %q, want unchanged", got.DueAt)
	}
	if !strings.Contains(h.model.Status(), "discarded") {
		t.Errorf("status = %q", h.model.Status())
	}
}

func TestDueEditValid(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("t")
	h.typeText("2024-05-10")
	if h.model.edit.marker != duedate.MarkerValid {
		t.Errorf("marker = %v, want valid", h.model.edit.marker)
	}
	h.press("enter")

	got, _ := h.persisted(t).Get("first")
	if got.DueAt != "2024-05-10" {
		t.Errorf("DueAt = %q", got.DueAt)
	}
}

func TestFormAddsTask(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("a")
	h.typeText("Buy milk")
	h.press("enter")

	got, ok := h.persisted(t).Get("new1")
	if !ok {
		t.Fatal("new task not persisted")
	}
	if got.Description != "Buy milk" || got.Complete || got.DueAt != "" {
		t.Errorf("task = %+v", got)
	}
	if h.model.form.description.Value() != "" || h.model.form.due.Value() != "" {
		t.Error("form not cleared after add")
	}
	if h.model.selectedID() != "new1" {
		t.Errorf("selected = %q, want new1", h.model.selectedID())
	}
}

func TestFormRejectsInvalidDue(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("a")
	h.typeText("Dentist")
	h.press("tab")
	h.typeText("soonish")
	if h.model.form.marker != duedate.MarkerInvalid {
		t.Errorf("marker = %v, want invalid", h.model.form.marker)
	}
	h.press("enter")

	if h.sess.Store().Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.sess.Store().Len())
	}
	if h.model.form.description.Value() != "Dentist" || h.model.form.due.Value() != "soonish" {
		t.Error("form input changed after rejected add")
	}
}

func TestFormDueMarkerClearsWhenEmpty(t *testing.T) {
	h := newHarness(t)
	h.press("a", "tab")
	h.typeText("2")
	h.model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if h.model.form.marker != duedate.MarkerNone {
		t.Errorf("marker = %v, want none", h.model.form.marker)
	}
}

func TestFormEscReturnsToList(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	h.press("a", "esc", "j")
	if h.model.focus != focusList || h.model.selectedID() != "second" {
		t.Error("list keys not active after esc")
	}
}

func TestReloadKey(t *testing.T) {
	h := newHarness(t, twoTasks()...)
	external := todo.NewStore()
	external.Tasks["ext"] = todo.Task{ID: "ext", Description: "from elsewhere", CreatedAt: 1}
	if err := h.adapter.Save(context.Background(), external); err != nil {
		t.Fatal(err)
	}
	h.press("r")
	if rows := h.model.Frame().Rows; len(rows) != 1 || rows[0].TaskID != "ext" {
		t.Errorf("rows after reload = %+v", rows)
	}
}

func TestHelpAndQuit(t *testing.T) {
	h := newHarness(t)
	h.press("?")
	if !strings.Contains(h.model.View(), "Keyboard Shortcuts") {
		t.Error("help not shown")
	}
	h.press("?")
	if h.model.showHelp {
		t.Error("help still shown")
	}

	cmd := h.press("q")
	if cmd == nil {
		t.Fatal("q returned nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("buffer reported as TTY")
	}
}

func TestClampCursor(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 0, 0},
		{-1, 3, 0},
		{5, 3, 2},
		{1, 3, 1},
	}
	for _, tt := range tests {
		if got := clampCursor(tt.i, tt.n); got != tt.want {
			t.Errorf("clampCursor(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

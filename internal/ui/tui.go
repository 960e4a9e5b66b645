// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/mapmylife/internal/duedate"
	"github.com/nibzard/mapmylife/internal/render"
	"github.com/nibzard/mapmylife/internal/session"
	"github.com/nibzard/mapmylife/internal/todo"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	render    render.Options
	altScreen bool
}

// WithRenderOptions sets the ordering and date display of the task table.
func WithRenderOptions(opts render.Options) TUIOption {
	return func(c *tuiConfig) {
		c.render = opts
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.altScreen = enabled
	}
}

// Run starts the TUI over sess and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session, opts ...TUIOption) error {
	c := &tuiConfig{altScreen: true}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := NewModel(ctx, sess, c.render)
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, programOpts...)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

type focusArea int

const (
	focusList focusArea = iota
	focusForm
	focusEdit
)

const (
	formDescription = iota
	formDue
)

// editState is an open per-field editor on one row. It lives only until the
// next render.
type editState struct {
	taskID string
	field  todo.Field
	input  textinput.Model
	marker duedate.Marker
}

type entryForm struct {
	description textinput.Model
	due         textinput.Model
	active      int
	marker      duedate.Marker
}

// Model is the bubbletea model. It is also the session's renderer: every
// Render call rebuilds the frame from the store and drops any open editor.
type Model struct {
	ctx      context.Context
	sess     *session.Session
	opts     render.Options
	frame    render.Frame
	buildErr error
	cursor   int
	focus    focusArea
	edit     *editState
	form     entryForm
	status   string
	showHelp bool
	width    int
}

// NewModel returns a model bound to sess and performs the initial render.
func NewModel(ctx context.Context, sess *session.Session, opts render.Options) *Model {
	m := &Model{
		ctx:  ctx,
		sess: sess,
		opts: opts,
		form: entryForm{
			description: newInput("What needs doing?"),
			due:         newInput("Due (optional), e.g. 2024-06-01 17:00"),
		},
		status: "Press a to add a task, ? for help.",
	}
	sess.SetRenderer(m)
	sess.Render()
	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.Width = 48
	return ti
}

// Render rebuilds the frame from store. The cursor follows the task it was
// on when that task still exists.
func (m *Model) Render(store *todo.Store) {
	selected := m.selectedID()

	m.frame, m.buildErr = render.Build(store, m.opts)
	m.edit = nil
	if m.focus == focusEdit {
		m.focus = focusList
	}

	if idx := m.frame.IndexOf(selected); idx >= 0 {
		m.cursor = idx
	}
	m.cursor = clampCursor(m.cursor, len(m.frame.Rows))
}

// Frame returns the last rendered frame.
func (m *Model) Frame() render.Frame {
	return m.frame
}

// Status returns the status line.
func (m *Model) Status() string {
	return m.status
}

func (m *Model) selectedID() string {
	row, ok := m.frame.RowAt(m.cursor)
	if !ok {
		return ""
	}
	return row.TaskID
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := max(msg.Width-20, 20)
		m.form.description.Width = w
		m.form.due.Width = w
		if m.edit != nil {
			m.edit.input.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.focus {
		case focusEdit:
			return m.updateEdit(msg)
		case focusForm:
			return m.updateForm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.frame.Rows))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.frame.Rows))
	case " ", "space", "x":
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		m.report(m.sess.ToggleComplete(m.ctx, id), "Toggled task")
	case "d", "delete":
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		m.report(m.sess.DeleteTask(m.ctx, id), "Deleted task")
	case "e", "enter":
		return m, m.startEdit(todo.FieldDescription)
	case "t":
		return m, m.startEdit(todo.FieldDueAt)
	case "a", "n":
		return m, m.focusForm(formDescription)
	case "r":
		m.report(m.sess.Reload(m.ctx), "Reloaded")
	case "?":
		m.showHelp = true
	}
	return m, nil
}

// startEdit opens an editor pre-filled with the stored value of field for
// the row under the cursor.
func (m *Model) startEdit(field todo.Field) tea.Cmd {
	id := m.selectedID()
	if id == "" {
		return nil
	}
	task, ok := m.sess.Task(id)
	if !ok {
		return nil
	}

	value := task.Description
	if field == todo.FieldDueAt {
		value = task.DueAt
	}
	input := newInput("")
	input.Width = m.form.description.Width
	input.SetValue(value)
	input.CursorEnd()

	m.edit = &editState{taskID: id, field: field, input: input}
	if field == todo.FieldDueAt {
		m.edit.marker = m.sess.ValidateDue(value)
	}
	m.focus = focusEdit
	m.status = fmt.Sprintf("Editing %s: enter to save, esc to cancel", fieldLabel(field))
	return m.edit.input.Focus()
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		m.sess.Cancel()
		m.status = "Edit cancelled"
		return m, nil
	case "enter":
		m.commitEdit(false)
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.commitEdit(true)
		switch key {
		case "up":
			m.cursor = clampCursor(m.cursor-1, len(m.frame.Rows))
		case "down":
			m.cursor = clampCursor(m.cursor+1, len(m.frame.Rows))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.edit.input, cmd = m.edit.input.Update(msg)
	if m.edit.field == todo.FieldDueAt {
		m.edit.marker = m.sess.ValidateDue(m.edit.input.Value())
	}
	return m, cmd
}

// commitEdit writes the open editor's value. A refused due date keeps the
// editor open, unless the commit came from focus loss, in which case the
// edit is dropped.
func (m *Model) commitEdit(blur bool) {
	e := m.edit
	err := m.sess.CommitField(m.ctx, e.taskID, e.field, e.input.Value())
	if errors.Is(err, session.ErrInvalidDueDate) {
		if blur {
			m.sess.Cancel()
			m.status = "Invalid due date, edit discarded"
			return
		}
		e.marker = duedate.MarkerInvalid
		m.status = "Invalid due date"
		return
	}
	m.report(err, "Saved "+fieldLabel(e.field))
}

func (m *Model) focusForm(field int) tea.Cmd {
	m.focus = focusForm
	m.form.active = field
	m.form.description.Blur()
	m.form.due.Blur()
	m.status = "New task: tab switches fields, enter adds, esc returns to the list"
	if field == formDue {
		return m.form.due.Focus()
	}
	return m.form.description.Focus()
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.description.Blur()
		m.form.due.Blur()
		m.focus = focusList
		m.status = ""
		return m, nil
	case "tab", "shift+tab":
		return m, m.focusForm(1 - m.form.active)
	case "enter":
		return m, m.submitForm()
	}

	var cmd tea.Cmd
	if m.form.active == formDue {
		m.form.due, cmd = m.form.due.Update(msg)
		m.form.marker = m.sess.ValidateDue(m.form.due.Value())
		return m, cmd
	}
	m.form.description, cmd = m.form.description.Update(msg)
	return m, cmd
}

// submitForm adds a task from the entry form. A rejected due date leaves
// both inputs as typed.
func (m *Model) submitForm() tea.Cmd {
	task, err := m.sess.AddTask(m.ctx, m.form.description.Value(), m.form.due.Value())
	if errors.Is(err, session.ErrInvalidDueDate) {
		m.form.marker = duedate.MarkerInvalid
		m.status = "Invalid due date"
		return nil
	}
	if task.ID == "" {
		m.report(err, "")
		return nil
	}

	m.form.description.Reset()
	m.form.due.Reset()
	m.form.marker = duedate.MarkerNone
	if idx := m.frame.IndexOf(task.ID); idx >= 0 {
		m.cursor = idx
	}
	m.report(err, "Added task")
	return m.focusForm(formDescription)
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.status = ok
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	inactiveLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func (m *Model) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	if m.buildErr != nil {
		b.WriteString("Error rendering tasks:\n")
		b.WriteString("  " + m.buildErr.Error() + "\n\n")
		writeFooter(&b)
		return b.String()
	}

	m.writeTable(&b)
	m.writeDetail(&b)
	m.writeForm(&b)
	if m.status != "" {
		b.WriteString(faintStyle.Render(m.status) + "\n\n")
	}
	writeFooter(&b)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "mapmylife"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func (m *Model) writeTable(b *strings.Builder) {
	descW := lipgloss.Width(m.frame.Header.Description)
	createdW := lipgloss.Width(m.frame.Header.CreatedAt)
	for _, r := range m.frame.Rows {
		descW = max(descW, lipgloss.Width(r.Description))
		createdW = max(createdW, len(r.CreatedAt))
	}
	if m.edit != nil {
		descW = max(descW, m.edit.input.Width+2)
	}

	desc := lipgloss.NewStyle().Width(descW)
	created := lipgloss.NewStyle().Width(createdW)

	b.WriteString(headerStyle.Render(fmt.Sprintf("      %s  %s  %s",
		desc.Render(m.frame.Header.Description),
		created.Render(m.frame.Header.CreatedAt),
		m.frame.Header.DueAt)))
	b.WriteString("\n")

	if len(m.frame.Rows) == 0 {
		b.WriteString(faintStyle.Render("  No tasks yet.") + "\n")
	}
	for i, r := range m.frame.Rows {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}

		descCell := r.Description
		dueCell := r.Due
		if m.edit != nil && m.edit.taskID == r.TaskID {
			switch m.edit.field {
			case todo.FieldDescription:
				descCell = m.edit.input.View()
			case todo.FieldDueAt:
				dueCell = m.edit.input.View() + markerGlyph(m.edit.marker)
			}
		} else if r.Complete {
			descCell = doneStyle.Render(descCell)
		}

		fmt.Fprintf(b, "%s%s  %s  %s  %s\n",
			pointer,
			render.Checkbox(r.Complete),
			desc.Render(descCell),
			created.Render(r.CreatedAt),
			dueCell)
	}
	b.WriteString("\n" + m.frame.Summary + "\n\n")
}

// writeDetail shows the due-date tooltip of the selected row.
func (m *Model) writeDetail(b *strings.Builder) {
	row, ok := m.frame.RowAt(m.cursor)
	if !ok {
		return
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %s  (%s)", row.DueTooltip, row.TaskID)) + "\n\n")
}

func (m *Model) writeForm(b *strings.Builder) {
	label := func(i int, s string) string {
		if m.focus == focusForm && m.form.active == i {
			return activeLabel.Render(s)
		}
		return inactiveLabel.Render(s)
	}
	b.WriteString("Add Task\n\n")
	b.WriteString("  " + label(formDescription, "Task: ") + m.form.description.View() + "\n")
	b.WriteString("  " + label(formDue, "Due:  ") + m.form.due.View() + markerGlyph(m.form.marker) + "\n\n")
}

func markerGlyph(mk duedate.Marker) string {
	switch mk {
	case duedate.MarkerValid:
		return " " + validStyle.Render("✓")
	case duedate.MarkerInvalid:
		return " " + invalidStyle.Render("✗")
	default:
		return ""
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j     Move\n")
	b.WriteString("  space, x         Toggle complete\n")
	b.WriteString("  e, enter         Edit description\n")
	b.WriteString("  t                Edit due date\n")
	b.WriteString("  d, delete        Delete task\n")
	b.WriteString("  a, n             Add a task\n")
	b.WriteString("  r                Reload from storage\n")
	b.WriteString("  ?                Toggle this help screen\n")
	b.WriteString("  q, ctrl+c        Quit\n\n")
	b.WriteString("While editing\n\n")
	b.WriteString("  enter            Save\n")
	b.WriteString("  tab, up, down    Save and leave the field\n")
	b.WriteString("  esc              Cancel\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString(faintStyle.Render("Press ? for help | q to quit") + "\n")
}

func fieldLabel(f todo.Field) string {
	if f == todo.FieldDueAt {
		return "due date"
	}
	return "description"
}

func clampCursor(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Package render turns a task store into a display frame.
//
// A frame is always computed from scratch from the store. Nothing from a
// previous frame survives a render, so any presentation state that was not
// written to the store (an open edit, a half-typed value) is discarded.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nibzard/mapmylife/internal/duedate"
	"github.com/nibzard/mapmylife/internal/todo"
)

const (
	// NoDue is shown in the due column of a task without a due date.
	NoDue = "-"
	// NoDueTooltip is the detail text of a task without a due date.
	NoDueTooltip = "No Due Date"
	// InvalidDueTooltip is the detail text of a stored due date that no longer parses.
	InvalidDueTooltip = "Invalid Due Date"
)

// Header holds the column titles.
type Header struct {
	Description string
	CreatedAt   string
	DueAt       string
}

// DefaultHeader returns the standard column titles.
func DefaultHeader() Header {
	return Header{
		Description: "Task",
		CreatedAt:   "Created At",
		DueAt:       "Due At",
	}
}

// Row is one displayed task.
type Row struct {
	TaskID      string
	Complete    bool
	Description string
	CreatedAt   string
	Due         string
	DueTooltip  string
}

// Frame is a full rendering of the store.
type Frame struct {
	Header  Header
	Rows    []Row
	Summary string
}

// RowAt returns the row at index i.
func (f Frame) RowAt(i int) (Row, bool) {
	if i < 0 || i >= len(f.Rows) {
		return Row{}, false
	}
	return f.Rows[i], true
}

// IndexOf returns the row index of taskID, or -1.
func (f Frame) IndexOf(taskID string) int {
	for i, r := range f.Rows {
		if r.TaskID == taskID {
			return i
		}
	}
	return -1
}

// Options controls ordering and date display.
type Options struct {
	SortBy   todo.Field
	SortDesc bool
	Dates    *duedate.Parser
}

// Build computes the frame for store.
func Build(store *todo.Store, opts Options) (Frame, error) {
	c, err := todo.TaskComparator(opts.SortBy, opts.SortDesc)
	if err != nil {
		return Frame{}, err
	}
	dates := opts.Dates
	if dates == nil {
		dates = &duedate.Parser{}
	}

	tasks := todo.Sorted(store.List(), c)
	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, buildRow(t, dates))
	}
	return Frame{
		Header:  DefaultHeader(),
		Rows:    rows,
		Summary: Summary(len(rows)),
	}, nil
}

func buildRow(t todo.Task, dates *duedate.Parser) Row {
	row := Row{
		TaskID:      t.ID,
		Complete:    t.Complete,
		Description: t.Description,
		CreatedAt:   strconv.FormatInt(t.CreatedAt, 10),
		Due:         NoDue,
		DueTooltip:  NoDueTooltip,
	}
	if !t.HasDue() {
		return row
	}
	r := dates.Parse(t.DueAt)
	if !r.Valid {
		row.Due = t.DueAt
		row.DueTooltip = InvalidDueTooltip
		return row
	}
	row.Due = r.Humanized
	row.DueTooltip = "Due at: " + r.Formatted
	return row
}

// Summary returns the trailing task count line.
func Summary(n int) string {
	return fmt.Sprintf("%d tasks", n)
}

// Checkbox returns the completion toggle for a row.
func Checkbox(complete bool) string {
	if complete {
		return "[x]"
	}
	return "[ ]"
}

// WriteText writes the frame as a plain table.
func WriteText(w io.Writer, f Frame) error {
	descW := len(f.Header.Description)
	createdW := len(f.Header.CreatedAt)
	idW := 0
	for _, r := range f.Rows {
		descW = max(descW, len([]rune(r.Description)))
		createdW = max(createdW, len(r.CreatedAt))
		idW = max(idW, len(r.TaskID))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-3s  %s  %s  %s\n",
		idW, "", "", pad(f.Header.Description, descW), pad(f.Header.CreatedAt, createdW), f.Header.DueAt)
	for _, r := range f.Rows {
		fmt.Fprintf(&b, "%-*s  %s  %s  %s  %s\n",
			idW, r.TaskID, Checkbox(r.Complete), pad(r.Description, descW), pad(r.CreatedAt, createdW), r.Due)
	}
	b.WriteString("\n" + f.Summary + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

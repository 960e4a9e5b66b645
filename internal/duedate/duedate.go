// Package duedate parses, validates, and formats free-text due dates.
package duedate

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
)

// DefaultLayout is the absolute format shown alongside relative due dates.
const DefaultLayout = "2006-01-02 15:04"

// Marker is the live-validation state of a due-date input.
type Marker int

const (
	// MarkerNone means the input is empty: neither valid nor invalid.
	MarkerNone Marker = iota
	MarkerValid
	MarkerInvalid
)

func (m Marker) String() string {
	switch m {
	case MarkerValid:
		return "valid"
	case MarkerInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// Result is the outcome of parsing one due-date string.
type Result struct {
	Valid     bool
	Time      time.Time
	Humanized string // e.g. "3 days from now"
	Formatted string // e.g. "2024-05-03 18:00"
}

// Parser turns user input into due dates. The zero value parses in local
// time against the wall clock.
type Parser struct {
	Location *time.Location
	Now      func() time.Time
	Layout   string
}

// New returns a parser for loc. A nil loc means time.Local.
func New(loc *time.Location) *Parser {
	return &Parser{Location: loc}
}

// Parse interprets value. Blank input is reported as not valid.
func (p *Parser) Parse(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return Result{}
	}
	t, err := dateparse.ParseIn(value, p.location())
	if err != nil {
		return Result{}
	}
	return Result{
		Valid:     true,
		Time:      t,
		Humanized: humanize.RelTime(t, p.now(), "ago", "from now"),
		Formatted: t.Format(p.layout()),
	}
}

// Valid reports whether value is a parseable due date.
func (p *Parser) Valid(value string) bool {
	return p.Parse(value).Valid
}

// Check maps value to its live-validation marker.
func (p *Parser) Check(value string) Marker {
	if strings.TrimSpace(value) == "" {
		return MarkerNone
	}
	if p.Valid(value) {
		return MarkerValid
	}
	return MarkerInvalid
}

func (p *Parser) location() *time.Location {
	if p == nil || p.Location == nil {
		return time.Local
	}
	return p.Location
}

func (p *Parser) now() time.Time {
	if p == nil || p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Parser) layout() string {
	if p == nil || p.Layout == "" {
		return DefaultLayout
	}
	return p.Layout
}

package render

import (
	"io"

	"github.com/nibzard/mapmylife/internal/todo"
)

// Renderer redraws the whole presentation from the store.
type Renderer interface {
	Render(store *todo.Store)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(store *todo.Store)

// Render calls f(store).
func (f RenderFunc) Render(store *todo.Store) {
	f(store)
}

// Discard is a Renderer that draws nothing.
var Discard Renderer = RenderFunc(func(*todo.Store) {})

// TextRenderer writes a plain table to W on every render.
type TextRenderer struct {
	W    io.Writer
	Opts Options
	// Err holds the last build or write error.
	Err error
}

// Render builds the frame and writes it.
func (r *TextRenderer) Render(store *todo.Store) {
	f, err := Build(store, r.Opts)
	if err != nil {
		r.Err = err
		return
	}
	r.Err = WriteText(r.W, f)
}

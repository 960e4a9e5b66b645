package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/mapmylife/internal/config"
	"github.com/nibzard/mapmylife/internal/render"
	"github.com/nibzard/mapmylife/internal/todo"
	"github.com/nibzard/mapmylife/internal/ui"
)

// parseInterspersed parses flags that may appear before, between or after
// positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// openCLI opens an app whose session prints the task table to stdout after
// every mutation.
func openCLI(ctx context.Context, cfg *config.Config) (*app, *render.TextRenderer, error) {
	tr := &render.TextRenderer{W: stdout}
	a, err := openApp(ctx, cfg, tr)
	if err != nil {
		return nil, nil, err
	}
	tr.Opts = a.renderOpts
	return a, tr, nil
}

// tuiCommand launches the interactive task table.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mapmylife tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	noAlt := fs.Bool("inline", false, "Draw inline instead of using the alternate screen")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return ui.Run(ctx, a.sess,
		ui.WithRenderOptions(a.renderOpts),
		ui.WithAltScreen(!*noAlt),
	)
}

// lsCommand prints the task table, or the ordered tasks as JSON or YAML.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mapmylife ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "Output format (text, json, yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	a, tr, err := openCLI(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch f := strings.ToLower(*format); f {
	case "text", "":
		a.sess.Render()
		return tr.Err
	case "json", "yaml":
		frame, err := render.Build(a.sess.Store(), a.renderOpts)
		if err != nil {
			return err
		}
		tasks := make([]todo.Task, 0, len(frame.Rows))
		for _, row := range frame.Rows {
			t, _ := a.sess.Task(row.TaskID)
			tasks = append(tasks, t)
		}
		if f == "json" {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", *format)
	}
}

// addCommand creates a task from the remaining arguments.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mapmylife add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	due := fs.String("due", "", "Due date, e.g. \"2024-06-01 17:00\" or \"June 1 2024\"")
	words, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("usage: mapmylife add <description> [--due <date>]")
	}

	a, tr, err := openCLI(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := a.sess.AddTask(ctx, strings.Join(words, " "), *due)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	fmt.Fprintf(stderr, "Added %s\n", task.ID)
	return tr.Err
}

// doneCommand toggles the complete flag of each referenced task.
func doneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mapmylife done <id>...")
	}

	a, tr, err := openCLI(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, ref := range args {
		id, err := a.sess.Resolve(ref)
		if err != nil {
			return err
		}
		if err := a.sess.ToggleComplete(ctx, id); err != nil {
			return fmt.Errorf("toggle %s: %w", id, err)
		}
	}
	return tr.Err
}

// rmCommand deletes each referenced task. Unknown ids are reported and
// skipped.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mapmylife rm <id>...")
	}

	a, tr, err := openCLI(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, ref := range args {
		id, err := a.sess.Resolve(ref)
		switch {
		case errors.Is(err, todo.ErrTaskNotFound):
			fmt.Fprintf(stderr, "No task %s\n", ref)
			id = ref
		case err != nil:
			return err
		}
		if err := a.sess.DeleteTask(ctx, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return tr.Err
}

type fieldEdit struct {
	field todo.Field
	value string
}

// editCommand commits new field values for one task.
func editCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mapmylife edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	description := fs.String("description", "", "New description")
	fs.StringVar(description, "d", "", "New description (shorthand)")
	due := fs.String("due", "", "New due date (empty clears it)")
	refs, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(refs) != 1 {
		return fmt.Errorf("usage: mapmylife edit <id> [--description <text>] [--due <date>]")
	}

	var edits []fieldEdit
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "description", "d":
			edits = append(edits, fieldEdit{todo.FieldDescription, *description})
		case "due":
			edits = append(edits, fieldEdit{todo.FieldDueAt, *due})
		}
	})
	if len(edits) == 0 {
		return fmt.Errorf("nothing to edit: pass --description or --due")
	}

	a, tr, err := openCLI(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.sess.Resolve(refs[0])
	if err != nil {
		return err
	}
	for _, e := range edits {
		if err := a.sess.CommitField(ctx, id, e.field, e.value); err != nil {
			return fmt.Errorf("edit %s: %w", id, err)
		}
	}
	return tr.Err
}

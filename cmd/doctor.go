package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/mapmylife/internal/config"
	"github.com/nibzard/mapmylife/internal/render"
	"github.com/nibzard/mapmylife/internal/todo"
)

// doctorCommand checks directories, the storage backend and the stored
// blob. Malformed state is reported here instead of failing startup.
func doctorCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mapmylife doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "mapmylife doctor")
	fmt.Fprintln(stdout, "================")
	fmt.Fprintln(stdout)

	allOK := true

	for _, dir := range []struct{ label, path string }{
		{"State directory", cfg.StateDir},
		{"Log directory", cfg.LogDir},
	} {
		fmt.Fprintf(stdout, "%s: %s\n", dir.label, dir.path)
		info, err := os.Stat(dir.path)
		switch {
		case os.IsNotExist(err):
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first save)")
		case err != nil:
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		case !info.IsDir():
			fmt.Fprintln(stdout, "  ❌ Error: path is not a directory")
			allOK = false
		default:
			fmt.Fprintln(stdout, "  ✅ OK")
		}
		fmt.Fprintln(stdout)
	}

	opts := cfg.StorageOptions()
	fmt.Fprintf(stdout, "Storage: %s\n", opts.Backend)
	a, err := openStorage(ctx, cfg, todo.WithValidation(true))
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ %v\n\n", err)
		fmt.Fprintln(stdout, "⚠️  Some checks failed.")
		return fmt.Errorf("doctor checks failed")
	}
	defer a.Close()
	fmt.Fprintln(stdout, "  ✅ OK")
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Stored tasks (key %q):\n", a.adapter.Key())
	ins, err := a.adapter.Inspect(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(stdout, "  ❌ %v\n", err)
		allOK = false
	case !ins.Exists:
		fmt.Fprintln(stdout, "  ⚠️  Nothing stored yet")
	case !ins.Valid():
		fmt.Fprintf(stdout, "  ❌ Malformed state (%d bytes):\n", ins.Bytes)
		for _, e := range ins.Errors {
			fmt.Fprintf(stdout, "     - %v\n", e)
		}
		allOK = false
	default:
		fmt.Fprintf(stdout, "  ✅ Valid (%d tasks, %d bytes)\n", ins.Tasks, ins.Bytes)
		if store, err := a.adapter.Load(ctx); err == nil {
			for _, t := range store.Ordered() {
				if t.HasDue() && !a.dates.Valid(t.DueAt) {
					fmt.Fprintf(stdout, "  ⚠️  %s: due date %q does not parse\n", t.ID, t.DueAt)
				}
				if *verbose {
					fmt.Fprintf(stdout, "    - %s %s %s\n", t.ID, render.Checkbox(t.Complete), t.Description)
				}
			}
		}
	}
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

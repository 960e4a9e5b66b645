package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/mapmylife/internal/appdir"
	"github.com/nibzard/mapmylife/internal/config"
	"github.com/nibzard/mapmylife/internal/session"
	"github.com/nibzard/mapmylife/internal/storage"
	"github.com/nibzard/mapmylife/internal/todo"
)

// chdir changes the working directory to dir for the rest of the test and
// restores it afterwards, like testing.T.Chdir from Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

// isolate points HOME and the working directory at temp dirs, clears every
// MAPMYLIFE_ variable and returns a fresh state directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, config.EnvPrefix) {
			t.Setenv(name, "")
		}
	}
	chdir(t, t.TempDir())
	return filepath.Join(t.TempDir(), "state")
}

// run executes the CLI with captured output streams.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	defer func() { stdout, stderr = oldOut, oldErr }()

	err := Run(context.Background(), args)
	return out.String(), errOut.String(), err
}

func listJSON(t *testing.T, stateDir string) []todo.Task {
	t.Helper()
	out, _, err := run(t, "--state-dir", stateDir, "ls", "--format", "json")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	var tasks []todo.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decoding ls output %q: %v", out, err)
	}
	return tasks
}

func addTask(t *testing.T, stateDir string, args ...string) string {
	t.Helper()
	_, errOut, err := run(t, append([]string{"--state-dir", stateDir, "add"}, args...)...)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id, ok := strings.CutPrefix(strings.TrimSpace(errOut), "Added ")
	if !ok || id == "" {
		t.Fatalf("add stderr = %q", errOut)
	}
	return id
}

func TestRun(t *testing.T) {
	t.Run("shows help with --help flag", func(t *testing.T) {
		isolate(t)
		out, _, err := run(t, "--help")
		if err != nil {
			t.Errorf("expected no error with --help, got %v", err)
		}
		if !strings.Contains(out, "Commands:") || !strings.Contains(out, "-state-dir") {
			t.Errorf("help output = %q", out)
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		isolate(t)
		if _, _, err := run(t, "help"); err != nil {
			t.Errorf("expected no error with help command, got %v", err)
		}
	})

	t.Run("shows version with -v flag", func(t *testing.T) {
		isolate(t)
		out, _, err := run(t, "-v")
		if err != nil {
			t.Fatalf("expected no error with -v, got %v", err)
		}
		if out != "mapmylife version dev\n" {
			t.Errorf("version output = %q", out)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		isolate(t)
		_, _, err := run(t, "unknown-command")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("invalid config flag returns error", func(t *testing.T) {
		isolate(t)
		if _, _, err := run(t, "--sort-by", "colour", "ls"); err == nil {
			t.Error("expected error for invalid sort field")
		}
	})

	t.Run("schema prints the state schema", func(t *testing.T) {
		isolate(t)
		out, _, err := run(t, "schema")
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(out) != strings.TrimSpace(todo.StateSchema) {
			t.Errorf("schema output = %q", out)
		}
	})
}

func TestTaskCommands(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		stateDir := isolate(t)
		out, _, err := run(t, "--state-dir", stateDir, "ls")
		if err != nil {
			t.Fatalf("ls: %v", err)
		}
		if !strings.Contains(out, "Created At") || !strings.Contains(out, "0 tasks") {
			t.Errorf("ls output = %q", out)
		}
		if tasks := listJSON(t, stateDir); len(tasks) != 0 {
			t.Errorf("tasks = %v, want none", tasks)
		}
	})

	t.Run("add toggle edit delete", func(t *testing.T) {
		stateDir := isolate(t)

		id := addTask(t, stateDir, "Buy", "milk", "--due", "2030-01-02")
		tasks := listJSON(t, stateDir)
		if len(tasks) != 1 {
			t.Fatalf("got %d tasks, want 1", len(tasks))
		}
		got := tasks[0]
		if got.ID != id || got.Description != "Buy milk" || got.DueAt != "2030-01-02" || got.Complete {
			t.Errorf("task = %+v", got)
		}
		if got.CreatedAt == 0 {
			t.Error("createdAt not set")
		}

		if _, _, err := run(t, "--state-dir", stateDir, "done", id[:6]); err != nil {
			t.Fatalf("done: %v", err)
		}
		if tasks := listJSON(t, stateDir); !tasks[0].Complete {
			t.Error("task not complete after done")
		}

		if _, _, err := run(t, "--state-dir", stateDir, "edit", id, "-d", "Buy oat milk", "--due", ""); err != nil {
			t.Fatalf("edit: %v", err)
		}
		got = listJSON(t, stateDir)[0]
		if got.Description != "Buy oat milk" || got.DueAt != "" {
			t.Errorf("after edit task = %+v", got)
		}

		out, _, err := run(t, "--state-dir", stateDir, "rm", id)
		if err != nil {
			t.Fatalf("rm: %v", err)
		}
		if strings.Contains(out, "Buy oat milk") {
			t.Errorf("rm output still lists task: %q", out)
		}
		if tasks := listJSON(t, stateDir); len(tasks) != 0 {
			t.Errorf("tasks after rm = %v", tasks)
		}
	})

	t.Run("mutation prints the table", func(t *testing.T) {
		stateDir := isolate(t)
		_, _, _ = run(t, "--state-dir", stateDir, "add", "Water plants")
		out, _, err := run(t, "--state-dir", stateDir, "add", "Call mum")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Water plants") || !strings.Contains(out, "Call mum") {
			t.Errorf("table after add = %q", out)
		}
	})

	t.Run("add rejects invalid due date", func(t *testing.T) {
		stateDir := isolate(t)
		_, _, err := run(t, "--state-dir", stateDir, "add", "Pay rent", "--due", "not a date at all")
		if !errors.Is(err, session.ErrInvalidDueDate) {
			t.Fatalf("err = %v, want ErrInvalidDueDate", err)
		}
		if tasks := listJSON(t, stateDir); len(tasks) != 0 {
			t.Errorf("tasks = %v, want none", tasks)
		}
	})

	t.Run("add without description", func(t *testing.T) {
		stateDir := isolate(t)
		if _, _, err := run(t, "--state-dir", stateDir, "add"); err == nil {
			t.Error("expected usage error")
		}
	})

	t.Run("rm unknown id is reported", func(t *testing.T) {
		stateDir := isolate(t)
		_, errOut, err := run(t, "--state-dir", stateDir, "rm", "nope")
		if err != nil {
			t.Fatalf("rm: %v", err)
		}
		if !strings.Contains(errOut, "No task nope") {
			t.Errorf("stderr = %q", errOut)
		}
	})

	t.Run("done unknown id fails", func(t *testing.T) {
		stateDir := isolate(t)
		_, _, err := run(t, "--state-dir", stateDir, "done", "nope")
		if !errors.Is(err, todo.ErrTaskNotFound) {
			t.Errorf("err = %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("edit needs a field", func(t *testing.T) {
		stateDir := isolate(t)
		id := addTask(t, stateDir, "Read")
		if _, _, err := run(t, "--state-dir", stateDir, "edit", id); err == nil {
			t.Error("expected error when no field is given")
		}
	})

	t.Run("ls yaml", func(t *testing.T) {
		stateDir := isolate(t)
		id := addTask(t, stateDir, "Stretch")
		out, _, err := run(t, "--state-dir", stateDir, "ls", "--format", "yaml")
		if err != nil {
			t.Fatal(err)
		}
		var tasks []todo.Task
		if err := yaml.Unmarshal([]byte(out), &tasks); err != nil {
			t.Fatalf("decoding %q: %v", out, err)
		}
		if len(tasks) != 1 || tasks[0].ID != id {
			t.Errorf("tasks = %+v", tasks)
		}
	})

	t.Run("ls unknown format", func(t *testing.T) {
		stateDir := isolate(t)
		if _, _, err := run(t, "--state-dir", stateDir, "ls", "--format", "xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("ephemeral does not persist", func(t *testing.T) {
		stateDir := isolate(t)
		addTask(t, stateDir, "Kept")
		_, _, err := run(t, "--state-dir", stateDir, "--ephemeral", "add", "Gone soon")
		if err != nil {
			t.Fatal(err)
		}
		for _, task := range listJSON(t, stateDir) {
			if task.Description == "Gone soon" {
				t.Error("ephemeral task was persisted")
			}
		}
	})

	t.Run("malformed state fails startup", func(t *testing.T) {
		stateDir := isolate(t)
		writeBlob(t, stateDir, `{"tasks": "oops"}`)
		_, _, err := run(t, "--state-dir", stateDir, "ls")
		if !errors.Is(err, todo.ErrMalformedState) {
			t.Errorf("err = %v, want ErrMalformedState", err)
		}
	})
}

func writeBlob(t *testing.T, stateDir, blob string) {
	t.Helper()
	kv, err := storage.NewFileKV(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(context.Background(), appdir.StorageKey, []byte(blob)); err != nil {
		t.Fatal(err)
	}
}

func TestDoctorCommand(t *testing.T) {
	t.Run("passes on valid state", func(t *testing.T) {
		stateDir := isolate(t)
		addTask(t, stateDir, "Check tyres")
		out, _, err := run(t, "--state-dir", stateDir, "doctor", "-v")
		if err != nil {
			t.Fatalf("doctor: %v\n%s", err, out)
		}
		if !strings.Contains(out, "All checks passed") || !strings.Contains(out, "Check tyres") {
			t.Errorf("doctor output = %q", out)
		}
	})

	t.Run("reports malformed state", func(t *testing.T) {
		stateDir := isolate(t)
		writeBlob(t, stateDir, `{not json`)
		out, _, err := run(t, "--state-dir", stateDir, "doctor")
		if err == nil || !strings.Contains(err.Error(), "doctor checks failed") {
			t.Errorf("err = %v", err)
		}
		if !strings.Contains(out, "Malformed state") {
			t.Errorf("doctor output = %q", out)
		}
	})
}

func TestConfigCommand(t *testing.T) {
	t.Run("example", func(t *testing.T) {
		isolate(t)
		out, _, err := run(t, "config", "example")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "[storage]") || !strings.Contains(out, "[display]") {
			t.Errorf("example output = %q", out)
		}
	})

	t.Run("show lists sources", func(t *testing.T) {
		isolate(t)
		out, _, err := run(t, "--sort-by", "dueAt", "config")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "# no config file found") {
			t.Errorf("show output = %q", out)
		}
		if !strings.Contains(out, "display.sort_by") || !strings.Contains(out, string(config.SourceFlag)) {
			t.Errorf("show output missing flag source: %q", out)
		}
	})

	t.Run("show masks the redis password", func(t *testing.T) {
		isolate(t)
		t.Setenv(config.EnvPrefix+"REDIS_PASSWORD", "hunter2")
		out, _, err := run(t, "config", "show")
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(out, "hunter2") {
			t.Errorf("show output leaks the password: %q", out)
		}
		if !strings.Contains(out, `redis_password = "`+secretMask+`"`) {
			t.Errorf("show output missing masked password: %q", out)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		isolate(t)
		if _, _, err := run(t, "config", "frobnicate"); err == nil {
			t.Error("expected error for unknown action")
		}
	})
}

func TestLogsCommand(t *testing.T) {
	t.Run("no logs", func(t *testing.T) {
		stateDir := isolate(t)
		out, _, err := run(t, "--state-dir", stateDir, "logs")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "No log files found") {
			t.Errorf("logs output = %q", out)
		}
	})

	t.Run("prints latest run", func(t *testing.T) {
		stateDir := isolate(t)
		addTask(t, stateDir, "Log me")
		out, _, err := run(t, "--state-dir", stateDir, "logs", "-n", "50")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "session opened") {
			t.Errorf("logs output = %q", out)
		}
	})
}

func TestParseInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	due := fs.String("due", "", "")
	got, err := parseInterspersed(fs, []string{"Buy", "--due", "tomorrow", "milk"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, " ") != "Buy milk" || *due != "tomorrow" {
		t.Errorf("got %v due=%q", got, *due)
	}
}

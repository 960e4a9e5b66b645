// Package cmd implements the CLI command structure for mapmylife.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/mapmylife/internal/config"
	"github.com/nibzard/mapmylife/internal/logging"
	"github.com/nibzard/mapmylife/internal/todo"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the mapmylife CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mapmylife", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// With no subcommand the interactive table opens.
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "done", "toggle":
		return doneCommand(ctx, cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cfg, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "logs", "tail":
		return logsCommand(ctx, cfg, remainingArgs)
	case "schema":
		_, err := io.WriteString(stdout, todo.StateSchema+"\n")
		return err
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// configCommand prints the effective configuration or an example file.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	action := "show"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "show":
		if file := cws.ConfigFile(); file != "" {
			fmt.Fprintf(stdout, "# config file: %s\n", file)
		} else {
			fmt.Fprintln(stdout, "# no config file found")
		}
		if err := toml.NewEncoder(stdout).Encode(redacted(cws.Config)); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "# sources")
		fields := make([]string, 0, len(cws.Sources))
		for field := range cws.Sources {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		for _, field := range fields {
			fmt.Fprintf(stdout, "#   %-24s %s\n", field, cws.Sources[field])
		}
		return nil
	case "example":
		_, err := io.WriteString(stdout, config.ExampleConfig())
		return err
	case "path":
		fmt.Fprintln(stdout, cws.ConfigFile())
		return nil
	default:
		return fmt.Errorf("unknown config action %q (want show, example or path)", action)
	}
}

// redacted returns a copy of cfg with secrets masked for display.
func redacted(cfg *config.Config) config.Config {
	shown := *cfg
	if shown.Storage.RedisPassword != "" {
		shown.Storage.RedisPassword = secretMask
	}
	return shown
}

const secretMask = "********"

// logsCommand prints the latest run log.
func logsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mapmylife logs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logPath, err := logging.FindLatestLog(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stderr, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stderr, "(Ctrl+C to stop)")
	}
	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "mapmylife version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "mapmylife - a task list for the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mapmylife [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                         Interactive task table (default command)")
	fmt.Fprintln(w, "  ls [--format text|json|yaml] List tasks")
	fmt.Fprintln(w, "  add <description> [--due d] Add a task")
	fmt.Fprintln(w, "  done <id>...                Toggle complete")
	fmt.Fprintln(w, "  rm <id>...                  Delete tasks")
	fmt.Fprintln(w, "  edit <id> [--description s] [--due d]")
	fmt.Fprintln(w, "                              Edit a task (empty --due clears the date)")
	fmt.Fprintln(w, "  doctor [-v]                 Check storage and stored state")
	fmt.Fprintln(w, "  config [show|example|path]  Show configuration")
	fmt.Fprintln(w, "  logs [-f] [-n N]            Print the latest run log")
	fmt.Fprintln(w, "  schema                      Print the JSON schema of stored state")
	fmt.Fprintln(w, "  version                     Show version information")
	fmt.Fprintln(w, "  help                        Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ids may be abbreviated to any unique prefix.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(stderr)
}

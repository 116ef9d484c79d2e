// Package cmd implements the CLI command structure for fanout.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ovn-lab/fanout/internal/config"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the fanout CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fanout", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Default to "run" when the first arg is missing or a flag.
	subcommand := "run"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "run":
		return runCommand(ctx, cfg, remainingArgs)
	case "extract":
		return extractCommand(cfg, remainingArgs)
	case "tail":
		return tailCommand(cfg, remainingArgs)
	case "runs":
		return runsCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "init":
		return initCommand(cfg, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("fanout version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Fanout - A bounded parallel dispatcher for external commands")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  fanout [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run           Dispatch a batch of tasks (default command)")
	fmt.Fprintln(w, "  extract       Extract cost figures from task output")
	fmt.Fprintln(w, "  tail          Tail the latest run log")
	fmt.Fprintln(w, "  runs          List past run logs")
	fmt.Fprintln(w, "  doctor        Check dependencies, config, and manifest validity")
	fmt.Fprintln(w, "  init          Write example config, manifest, and schema files")
	fmt.Fprintln(w, "  version       Show version information")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run Options (use with 'run' command):")
	fmt.Fprintln(w, "  -from int")
	fmt.Fprintln(w, "        First index of the range (default 0)")
	fmt.Fprintln(w, "  -to int")
	fmt.Fprintln(w, "        Last index of the range, inclusive; enables range mode")
	fmt.Fprintln(w, "  -stdin string")
	fmt.Fprintln(w, "        Comma-separated lines fed to each task's stdin")
	fmt.Fprintln(w, "  -id-prefix string")
	fmt.Fprintln(w, "        Task ID prefix for range mode (default \"task\")")
	fmt.Fprintln(w, "  -ui string")
	fmt.Fprintln(w, "        UI mode (tui for terminal UI)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  In range mode the arguments after the flags are the command")
	fmt.Fprintln(w, "  and its arguments; {index} placeholders are expanded per task.")
	fmt.Fprintln(w, "  Without -to, tasks come from the batch manifest.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extract Options (use with 'extract' command):")
	fmt.Fprintln(w, "  -in string")
	fmt.Fprintln(w, "        Output file to scan (defaults to the configured output file)")
	fmt.Fprintln(w, "  -csv string")
	fmt.Fprintln(w, "        CSV destination (default: stdout)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options (use with 'tail' command):")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}

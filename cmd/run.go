package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovn-lab/fanout/internal/batch"
	"github.com/ovn-lab/fanout/internal/config"
	"github.com/ovn-lab/fanout/internal/dispatch"
	"github.com/ovn-lab/fanout/internal/logging"
	"github.com/ovn-lab/fanout/internal/proc"
	"github.com/ovn-lab/fanout/internal/ui"
)

// runCommand plans the batch and dispatches it.
func runCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fanout run", flag.ContinueOnError)
	from := fs.Int("from", 0, "First index of the range")
	to := fs.Int("to", -1, "Last index of the range, inclusive")
	stdinArg := fs.String("stdin", "", "Comma-separated lines fed to each task's stdin")
	idPrefix := fs.String("id-prefix", "", "Task ID prefix for range mode")
	uiMode := fs.String("ui", "", "UI mode (tui for terminal UI)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	tasks, err := planTasks(cfg, *from, *to, *stdinArg, *idPrefix, fs.Args())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer runLog.Close()

	events := dispatch.NewIOStreamLogWriter(runLog.Writer())
	launcher := proc.New()

	if *uiMode == "tui" {
		return runWithTUI(ctx, launcher, logger, events, cfg.MaxParallel, tasks)
	}

	d := dispatch.New(launcher,
		dispatch.WithLogger(logger),
		dispatch.WithEvents(events),
		dispatch.WithMaxParallel(cfg.MaxParallel),
		dispatch.WithNotify(printProgress))

	fmt.Printf("Dispatching %d tasks (log: %s)\n", len(tasks), runLog.LogPath)
	results, err := d.Dispatch(ctx, tasks)
	if err != nil {
		return err
	}
	return reportResults(results, d.Cancelled())
}

// planTasks builds the task list from either an index range or the
// batch manifest.
func planTasks(cfg *config.Config, from, to int, stdinArg, idPrefix string, args []string) ([]dispatch.Task, error) {
	if to >= 0 {
		command := cfg.Command
		if len(args) > 0 {
			command = args[0]
			args = args[1:]
		} else {
			args = nil
		}
		if command == "" {
			return nil, fmt.Errorf("range mode needs a command (argument or config)")
		}

		var stdin []string
		if stdinArg != "" {
			stdin = strings.Split(stdinArg, ",")
		}

		plan := batch.Plan{
			From:       from,
			To:         to,
			Command:    command,
			Args:       args,
			Stdin:      stdin,
			OutputPath: cfg.OutputFile,
			IDPrefix:   idPrefix,
		}
		return plan.Tasks()
	}

	if len(args) > 0 {
		return nil, fmt.Errorf("command arguments need -to to set the index range")
	}

	manifest, err := batch.Load(cfg.BatchFile)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	result := manifest.Validate(batch.ValidationOptions{SchemaPath: cfg.SchemaFile})
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		return nil, fmt.Errorf("manifest %s is invalid", cfg.BatchFile)
	}

	tasks := manifest.Descriptors()
	for i := range tasks {
		if tasks[i].OutputPath == "" {
			tasks[i].OutputPath = cfg.OutputFile
		}
	}
	return tasks, nil
}

// runWithTUI dispatches in the background while the TUI consumes updates.
// Quitting the TUI cancels the batch; the real results are still collected
// and reported afterwards.
func runWithTUI(ctx context.Context, launcher dispatch.Launcher, logger *zap.Logger, events dispatch.LogWriter, maxParallel int, tasks []dispatch.Task) error {
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	updates := make(chan dispatch.Update, 64)
	d := dispatch.New(launcher,
		dispatch.WithLogger(logger),
		dispatch.WithEvents(events),
		dispatch.WithMaxParallel(maxParallel),
		dispatch.WithNotify(func(u dispatch.Update) { updates <- u }))

	wait := startDispatch(ctx, d, tasks, updates)

	if err := ui.RunTUI(updates, len(tasks), d.Cancel); err != nil {
		d.Cancel()
		_, _ = wait()
		return err
	}

	results, err := wait()
	if err != nil {
		return err
	}
	return reportResults(results, d.Cancelled())
}

// startDispatch runs the batch in the background. The returned wait func
// drains whatever updates the TUI did not consume; the channel is closed
// when Dispatch returns, so once the drain finishes the results are
// complete and safe to read. Draining also keeps the notify callback from
// blocking after the TUI stops reading.
func startDispatch(ctx context.Context, d *dispatch.Dispatcher, tasks []dispatch.Task, updates chan dispatch.Update) func() ([]dispatch.Result, error) {
	var results []dispatch.Result
	var err error
	go func() {
		defer close(updates)
		results, err = d.Dispatch(ctx, tasks)
	}()
	return func() ([]dispatch.Result, error) {
		for range updates {
		}
		return results, err
	}
}

// printProgress writes one line per task state change.
func printProgress(u dispatch.Update) {
	switch u.State {
	case dispatch.StateRunning:
		fmt.Printf("  > %s started\n", u.Task.ID)
	case dispatch.StateCompleted:
		if u.Result != nil && u.Result.Kind == dispatch.KindOK {
			fmt.Printf("  + %s finished in %s\n", u.Task.ID, u.Result.Duration.Round(roundTo))
		} else if u.Result != nil {
			fmt.Printf("  x %s exited %d after %s\n", u.Task.ID, u.Result.ExitCode, u.Result.Duration.Round(roundTo))
		}
	case dispatch.StateKilled:
		fmt.Printf("  x %s cancelled\n", u.Task.ID)
	case dispatch.StateLaunchFailed:
		if u.Result != nil {
			fmt.Printf("  x %s failed to launch: %v\n", u.Task.ID, u.Result.Err)
		}
	}
}

// reportResults prints the summary and derives the process exit status.
// interrupted marks runs where cancellation was requested, whether from a
// signal-driven context or from inside the TUI.
func reportResults(results []dispatch.Result, interrupted bool) error {
	var ok, failed, cancelled int
	for _, r := range results {
		switch r.Kind {
		case dispatch.KindOK:
			ok++
		case dispatch.KindCancelled:
			cancelled++
		default:
			failed++
		}
	}

	fmt.Printf("\n%d ok, %d failed, %d cancelled\n", ok, failed, cancelled)

	if cancelled > 0 && interrupted {
		return dispatch.ErrInterrupted
	}
	if failed > 0 || cancelled > 0 {
		return fmt.Errorf("%d of %d tasks did not finish cleanly", failed+cancelled, len(results))
	}
	return nil
}

const roundTo = 10 * time.Millisecond

// resolveUnder makes a path absolute relative to the project root.
func resolveUnder(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

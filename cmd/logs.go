package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/ovn-lab/fanout/internal/config"
	"github.com/ovn-lab/fanout/internal/logging"
)

// tailCommand tails the latest run log.
func tailCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fanout tail", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := projectLogDir(cfg)
	if err != nil {
		return err
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Println("No log files found.")
		return nil
	}

	fmt.Printf("Tailing: %s\n", logPath)
	if *follow {
		fmt.Println("(Ctrl+C to stop)")
	}
	fmt.Println()

	return logging.TailLog(os.Stdout, logPath, *n, *follow)
}

// runsCommand lists past run logs, newest first.
func runsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fanout runs", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := projectLogDir(cfg)
	if err != nil {
		return err
	}
	runs, err := logging.FindRuns(logDir)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s\n", run.ModTime.Format("2006-01-02 15:04:05"), run.RunID)
	}
	return nil
}

func projectLogDir(cfg *config.Config) (string, error) {
	workDir := cfg.ProjectRoot
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		workDir = wd
	}
	logDir, err := logging.FindLogDir(cfg.LogDir, workDir)
	if err != nil {
		return "", fmt.Errorf("finding log directory: %w", err)
	}
	return logDir, nil
}

package config

import "flag"

// parseFlags registers the global flags on fs and parses args into cfg.
// Flags override every other configuration source.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Shared output file tasks append to")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for per-run JSONL logs")
	fs.StringVar(&cfg.BatchFile, "batch", cfg.BatchFile, "Batch manifest file")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "JSON Schema for manifest validation")
	fs.StringVar(&cfg.Command, "command", cfg.Command, "Default command for index-range runs")
	fs.IntVar(&cfg.MaxParallel, "max-parallel", cfg.MaxParallel, "Max concurrently running tasks (0 = unlimited)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")

	return fs.Parse(args)
}

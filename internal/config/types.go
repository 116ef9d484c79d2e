// Package config handles configuration loading and defaults.
package config

// Default values.
const (
	DefaultOutputFile = "fanout.out"
	DefaultLogDir     = "~/.fanout"
	DefaultBatchFile  = "batch.json"
	DefaultSchemaFile = "batch.schema.json"
	DefaultLogLevel   = "info"
)

// Config holds the full configuration for fanout.
type Config struct {
	// OutputFile is the shared append destination for task output.
	OutputFile string `toml:"output_file"`

	// LogDir is where per-run JSONL logs are written.
	LogDir string `toml:"log_dir"`

	// BatchFile is the default batch manifest path.
	BatchFile string `toml:"batch_file"`

	// SchemaFile is the JSON Schema used to validate manifests.
	SchemaFile string `toml:"schema_file"`

	// Command is the default executable for index-range runs.
	Command string `toml:"command"`

	// MaxParallel bounds concurrently running tasks. 0 = unlimited.
	MaxParallel int `toml:"max_parallel"`

	// Logging
	LogLevel string `toml:"log_level"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

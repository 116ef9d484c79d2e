package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# fanout configuration file
# Values can be overridden by FANOUT_* environment variables or CLI flags

# Shared output file every task appends to
output_file = "fanout.out"

# Log directory (supports ~ expansion)
log_dir = "~/.fanout"

# Batch manifest and its validation schema (relative to project root)
batch_file = "batch.json"
schema_file = "batch.schema.json"

# Default command for index-range runs
# command = "concordium-client"

# Max concurrently running tasks (0 = unlimited)
max_parallel = 0

# Log level: debug, info, warn, error
log_level = "info"
`
}

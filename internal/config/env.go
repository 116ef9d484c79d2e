package config

import (
	"os"
	"strconv"
)

// loadFromEnv overrides config from FANOUT_* environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("FANOUT_OUTPUT"); v != "" {
		cfg.OutputFile = v
	}
	if v := os.Getenv("FANOUT_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("FANOUT_BATCH"); v != "" {
		cfg.BatchFile = v
	}
	if v := os.Getenv("FANOUT_SCHEMA"); v != "" {
		cfg.SchemaFile = v
	}
	if v := os.Getenv("FANOUT_COMMAND"); v != "" {
		cfg.Command = v
	}
	if v := os.Getenv("FANOUT_MAX_PARALLEL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxParallel = i
		}
	}
	if v := os.Getenv("FANOUT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

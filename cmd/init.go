package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ovn-lab/fanout/internal/batch"
	"github.com/ovn-lab/fanout/internal/config"
)

// initCommand writes example config, manifest, and schema files.
func initCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fanout init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite existing files")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(cfg.ProjectRoot, "fanout.toml"), config.ExampleConfig()},
		{cfg.BatchFile, batch.ExampleManifest()},
		{cfg.SchemaFile, batch.ManifestSchema()},
	}

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil && !*force {
			fmt.Printf("Skipping %s (exists, use -force to overwrite)\n", f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Printf("Wrote %s\n", f.path)
	}
	return nil
}

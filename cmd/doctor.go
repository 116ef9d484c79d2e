package cmd

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ovn-lab/fanout/internal/batch"
	"github.com/ovn-lab/fanout/internal/config"
)

// doctorCommand checks dependencies, config, and manifest validity.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fanout doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fmt.Println("Fanout Doctor")
	fmt.Println("=============")
	fmt.Println()

	allOK := true

	fmt.Printf("Project root: %s\n", cfg.ProjectRoot)
	if _, err := os.Stat(cfg.ProjectRoot); err != nil {
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	fmt.Println("Config:")
	if cfg.MaxParallel == 0 {
		fmt.Println("  ✅ Max parallel: unlimited")
	} else {
		fmt.Printf("  ✅ Max parallel: %d\n", cfg.MaxParallel)
	}
	fmt.Printf("  ✅ Output file: %s\n", cfg.OutputFile)
	fmt.Println()

	fmt.Println("Dependencies:")
	if cfg.Command == "" {
		fmt.Println("  ⚠️  Default command: not configured (range mode needs one on the command line)")
	} else if resolved, err := exec.LookPath(cfg.Command); err != nil {
		fmt.Printf("  ❌ Default command %q: %v\n", cfg.Command, err)
		allOK = false
	} else {
		fmt.Printf("  ✅ Default command: %s (found in PATH: %s)\n", cfg.Command, resolved)
	}
	fmt.Println()

	fmt.Printf("Batch manifest: %s\n", cfg.BatchFile)
	if !checkManifest(cfg, *verbose) {
		allOK = false
	}
	fmt.Println()

	fmt.Printf("Schema file: %s\n", cfg.SchemaFile)
	if info, err := os.Stat(cfg.SchemaFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (manifest validation falls back to structural checks)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if info.IsDir() {
		fmt.Println("  ❌ Error: path is a directory")
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	fmt.Printf("Log directory: %s\n", cfg.LogDir)
	if _, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (will be created on run)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	outputDir := filepath.Dir(resolveUnder(cfg.ProjectRoot, cfg.OutputFile))
	fmt.Printf("Output directory: %s\n", outputDir)
	if info, err := os.Stat(outputDir); err != nil {
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	} else if !info.IsDir() {
		fmt.Println("  ❌ Error: not a directory")
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. Fanout may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

func checkManifest(cfg *config.Config, verbose bool) bool {
	info, err := os.Stat(cfg.BatchFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (only range mode will work)")
			return true
		}
		fmt.Printf("  ❌ Error: %v\n", err)
		return false
	}
	if info.IsDir() {
		fmt.Println("  ❌ Error: path is a directory")
		return false
	}

	manifest, err := batch.Load(cfg.BatchFile)
	if err != nil {
		fmt.Printf("  ❌ Load error: %v\n", err)
		return false
	}

	result := manifest.Validate(batch.ValidationOptions{SchemaPath: cfg.SchemaFile})
	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
	if !result.Valid {
		fmt.Println("  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Printf("     - %v\n", e)
		}
		return false
	}

	fmt.Println("  ✅ Valid")
	if verbose {
		fmt.Printf("  Tasks: %d\n", len(manifest.Tasks))
		for _, task := range manifest.Descriptors() {
			fmt.Printf("    - [%s] %s\n", task.ID, task.Command)
		}
	}
	return true
}

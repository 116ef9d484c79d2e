package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/ovn-lab/fanout/internal/config"
	"github.com/ovn-lab/fanout/internal/report"
)

// extractCommand scrapes cost figures out of a shared output file.
func extractCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fanout extract", flag.ContinueOnError)
	in := fs.String("in", "", "Output file to scan")
	csvPath := fs.String("csv", "", "CSV destination (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	inputPath := *in
	if inputPath == "" {
		inputPath = resolveUnder(cfg.ProjectRoot, cfg.OutputFile)
	}

	records, err := report.ExtractFile(inputPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No finalized transactions found in %s\n", inputPath)
		return nil
	}

	if *csvPath != "" {
		file, err := os.Create(*csvPath)
		if err != nil {
			return fmt.Errorf("creating csv: %w", err)
		}
		defer file.Close()
		if err := report.WriteCSV(file, records); err != nil {
			return err
		}
		fmt.Printf("Wrote %d records to %s\n", len(records), *csvPath)
	} else if err := report.WriteCSV(os.Stdout, records); err != nil {
		return err
	}

	cost, energy := report.Totals(records)
	fmt.Fprintf(os.Stderr, "Total: %.6f CCD, %d NRG across %d transactions\n",
		cost, energy, len(records))
	return nil
}

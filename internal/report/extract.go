// Package report extracts transaction cost figures from task output.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// Record holds the cost figures scraped from one finalized transaction.
type Record struct {
	Index  int
	Cost   float64
	Energy int64
}

// finalizedRe matches the client's finalization notice, e.g.
// "Transaction is finalized into block ... with cost 1.234567 CCD (2661 NRG)."
var finalizedRe = regexp.MustCompile(`Transaction is finalized.*?([0-9]+(?:\.[0-9]+)?)\s*CCD\s*\(([0-9]+)\s*NRG\)`)

// Extract scans output for finalization notices and returns one record
// per match, indexed in order of appearance.
func Extract(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := finalizedRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		cost, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse cost %q: %w", m[1], err)
		}
		energy, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse energy %q: %w", m[2], err)
		}

		records = append(records, Record{
			Index:  len(records),
			Cost:   cost,
			Energy: energy,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan output: %w", err)
	}
	return records, nil
}

// ExtractFile runs Extract over the contents of path.
func ExtractFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()
	return Extract(file)
}

// WriteCSV writes records as CSV with an index,cost,energy header.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "cost", "energy"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Index),
			strconv.FormatFloat(rec.Cost, 'f', -1, 64),
			strconv.FormatInt(rec.Energy, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Totals sums cost and energy across records.
func Totals(records []Record) (cost float64, energy int64) {
	for _, rec := range records {
		cost += rec.Cost
		energy += rec.Energy
	}
	return cost, energy
}

package query

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Report file names written into the output directory.
const (
	SuccessReport = "querySucc.log"
	FailureReport = "queryFail.log"
)

// Summary counts query outcomes.
type Summary struct {
	Matched    int
	Mismatched int
	NotFound   int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusMatched:
			s.Matched++
		case StatusPatternMismatch:
			s.Mismatched++
		case StatusNotFound:
			s.NotFound++
		}
	}
	return s
}

// WriteReports writes the success and failure reports for results into
// outDir, creating it if needed. Existing reports are replaced. dbPath is
// cited in failure lines.
func WriteReports(outDir, dbPath string, results []Result) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	succ, err := os.Create(filepath.Join(outDir, SuccessReport))
	if err != nil {
		return fmt.Errorf("create success report: %w", err)
	}
	defer succ.Close()

	fail, err := os.Create(filepath.Join(outDir, FailureReport))
	if err != nil {
		return fmt.Errorf("create failure report: %w", err)
	}
	defer fail.Close()

	sw := bufio.NewWriter(succ)
	fw := bufio.NewWriter(fail)

	for _, r := range results {
		switch r.Status {
		case StatusMatched:
			_, err = fmt.Fprintf(sw, "%s\t%s\n", r.Sample, strings.Join(r.Matches, "\t"))
		case StatusPatternMismatch:
			_, err = fmt.Fprintf(fw, "%s not found in %s to match your pattern!\n", r.Sample, dbPath)
		default:
			_, err = fmt.Fprintf(fw, "%s not found in %s!\n", r.Sample, dbPath)
		}
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("write success report: %w", err)
	}
	if err := fw.Flush(); err != nil {
		return fmt.Errorf("write failure report: %w", err)
	}
	if err := succ.Close(); err != nil {
		return fmt.Errorf("close success report: %w", err)
	}
	return fail.Close()
}

package query

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"fqindex/internal/logging"
)

// Manifest is the ordered list of samples to look up, each with the set of
// flow cells its libraries must belong to. A sample without flow cells has
// no flow-cell constraint.
type Manifest struct {
	order     []string
	flowCells map[string][]string
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{flowCells: make(map[string][]string)}
}

// Add records sample, and flowCell under it when non-empty. Samples keep
// the order of their first appearance; duplicate flow cells collapse.
func (m *Manifest) Add(sample, flowCell string) {
	fcs, ok := m.flowCells[sample]
	if !ok {
		m.order = append(m.order, sample)
	}
	if flowCell == "" {
		if !ok {
			m.flowCells[sample] = nil
		}
		return
	}
	for _, fc := range fcs {
		if fc == flowCell {
			return
		}
	}
	m.flowCells[sample] = append(fcs, flowCell)
}

// Samples returns the sample names in manifest order.
func (m *Manifest) Samples() []string {
	return m.order
}

// FlowCells returns the flow cells recorded for sample.
func (m *Manifest) FlowCells(sample string) []string {
	return m.flowCells[sample]
}

// Len returns the number of distinct samples.
func (m *Manifest) Len() int {
	return len(m.order)
}

// ParseManifest reads a tab-delimited sample list. The first line is a
// header and is skipped. Column 1 is the sample name, column 2 the flow
// cell; further columns are ignored. Blank lines are skipped.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := NewManifest()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}

		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		sample := strings.TrimSpace(fields[0])
		if sample == "" {
			logging.Warn("Skipping manifest line %d: empty sample name", lineNo)
			continue
		}

		flowCell := ""
		if len(fields) > 1 {
			flowCell = strings.TrimSpace(fields[1])
		}
		m.Add(sample, flowCell)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest line %d: %w", lineNo+1, err)
	}

	return m, nil
}

// LoadManifest parses the sample list at path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Debug("Loaded %d samples from %s", m.Len(), path)
	return m, nil
}
